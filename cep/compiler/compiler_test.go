package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-cep/cep"
	"github.com/wbrown/janus-cep/cep/nfa"
	"github.com/wbrown/janus-cep/cep/pattern"
)

func findState(auto *nfa.Automaton, name string, kind nfa.Kind) *nfa.State {
	for _, s := range auto.States {
		if s.Name == name && s.Kind == kind {
			return s
		}
	}
	return nil
}

func TestCompileSimpleStrictChain(t *testing.T) {
	chain, err := pattern.Begin("a").Next("b").Build()
	require.NoError(t, err)

	auto, err := Compile(chain, false)
	require.NoError(t, err)

	require.Equal(t, nfa.Start, auto.Start.Kind)
	assert.Equal(t, "a", auto.Start.Name)
	require.Len(t, auto.Start.Edges, 1)
	assert.Equal(t, nfa.Take, auto.Start.Edges[0].Action)

	b := auto.Start.Edges[0].Target
	assert.Equal(t, "b", b.Name)
	require.Len(t, b.Edges, 2)

	var sawTakeToFinal, sawIgnoreToStop bool
	for _, e := range b.Edges {
		switch e.Action {
		case nfa.Take:
			sawTakeToFinal = e.Target.Kind == nfa.Final
		case nfa.Ignore:
			sawIgnoreToStop = e.Target.Kind == nfa.Stop
		}
	}
	assert.True(t, sawTakeToFinal)
	assert.True(t, sawIgnoreToStop)
}

func TestCompileSkipTillNextSelfLoop(t *testing.T) {
	chain, err := pattern.Begin("a").FollowedBy("b").Build()
	require.NoError(t, err)

	auto, err := Compile(chain, false)
	require.NoError(t, err)

	b := auto.Start.Edges[0].Target
	require.Len(t, b.Edges, 2)

	var loopsOnSelf bool
	for _, e := range b.Edges {
		if e.Action == nfa.Ignore {
			loopsOnSelf = e.Target == b
		}
	}
	assert.True(t, loopsOnSelf)
}

func TestCompileSkipTillAnyUnconditionalIgnore(t *testing.T) {
	chain, err := pattern.Begin("a").FollowedByAny("b").Build()
	require.NoError(t, err)

	auto, err := Compile(chain, false)
	require.NoError(t, err)

	b := auto.Start.Edges[0].Target
	var ignoreEdge *nfa.Edge
	for i, e := range b.Edges {
		if e.Action == nfa.Ignore {
			ignoreEdge = &b.Edges[i]
		}
	}
	require.NotNil(t, ignoreEdge)
	assert.Nil(t, ignoreEdge.Condition)
	assert.Equal(t, b, ignoreEdge.Target)
}

func TestCompileOptionalHeadHasProceedButNoDeathEdge(t *testing.T) {
	chain, err := pattern.Begin("a").Optional().FollowedBy("b").Build()
	require.NoError(t, err)

	auto, err := Compile(chain, false)
	require.NoError(t, err)

	require.Equal(t, "a", auto.Start.Name)
	require.Len(t, auto.Start.Edges, 2)

	var sawProceed bool
	for _, e := range auto.Start.Edges {
		if e.Action == nfa.Proceed {
			sawProceed = true
			assert.Equal(t, "b", e.Target.Name)
		}
	}
	assert.True(t, sawProceed)
}

func TestCompileOneOrMoreOptionalHasThreeEdgesOnEntry(t *testing.T) {
	chain, err := pattern.Begin("a").FollowedByAny("m").OneOrMore().AllowCombinations().Optional().Build()
	require.NoError(t, err)

	auto, err := Compile(chain, false)
	require.NoError(t, err)

	entry := auto.Start.Edges[0].Target
	assert.Equal(t, "m", entry.Name)

	var takes, proceeds, ignores int
	for _, e := range entry.Edges {
		switch e.Action {
		case nfa.Take:
			takes++
		case nfa.Proceed:
			proceeds++
		case nfa.Ignore:
			ignores++
		}
	}
	assert.Equal(t, 1, takes)
	assert.Equal(t, 1, proceeds, "optional zero-occurrence exit")
	assert.Equal(t, 1, ignores, "skip-till-any junction into the group")
}

func TestCompileTimesChainsExactCopies(t *testing.T) {
	chain, err := pattern.Begin("a").FollowedBy("m").Times(3).Consecutive().Build()
	require.NoError(t, err)

	auto, err := Compile(chain, false)
	require.NoError(t, err)

	var copies int
	for _, s := range auto.States {
		if s.Name == "m" {
			copies++
		}
	}
	assert.Equal(t, 3, copies)
}

func TestCompileWindowCarriesThrough(t *testing.T) {
	chain, err := pattern.Begin("a").FollowedBy("b").Within(50).Build()
	require.NoError(t, err)

	auto, err := Compile(chain, true)
	require.NoError(t, err)
	assert.True(t, auto.HasWindow)
	assert.EqualValues(t, 50, auto.Window)
	assert.True(t, auto.HandleTimeouts)
}

func TestCompileRejectsDuplicateStageNames(t *testing.T) {
	chain, err := pattern.Begin("a").FollowedBy("a").Build()
	require.NoError(t, err)

	_, err = Compile(chain, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cep.ErrInvalidPattern))
}

func TestCompileRejectsEmptyChain(t *testing.T) {
	_, err := Compile(&pattern.Chain{Window: -1}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cep.ErrInvalidPattern))
}
