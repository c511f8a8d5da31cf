package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSimpleChain(t *testing.T) {
	chain, err := Begin("s").FollowedBy("e").Build()
	require.NoError(t, err)
	require.Len(t, chain.Stages, 2)

	assert.Equal(t, "s", chain.Stages[0].Name)
	assert.Equal(t, Single, chain.Stages[0].Quantifier)

	assert.Equal(t, "e", chain.Stages[1].Name)
	assert.Equal(t, SkipTillNext, chain.Stages[1].Continuity)
	assert.False(t, chain.HasWindow())
}

func TestBuilderWindow(t *testing.T) {
	chain, err := Begin("start").FollowedBy("middle").FollowedBy("end").Within(10).Build()
	require.NoError(t, err)
	assert.True(t, chain.HasWindow())
	assert.EqualValues(t, 10, chain.Window)
}

func TestBuilderOneOrMoreThenOptional(t *testing.T) {
	chain, err := Begin("m").FollowedByAny("e").OneOrMore().AllowCombinations().Optional().Build()
	require.NoError(t, err)
	require.Len(t, chain.Stages, 2)
	assert.Equal(t, OneOrMoreOptional, chain.Stages[1].Quantifier)
	assert.Equal(t, SkipTillAny, chain.Stages[1].InnerContinuity)
}

func TestBuilderTimesRejectsNonPositive(t *testing.T) {
	_, err := Begin("s").Times(0).Build()
	assert.Error(t, err)
}

func TestBuilderTimesThenOptionalIsInvalid(t *testing.T) {
	_, err := Begin("s").Times(3).Optional().Build()
	assert.Error(t, err)
}

func TestBuilderNegativeWindowIsInvalid(t *testing.T) {
	_, err := Begin("s").Within(-1).Build()
	assert.Error(t, err)
}
