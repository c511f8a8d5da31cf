// Package compiler translates a pattern.Chain into an nfa.Automaton by
// folding the stage list right to left, as described by spec.md's
// stage-body and continuity rules. Grounded on the staged, validated
// compile pass in datalog/planner/planner.go, which turns a clause AST
// into an executable plan the same way this turns a stage chain into
// an executable automaton.
package compiler

import (
	"fmt"

	"github.com/wbrown/janus-cep/cep"
	"github.com/wbrown/janus-cep/cep/cond"
	"github.com/wbrown/janus-cep/cep/nfa"
	"github.com/wbrown/janus-cep/cep/pattern"
)

// Compile builds an Automaton from chain. handleTimeouts controls
// whether window-expired partial matches are extracted as timeouts at
// runtime.
func Compile(chain *pattern.Chain, handleTimeouts bool) (*nfa.Automaton, error) {
	if err := validate(chain); err != nil {
		return nil, err
	}

	stop := &nfa.State{Name: "__stop", Kind: nfa.Stop}
	final := &nfa.State{Name: "__final", Kind: nfa.Final}
	states := []*nfa.State{stop, final}

	next := final
	for i := len(chain.Stages) - 1; i >= 0; i-- {
		entry, produced := compileStage(chain.Stages[i], next, i == 0, stop)
		states = append(states, produced...)
		next = entry
	}

	auto := &nfa.Automaton{
		States:         states,
		Start:          next,
		HasWindow:      chain.HasWindow(),
		HandleTimeouts: handleTimeouts,
	}
	if auto.HasWindow {
		auto.Window = chain.Window
	}
	return auto, nil
}

// validate detects the InvalidPattern conditions named in spec.md §7:
// unreachable/duplicate stages, a negative window, and a malformed
// quantifier.
func validate(chain *pattern.Chain) error {
	if len(chain.Stages) == 0 {
		return fmt.Errorf("%w: empty stage chain", cep.ErrInvalidPattern)
	}
	if chain.Window < -1 {
		return fmt.Errorf("%w: negative window", cep.ErrInvalidPattern)
	}
	seen := make(map[string]bool, len(chain.Stages))
	for _, s := range chain.Stages {
		if s.Name == "" {
			return fmt.Errorf("%w: stage with empty name", cep.ErrInvalidPattern)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate stage name %q makes stages after the first occurrence unreachable", cep.ErrInvalidPattern, s.Name)
		}
		seen[s.Name] = true
		if s.Quantifier == pattern.Times && s.Times <= 0 {
			return fmt.Errorf("%w: stage %q has non-positive times() count", cep.ErrInvalidPattern, s.Name)
		}
	}
	return nil
}

// compileStage produces the entry state for one pattern stage plus any
// auxiliary states its quantifier needs, wiring its exit(s) to next.
func compileStage(stage pattern.Stage, next *nfa.State, isStart bool, stop *nfa.State) (*nfa.State, []*nfa.State) {
	kind := nfa.Normal
	if isStart {
		kind = nfa.Start
	}

	switch stage.Quantifier {
	case pattern.Optional:
		n := &nfa.State{Name: stage.Name, Kind: kind}
		n.Edges = append(n.Edges,
			nfa.Edge{Target: next, Condition: stage.Condition, Action: nfa.Take},
			nfa.Edge{Target: next, Action: nfa.Proceed},
		)
		if !isStart {
			attachContinuity(n, stage.Condition, stage.Continuity, stop)
		}
		return n, []*nfa.State{n}

	case pattern.Times:
		return compileTimes(stage, next, kind, isStart, stop)

	case pattern.OneOrMore, pattern.OneOrMoreOptional:
		return compileOneOrMore(stage, next, kind, isStart, stop)

	default: // pattern.Single
		n := &nfa.State{Name: stage.Name, Kind: kind}
		n.Edges = append(n.Edges, nfa.Edge{Target: next, Condition: stage.Condition, Action: nfa.Take})
		if !isStart {
			attachContinuity(n, stage.Condition, stage.Continuity, stop)
		}
		return n, []*nfa.State{n}
	}
}

// attachContinuity adds the extra edge(s) a state carries in addition
// to its TAKE edge, per the junction continuity into that state.
func attachContinuity(n *nfa.State, c cond.Condition, continuity pattern.Continuity, stop *nfa.State) {
	switch continuity {
	case pattern.Strict:
		n.Edges = append(n.Edges, nfa.Edge{Target: stop, Condition: cond.Not(c), Action: nfa.Ignore})
	case pattern.SkipTillNext:
		n.Edges = append(n.Edges, nfa.Edge{Target: n, Condition: cond.Not(c), Action: nfa.Ignore})
	case pattern.SkipTillAny:
		n.Edges = append(n.Edges, nfa.Edge{Target: n, Condition: nil, Action: nfa.Ignore})
	}
}

// compileTimes chains exactly stage.Times copies of stage.Name,
// junctions between copies governed by InnerContinuity, the first
// copy's junction governed by the stage's own (outer) Continuity.
func compileTimes(stage pattern.Stage, next *nfa.State, kind nfa.Kind, isStart bool, stop *nfa.State) (*nfa.State, []*nfa.State) {
	copies := make([]*nfa.State, stage.Times)
	target := next
	for i := stage.Times - 1; i >= 0; i-- {
		s := &nfa.State{Name: stage.Name, Kind: nfa.Normal}
		s.Edges = append(s.Edges, nfa.Edge{Target: target, Condition: stage.Condition, Action: nfa.Take})
		if i > 0 {
			attachContinuity(s, stage.Condition, stage.InnerContinuity, stop)
		}
		copies[i] = s
		target = s
	}
	copies[0].Kind = kind
	if !isStart {
		attachContinuity(copies[0], stage.Condition, stage.Continuity, stop)
	}
	return copies[0], copies
}

// compileOneOrMore builds the two-state Kleene-plus construction: an
// entry state requiring the first occurrence (junction governed by the
// stage's outer Continuity), and a loop state for repeats (junction
// governed by InnerContinuity) with a PROCEED exit to next. When the
// quantifier is OneOrMoreOptional, the entry state also gets a direct
// PROCEED to next, allowing zero occurrences.
func compileOneOrMore(stage pattern.Stage, next *nfa.State, kind nfa.Kind, isStart bool, stop *nfa.State) (*nfa.State, []*nfa.State) {
	loop := &nfa.State{Name: stage.Name, Kind: nfa.Normal}
	entry := &nfa.State{Name: stage.Name, Kind: kind}

	entry.Edges = append(entry.Edges, nfa.Edge{Target: loop, Condition: stage.Condition, Action: nfa.Take})
	loop.Edges = append(loop.Edges,
		nfa.Edge{Target: loop, Condition: stage.Condition, Action: nfa.Take},
		nfa.Edge{Target: next, Action: nfa.Proceed},
	)
	attachContinuity(loop, stage.Condition, stage.InnerContinuity, stop)

	if !isStart {
		attachContinuity(entry, stage.Condition, stage.Continuity, stop)
	}
	if stage.Quantifier == pattern.OneOrMoreOptional {
		entry.Edges = append(entry.Edges, nfa.Edge{Target: next, Action: nfa.Proceed})
	}

	return entry, []*nfa.State{entry, loop}
}
