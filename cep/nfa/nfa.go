// Package nfa defines the compiled automaton types: states, edges and
// the three edge actions (TAKE, IGNORE, PROCEED). The compiler package
// builds Automaton values; the runtime package interprets them.
package nfa

import "github.com/wbrown/janus-cep/cep/cond"

// Kind classifies a State.
type Kind int

const (
	// Normal is a mid-chain state.
	Normal Kind = iota
	// Start is the entry point for a fresh computation; the runtime
	// injects one candidate computation at a Start state per event.
	Start
	// Final marks a completed match; reaching it destroys the
	// computation and emits its extracted match.
	Final
	// Stop is the automaton's single dead-end; reaching it destroys
	// the computation with nothing emitted.
	Stop
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "Start"
	case Final:
		return "Final"
	case Stop:
		return "Stop"
	default:
		return "Normal"
	}
}

// Action labels an Edge.
type Action int

const (
	// Take consumes the current event, appends it to the match under
	// the stage name of the state the edge leaves (the stage whose
	// condition gated it), and moves the computation state to the
	// target.
	Take Action = iota
	// Ignore does not consume the current event; it just moves (or
	// keeps) the computation state at the target, modelling
	// skip-till-next / skip-till-any and strict-continuity death.
	Ignore
	// Proceed is an epsilon transition: taken without an event,
	// modelling quantifier optionality and group exit.
	Proceed
)

func (a Action) String() string {
	switch a {
	case Take:
		return "TAKE"
	case Ignore:
		return "IGNORE"
	default:
		return "PROCEED"
	}
}

// Edge is one outgoing transition from a State.
type Edge struct {
	Target *State
	// Condition is evaluated against the current event for Take and
	// Ignore edges. A nil Condition is always-true. Proceed edges
	// never carry a condition: they're pure epsilon transitions.
	Condition cond.Condition
	Action    Action
}

// State is one node of the compiled automaton.
type State struct {
	// Name is the pattern stage this state belongs to, or a synthetic
	// name ("__stop", "__final") for the two terminal states.
	Name  string
	Kind  Kind
	Edges []Edge
}

// Automaton is a compiled pattern: states, edges, the start state, and
// the window/timeout configuration that applies to the whole chain.
type Automaton struct {
	States []*State
	Start  *State

	// HasWindow is false when the pattern carries no .within(...)
	// clause; Window is then meaningless.
	HasWindow bool
	Window    int64

	// HandleTimeouts mirrors the flag Compile was called with: when
	// true, window-expired partial matches are extracted and returned
	// as timeouts instead of being silently dropped.
	HandleTimeouts bool
}
