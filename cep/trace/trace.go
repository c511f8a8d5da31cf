// Package trace is the runtime's optional diagnostic channel: a
// Handler notified of start-injection, branch, stop, timeout and
// final-match events as Runtime.Process works through one event.
// Grounded on datalog/annotations' Event/Handler pair, adapted from
// "query phases and joins" to "computation lifecycle events."
package trace

import "github.com/wbrown/janus-cep/cep/event"

// Kind names one lifecycle event a Runtime can report.
type Kind int

const (
	// Started marks a fresh computation injected at a Start state.
	Started Kind = iota
	// Branched marks a computation forking into siblings (skip-till-any
	// or a quantifier producing more than one surviving edge).
	Branched
	// Stopped marks a computation reaching __stop and being dropped.
	Stopped
	// TimedOut marks a computation pruned by the window.
	TimedOut
	// Matched marks a computation reaching __final and emitting a match.
	Matched
)

func (k Kind) String() string {
	switch k {
	case Started:
		return "started"
	case Branched:
		return "branched"
	case Stopped:
		return "stopped"
	case TimedOut:
		return "timed-out"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification.
type Event struct {
	Kind      Kind
	StateName string
	Version   string // Dewey version rendered via version.Number.String()
	Timestamp int64
	Event     event.Wrapper // the triggering event; zero value for TimedOut
	StageMap  map[string][]event.Wrapper // populated only for Matched/TimedOut
}

// Handler processes trace events as they occur. A nil Handler is the
// default: the runtime still builds each Event but discards it without
// calling anything.
type Handler func(Event)
