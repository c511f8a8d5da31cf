// Package event defines the envelope the rest of the engine passes
// events around in. The engine treats the event payload itself as an
// opaque value; user code supplies equality, hashing, cloning and
// serialization for it the same way datalog.Value treats a Value as
// "any Go type that can be stored in a Datom."
package event

import "fmt"

// Event is a user-supplied event value. The engine never inspects its
// shape directly; conditions (package cep/cond) are the only code that
// looks inside it.
type Event interface{}

// Wrapper pairs an event with its logical timestamp. Timestamps are
// monotonic but not required to be unique.
type Wrapper struct {
	Event     Event
	Timestamp int64
}

// New builds a Wrapper for e at timestamp ts.
func New(e Event, ts int64) Wrapper {
	return Wrapper{Event: e, Timestamp: ts}
}

// String renders a compact representation for logs and traces.
func (w Wrapper) String() string {
	return fmt.Sprintf("%v@%d", w.Event, w.Timestamp)
}
