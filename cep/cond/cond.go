// Package cond implements the Condition layer: pure predicates over an
// event.Wrapper, including the typed (subtype) and composite (AND)
// forms the pattern builder exposes via Where/Subtype. Conditions are
// treated as opaque user lambdas, grounded on the way datalog/query
// treats Function/Predicate values as external, pure, unreorderable
// black boxes.
package cond

import (
	"fmt"
	"reflect"

	"github.com/wbrown/janus-cep/cep/event"
)

// Condition is a pure predicate over an event. Implementations must not
// have side effects and must not depend on evaluation order; the
// compiler and runtime are free to evaluate a condition zero or more
// times per event.
type Condition interface {
	Evaluate(w event.Wrapper) (bool, error)
}

// Func adapts a plain function to Condition.
type Func func(event.Wrapper) (bool, error)

// Evaluate calls f.
func (f Func) Evaluate(w event.Wrapper) (bool, error) { return f(w) }

// Simple adapts a function that cannot fail.
func Simple(f func(event.Wrapper) bool) Condition {
	return Func(func(w event.Wrapper) (bool, error) { return f(w), nil })
}

// And composes conditions with logical AND, short-circuiting on the
// first false or erroring predicate. Used by Builder.Where to combine
// multiple predicates added to the same stage.
func And(conds ...Condition) Condition {
	filtered := conds[:0:0]
	for _, c := range conds {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return Func(func(w event.Wrapper) (bool, error) {
		for _, c := range filtered {
			ok, err := c.Evaluate(w)
			if err != nil {
				return false, fmt.Errorf("cond: AND predicate failed: %w", err)
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	})
}

// Not negates a condition. A nil condition is treated as "always
// true", so Not(nil) is "always false" -- used by the compiler to
// build the strict-continuity dead edge (fires only when the stage
// condition itself does not hold).
func Not(c Condition) Condition {
	if c == nil {
		return Simple(func(event.Wrapper) bool { return false })
	}
	return Func(func(w event.Wrapper) (bool, error) {
		ok, err := c.Evaluate(w)
		if err != nil {
			return false, err
		}
		return !ok, nil
	})
}

// Subtype accepts only events whose dynamic type matches sample's.
// Mirrors the "subtype filter" condition kind from the pattern
// builder's .subtype(T).
func Subtype(sample event.Event) Condition {
	want := reflect.TypeOf(sample)
	return Func(func(w event.Wrapper) (bool, error) {
		if w.Event == nil {
			return want == nil, nil
		}
		return reflect.TypeOf(w.Event) == want, nil
	})
}

// Evaluate runs c against w, treating a nil condition as always-true
// (an unconditioned stage).
func Evaluate(c Condition, w event.Wrapper) (bool, error) {
	if c == nil {
		return true, nil
	}
	return c.Evaluate(w)
}
