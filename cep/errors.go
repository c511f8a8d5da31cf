// Package cep holds the sentinel errors and small cross-package types
// shared by the compiler, buffer and runtime packages.
package cep

import "errors"

// ErrInvalidPattern is returned by the compiler when a pattern chain is
// structurally unsound: an empty chain, a duplicate stage name, a
// negative window, or a malformed quantifier.
var ErrInvalidPattern = errors.New("cep: invalid pattern")

// ErrConditionFailed wraps an error returned by a user predicate. The
// runtime surfaces it to the caller after rolling back the buffer
// writes made so far for the event being processed.
var ErrConditionFailed = errors.New("cep: condition evaluation failed")

// ErrTimeRegression is returned when Process is called with a
// timestamp strictly less than the last accepted timestamp.
var ErrTimeRegression = errors.New("cep: timestamp regression")

// ErrStateOverflow is returned when the number of live computation
// states would exceed the runtime's configured ceiling. The engine
// fails loudly rather than silently dropping branches.
var ErrStateOverflow = errors.New("cep: computation state ceiling exceeded")

// ErrUnknownEntry indicates a shared-buffer invariant violation: an
// entry id referenced by a live computation or edge no longer exists
// in the arena. This is always an engine bug, never a user error.
var ErrUnknownEntry = errors.New("cep: unknown shared buffer entry")
