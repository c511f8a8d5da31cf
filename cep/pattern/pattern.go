// Package pattern is the Pattern AST: an ordered chain of named stages
// with conditions, continuity, quantifier and inner-continuity
// modifiers, plus an optional whole-chain window. Grounded on the
// ordered, typed clause chain in datalog/query/clause.go and
// datalog/query/types.go, assembled the way datalog/planner assembles
// a validated execution plan from a clause list.
package pattern

import "github.com/wbrown/janus-cep/cep/cond"

// Continuity governs how events between two consecutive stages (or
// between repeats within a quantified group) are treated.
type Continuity int

const (
	// Strict requires the very next event to satisfy the condition;
	// anything else kills the branch.
	Strict Continuity = iota
	// SkipTillNext (followedBy) skips non-matching events, taking the
	// first one that satisfies the condition.
	SkipTillNext
	// SkipTillAny (followedByAny) skips non-matching events but also
	// branches on every matching one, so every combination survives.
	SkipTillAny
)

func (c Continuity) String() string {
	switch c {
	case Strict:
		return "strict"
	case SkipTillAny:
		return "skip-till-any"
	default:
		return "skip-till-next"
	}
}

// Quantifier is the repetition modifier on a single stage.
type Quantifier int

const (
	// Single matches the stage exactly once (the default).
	Single Quantifier = iota
	// Times matches the stage exactly Stage.Times times.
	Times
	// OneOrMore matches the stage one or more times.
	OneOrMore
	// Optional matches the stage zero or one times.
	Optional
	// OneOrMoreOptional matches the stage zero or more times --
	// .oneOrMore().optional().
	OneOrMoreOptional
)

// Stage is one named position in the pattern chain.
type Stage struct {
	Name      string
	Condition cond.Condition

	// Continuity is the continuity of the junction FROM the previous
	// stage INTO this one. Meaningless for the first stage (there is
	// no previous junction).
	Continuity Continuity

	Quantifier Quantifier
	// Times is only meaningful when Quantifier == Times.
	Times int

	// InnerContinuity governs transitions between repeated
	// occurrences within a quantified group (Times, OneOrMore,
	// OneOrMoreOptional). Meaningless for Single/Optional.
	InnerContinuity Continuity
}

// Chain is a complete pattern: an ordered stage list plus an optional
// window. Window < 0 means "no window".
type Chain struct {
	Stages []Stage
	// Window is expressed in the same integer time unit as the
	// timestamps Runtime.Process is called with (spec.md models time
	// as t in Z, not wall-clock duration), so it is a plain int64
	// tick count rather than a time.Duration. Window < 0 means "no
	// window was attached to this chain".
	Window int64
}

// HasWindow reports whether a .within(...) clause was attached.
func (c *Chain) HasWindow() bool {
	return c.Window >= 0
}
