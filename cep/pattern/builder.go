package pattern

import (
	"fmt"

	"github.com/wbrown/janus-cep/cep"
	"github.com/wbrown/janus-cep/cep/cond"
	"github.com/wbrown/janus-cep/cep/event"
)

// Builder assembles a Chain fluently, mirroring the external pattern
// builder interface from the spec: Begin/Where/Subtype/Next/
// FollowedBy/FollowedByAny/Optional/Times/OneOrMore/Consecutive/
// AllowCombinations/Within.
type Builder struct {
	chain Chain
	err   error
}

// Begin opens a new pattern chain with its first (head) stage.
func Begin(name string) *Builder {
	return &Builder{chain: Chain{
		Stages: []Stage{{Name: name, Quantifier: Single}},
		Window: -1,
	}}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) last() *Stage {
	return &b.chain.Stages[len(b.chain.Stages)-1]
}

// Where ANDs an additional predicate onto the current stage.
func (b *Builder) Where(c cond.Condition) *Builder {
	if b.err != nil {
		return b
	}
	s := b.last()
	s.Condition = cond.And(s.Condition, c)
	return b
}

// Subtype ANDs a type filter onto the current stage.
func (b *Builder) Subtype(sample event.Event) *Builder {
	return b.Where(cond.Subtype(sample))
}

// Next opens a new stage with strict continuity.
func (b *Builder) Next(name string) *Builder { return b.addStage(name, Strict) }

// FollowedBy opens a new stage with skip-till-next continuity.
func (b *Builder) FollowedBy(name string) *Builder { return b.addStage(name, SkipTillNext) }

// FollowedByAny opens a new stage with skip-till-any continuity.
func (b *Builder) FollowedByAny(name string) *Builder { return b.addStage(name, SkipTillAny) }

func (b *Builder) addStage(name string, cont Continuity) *Builder {
	if b.err != nil {
		return b
	}
	b.chain.Stages = append(b.chain.Stages, Stage{Name: name, Continuity: cont, Quantifier: Single})
	return b
}

// Optional sets the current stage's quantifier to "zero or one", or
// "zero or more" if it was already OneOrMore (oneOrMore().optional()).
func (b *Builder) Optional() *Builder {
	if b.err != nil {
		return b
	}
	s := b.last()
	switch s.Quantifier {
	case OneOrMore:
		s.Quantifier = OneOrMoreOptional
	case Times:
		return b.fail(fmt.Errorf("%w: optional() cannot follow times() on stage %q", cep.ErrInvalidPattern, s.Name))
	default:
		s.Quantifier = Optional
	}
	return b
}

// Times sets the current stage's quantifier to "exactly n".
func (b *Builder) Times(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		return b.fail(fmt.Errorf("%w: times(%d) must be positive on stage %q", cep.ErrInvalidPattern, n, b.last().Name))
	}
	s := b.last()
	s.Quantifier = Times
	s.Times = n
	return b
}

// OneOrMore sets the current stage's quantifier to "one or more", or
// "zero or more" if Optional was already applied.
func (b *Builder) OneOrMore() *Builder {
	if b.err != nil {
		return b
	}
	s := b.last()
	switch s.Quantifier {
	case Optional:
		s.Quantifier = OneOrMoreOptional
	default:
		s.Quantifier = OneOrMore
	}
	return b
}

// Consecutive sets the current stage's inner continuity to strict.
func (b *Builder) Consecutive() *Builder {
	if b.err != nil {
		return b
	}
	b.last().InnerContinuity = Strict
	return b
}

// AllowCombinations sets the current stage's inner continuity to
// skip-till-any.
func (b *Builder) AllowCombinations() *Builder {
	if b.err != nil {
		return b
	}
	b.last().InnerContinuity = SkipTillAny
	return b
}

// Within attaches a window (in the same integer time unit as event
// timestamps) to the whole chain.
func (b *Builder) Within(window int64) *Builder {
	if b.err != nil {
		return b
	}
	if window < 0 {
		return b.fail(fmt.Errorf("%w: window must be >= 0", cep.ErrInvalidPattern))
	}
	b.chain.Window = window
	return b
}

// Build finalizes the chain, returning any error accumulated during
// construction.
func (b *Builder) Build() (*Chain, error) {
	if b.err != nil {
		return nil, b.err
	}
	chain := b.chain
	chain.Stages = append([]Stage(nil), b.chain.Stages...)
	return &chain, nil
}
