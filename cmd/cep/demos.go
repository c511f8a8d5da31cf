package main

import (
	"fmt"

	"github.com/wbrown/janus-cep/cep/event"
	"github.com/wbrown/janus-cep/cep/pattern"
)

// builtinDemo returns the pattern, event stream and handleTimeouts
// setting for one of spec.md §8's worked end-to-end scenarios, keyed
// by a short name.
func builtinDemo(name string) (*pattern.Chain, []event.Wrapper, bool, error) {
	switch name {
	case "followedby":
		chain, err := pattern.Begin("s").FollowedBy("e").Build()
		return chain, seq("a", "b", "c", "d", "e"), false, err

	case "followedbyany":
		chain, err := pattern.Begin("s").FollowedByAny("e").Build()
		return chain, seq("a", "b", "c", "d", "e"), false, err

	case "strict":
		chain, err := pattern.Begin("m").Where(matchCond("a")).Next("e").Where(matchCond("b")).Build()
		return chain, seq("a", "c", "b"), false, err

	case "window":
		chain, err := pattern.Begin("start").Where(matchCond("start")).
			FollowedBy("middle").Where(matchCond("middle")).
			FollowedBy("end").Where(matchCond("end")).
			Within(10).
			Build()
		events := []event.Wrapper{
			event.New(namedEvent{"start"}, 1),
			event.New(namedEvent{"start"}, 2),
			event.New(namedEvent{"middle"}, 3),
			event.New(namedEvent{"foobar"}, 4),
			event.New(namedEvent{"end"}, 11),
			event.New(namedEvent{"end"}, 13),
		}
		return chain, events, true, err

	case "oneormore":
		chain, err := pattern.Begin("s").Where(matchCond("c")).
			FollowedByAny("m").Where(matchCond("a")).OneOrMore().AllowCombinations().
			FollowedBy("e").Where(matchCond("b")).
			Build()
		events := []event.Wrapper{
			event.New(namedEvent{"c"}, 1),
			event.New(namedEvent{"a"}, 3),
			event.New(namedEvent{"a"}, 4),
			event.New(namedEvent{"a"}, 5),
			event.New(namedEvent{"b"}, 6),
		}
		return chain, events, false, err

	case "zeroormore":
		chain, err := pattern.Begin("m").Where(matchCond("a")).OneOrMore().Optional().
			FollowedBy("e").Where(matchCond("b")).
			Build()
		events := []event.Wrapper{
			event.New(namedEvent{"a"}, 3),
			event.New(namedEvent{"a"}, 4),
			event.New(namedEvent{"a"}, 5),
			event.New(namedEvent{"b"}, 6),
		}
		return chain, events, false, err

	default:
		return nil, nil, false, fmt.Errorf("unknown demo %q (want one of followedby|followedbyany|strict|window|oneormore|zeroormore)", name)
	}
}

// seq builds a timestamped event stream from names, one per tick
// starting at t=1, the shape every simple worked scenario in spec.md
// §8 uses.
func seq(names ...string) []event.Wrapper {
	out := make([]event.Wrapper, len(names))
	for i, n := range names {
		out[i] = event.New(namedEvent{n}, int64(i+1))
	}
	return out
}
