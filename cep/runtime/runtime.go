// Package runtime interprets a compiled nfa.Automaton against a stream
// of timestamped events, maintaining the live computation states and
// the shared buffer they reference. Grounded on the single-threaded,
// step-driven evaluation loop in datalog/executor/relation.go, adapted
// from "evaluate a static relation" to "advance a population of live
// automaton branches by one event."
package runtime

import (
	"fmt"
	"sort"

	"github.com/wbrown/janus-cep/cep"
	"github.com/wbrown/janus-cep/cep/buffer"
	"github.com/wbrown/janus-cep/cep/cond"
	"github.com/wbrown/janus-cep/cep/event"
	"github.com/wbrown/janus-cep/cep/nfa"
	"github.com/wbrown/janus-cep/cep/trace"
	"github.com/wbrown/janus-cep/cep/version"
)

// computation is one live branch of automaton interpretation.
type computation struct {
	state   *nfa.State
	node    buffer.EntryID // current position in the shared buffer; zero value means "no event taken yet"
	hasNode bool
	ver     version.Number
	start   int64 // timestamp of the event that started this computation
}

// Match is one completed pattern match, in stage order.
type Match struct {
	Stages []buffer.Stage
	// version is the completing computation's Dewey version, used only
	// to order matches deterministically against others sharing the
	// same start time.
	version version.Number
}

// StageMap groups Stages by stage name, preserving per-stage order --
// the "mapping from stage name to an ordered list of events taken at
// that stage" shape the runtime API exposes matches in.
func (m Match) StageMap() map[string][]event.Wrapper {
	return stageMap(m.Stages)
}

// Timeout is one partial match that aged out of the window without
// completing.
type Timeout struct {
	Stages  []buffer.Stage
	version version.Number
}

// StageMap groups Stages by stage name; see Match.StageMap.
func (t Timeout) StageMap() map[string][]event.Wrapper {
	return stageMap(t.Stages)
}

func stageMap(stages []buffer.Stage) map[string][]event.Wrapper {
	out := make(map[string][]event.Wrapper, len(stages))
	for _, s := range stages {
		out[s.Name] = append(out[s.Name], s.Event)
	}
	return out
}

// Options configures a Runtime.
type Options struct {
	// MaxComputations ceilings the number of live computation states.
	// Zero means unbounded.
	MaxComputations int

	// Trace, when non-nil, is notified of every computation lifecycle
	// event (start injection, branch, stop, timeout, match) as Process
	// works through an event. When left nil, emit discards each event.
	Trace trace.Handler
}

// emit notifies opts.Trace, if any, of ev.
func (r *Runtime) emit(ev trace.Event) {
	if r.opts.Trace != nil {
		r.opts.Trace(ev)
	}
}

// Runtime drives one compiled Automaton over a single event stream.
type Runtime struct {
	auto *nfa.Automaton
	opts Options

	buf        *buffer.Buffer
	live       []*computation
	lastTS     int64
	haveLastTS bool
}

// New builds a Runtime for auto.
func New(auto *nfa.Automaton, opts Options) *Runtime {
	return &Runtime{
		auto: auto,
		opts: opts,
		buf:  buffer.New(),
	}
}

// IsEmpty reports whether the runtime holds no live computations and
// an empty shared buffer -- it has fully drained.
func (r *Runtime) IsEmpty() bool {
	return len(r.live) == 0 && r.buf.IsEmpty()
}

// Process advances the runtime by one event, returning every match
// completed and (if the automaton was compiled with timeouts enabled)
// every partial match that expired as a result of this event's
// timestamp, both in the deterministic order spec.md §5 requires:
// ascending start time, then ascending Dewey-version order, then
// buffer/insertion order.
//
// Process implements the roll-back behaviour required of condition
// errors: if a user Condition returns an error while processing w, any
// buffer writes made for w so far are undone and the error is returned
// with no other visible state change.
func (r *Runtime) Process(w event.Wrapper) ([]Match, []Timeout, error) {
	if r.haveLastTS && w.Timestamp < r.lastTS {
		return nil, nil, fmt.Errorf("%w: got %d after %d", cep.ErrTimeRegression, w.Timestamp, r.lastTS)
	}
	prevLive, prevTS, prevHaveTS := r.live, r.lastTS, r.haveLastTS
	prevHasNode := make([]bool, len(r.live))
	for i, c := range r.live {
		prevHasNode[i] = c.hasNode
	}
	r.lastTS = w.Timestamp
	r.haveLastTS = true

	r.buf.BeginTx()
	var timeouts []Timeout
	if r.auto.HasWindow {
		timeouts = r.expireWindow(w.Timestamp)
	}
	next, matches, err := r.step(w)
	if err != nil {
		r.buf.RollbackTx()
		r.live, r.lastTS, r.haveLastTS = prevLive, prevTS, prevHaveTS
		for i, c := range prevLive {
			c.hasNode = prevHasNode[i]
		}
		return nil, nil, err
	}
	r.buf.CommitTx()

	for _, c := range r.live {
		if c.hasNode {
			r.buf.DecRef(c.node)
		}
	}
	r.live = next

	sortMatches(matches)
	sortTimeouts(timeouts)
	return matches, timeouts, nil
}

// Tick is the no-event maintenance step (process(⊥, timestamp) in
// spec terms): it runs window pruning alone, with no start injection
// or expansion, so a caller can reclaim a windowed runtime's buffer
// purely by the passage of time instead of needing another event to
// arrive. Tick still rejects a timestamp regression.
func (r *Runtime) Tick(timestamp int64) ([]Timeout, error) {
	if r.haveLastTS && timestamp < r.lastTS {
		return nil, fmt.Errorf("%w: got %d after %d", cep.ErrTimeRegression, timestamp, r.lastTS)
	}
	r.lastTS = timestamp
	r.haveLastTS = true

	if !r.auto.HasWindow {
		return nil, nil
	}
	timeouts := r.expireWindow(timestamp)
	sortTimeouts(timeouts)
	return timeouts, nil
}

// step runs one event through every live computation plus a freshly
// injected start-state computation, returning the surviving
// computations and any matches completed.
func (r *Runtime) step(w event.Wrapper) ([]*computation, []Match, error) {
	pending := make([]*computation, 0, len(r.live)+1)
	pending = append(pending, r.live...)
	started := &computation{state: r.auto.Start, ver: version.Initial(), start: w.Timestamp}
	pending = append(pending, started)
	r.emit(trace.Event{Kind: trace.Started, StateName: started.state.Name, Version: started.ver.String(), Timestamp: w.Timestamp, Event: w})

	var next []*computation
	var matches []Match

	for _, c := range pending {
		grown, done, err := r.advance(c, w)
		if err != nil {
			return nil, nil, err
		}
		next = append(next, grown...)
		matches = append(matches, done...)
	}

	if r.opts.MaxComputations > 0 && len(next) > r.opts.MaxComputations {
		return nil, nil, fmt.Errorf("%w: %d live computations exceeds ceiling %d", cep.ErrStateOverflow, len(next), r.opts.MaxComputations)
	}
	return next, matches, nil
}

// advance evaluates every edge out of c.state against w, producing the
// set of successor computations this single input produces. TAKE and
// IGNORE edges consume or skip w respectively; PROCEED edges are
// epsilon transitions chased without consuming w, so advance recurses
// through them synchronously. Edges are evaluated up front so the
// number of edges that actually fire is known before any computation
// is forked: a lone survivor simply extends c's version (Increase), a
// multi-way split forks each survivor into its own nested branch
// (AddStage) so their future version labels can never collide.
func (r *Runtime) advance(c *computation, w event.Wrapper) ([]*computation, []Match, error) {
	var fired []nfa.Edge
	for _, e := range c.state.Edges {
		if e.Action == nfa.Proceed {
			fired = append(fired, e)
			continue
		}
		ok, err := cond.Evaluate(e.Condition, w)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", cep.ErrConditionFailed, err)
		}
		if ok {
			fired = append(fired, e)
		}
	}
	branch := len(fired) > 1
	sort.SliceStable(fired, func(i, j int) bool { return actionPriority(fired[i].Action) < actionPriority(fired[j].Action) })
	if branch {
		r.emit(trace.Event{Kind: trace.Branched, StateName: c.state.Name, Version: c.ver.String(), Timestamp: w.Timestamp, Event: w})
	}

	var next []*computation
	var matches []Match

	for _, e := range fired {
		switch e.Action {
		case nfa.Take:
			child := r.fork(c, branch)
			id := r.takeInto(child, c.state.Name, w)
			child.state = e.Target
			child.hasNode = true
			child.node = id
			if e.Target.Kind == nfa.Final {
				stages, err := r.extract(child)
				if err != nil {
					return nil, nil, err
				}
				for _, s := range stages {
					matches = append(matches, Match{Stages: s, version: child.ver})
					r.emit(trace.Event{Kind: trace.Matched, StateName: e.Target.Name, Version: child.ver.String(), Timestamp: w.Timestamp, Event: w, StageMap: stageMap(s)})
				}
				r.release(child)
				continue
			}
			next = append(next, child)

		case nfa.Ignore:
			if e.Target.Kind == nfa.Stop {
				r.emit(trace.Event{Kind: trace.Stopped, StateName: c.state.Name, Version: c.ver.String(), Timestamp: w.Timestamp, Event: w})
				continue
			}
			child := r.fork(c, branch)
			child.state = e.Target
			next = append(next, child)

		case nfa.Proceed:
			child := r.fork(c, branch)
			child.state = e.Target
			grown, done, err := r.advance(child, w)
			if err != nil {
				return nil, nil, err
			}
			next = append(next, grown...)
			matches = append(matches, done...)
		}
	}
	return next, matches, nil
}

// actionPriority orders edges for the tie-break spec.md §4.1 gives:
// try PROCEED first (branch into "skip this stage"), then TAKE (branch
// into "take this event"), then IGNORE (branch into "stay, do not
// consume"). Firing order only affects the insertion-order tie-break
// matchLess falls back to when start time and version both agree; it
// never changes which matches are found.
func actionPriority(a nfa.Action) int {
	switch a {
	case nfa.Proceed:
		return 0
	case nfa.Take:
		return 1
	default: // nfa.Ignore
		return 2
	}
}

// fork produces a successor computation state from c. When branch is
// true the successor gets a nested version (AddStage) so its future
// labels never collide with a sibling also descending from c for this
// same event; otherwise it keeps c's version unchanged.
func (r *Runtime) fork(c *computation, branch bool) *computation {
	v := c.ver
	if branch {
		v = v.AddStage()
	}
	child := &computation{ver: v, start: c.start, node: c.node, hasNode: c.hasNode}
	if c.hasNode {
		r.buf.IncRef(c.node)
	}
	return child
}

// takeInto appends w to the shared buffer under stage, as a child of
// c's current node (or as a fresh root if c has none yet), labels the
// edge with c's version increased by one, and returns the new entry.
func (r *Runtime) takeInto(c *computation, stage string, w event.Wrapper) buffer.EntryID {
	c.ver = c.ver.Increase()
	if !c.hasNode {
		id := r.buf.Put(stage, w, nil, nil)
		r.buf.IncRef(id)
		return id
	}
	parent := c.node
	id := r.buf.Put(stage, w, []buffer.EntryID{parent}, []version.Number{c.ver})
	r.buf.IncRef(id)
	r.buf.DecRef(parent) // the computation's pointer reference moves from parent onto id
	return id
}

// release drops a computation's hold on the buffer for good, used when
// it dies (hit __stop) or completes (hit __final, after extraction).
func (r *Runtime) release(c *computation) {
	if c.hasNode {
		r.buf.DecRef(c.node)
		c.hasNode = false
	}
}

// extract reads every completed match path ending at c's current node.
func (r *Runtime) extract(c *computation) ([][]buffer.Stage, error) {
	if !c.hasNode {
		return nil, nil
	}
	return r.buf.ExtractPatches(c.node, c.ver)
}

// expireWindow removes every live computation whose start time now
// falls outside the automaton's window, extracting their partial
// matches as timeouts before releasing their buffer references, then
// prunes the buffer of anything that falls below the new cutoff.
//
// A computation survives only while now-c.start is strictly less than
// the window: a branch whose elapsed span reaches the window exactly
// is treated as expired rather than allowed one more event. This
// reads the window as an open interval, which is what makes spec.md's
// worked window example resolve to a single surviving branch (the one
// whose span is strictly inside the window) instead of two branches
// tying at the boundary.
func (r *Runtime) expireWindow(now int64) []Timeout {
	cutoff := now - r.auto.Window
	var alive []*computation
	var timeouts []Timeout

	for _, c := range r.live {
		if c.start > cutoff {
			alive = append(alive, c)
			continue
		}
		if r.auto.HandleTimeouts {
			if paths, err := r.extract(c); err == nil {
				for _, p := range paths {
					timeouts = append(timeouts, Timeout{Stages: p, version: c.ver})
					r.emit(trace.Event{Kind: trace.TimedOut, StateName: c.state.Name, Version: c.ver.String(), Timestamp: now, StageMap: stageMap(p)})
				}
			}
		}
		r.release(c)
	}
	r.live = alive
	r.buf.Prune(cutoff)
	return timeouts
}

// Snapshot captures enough runtime state (buffer plus live computation
// descriptors) to resume processing later via cep/persist.
type Snapshot struct {
	Buffer buffer.Snapshot
	Live   []ComputationSnapshot
	LastTS int64
	HaveTS bool
}

// ComputationSnapshot is the gob-serializable form of one live
// computation. StateName identifies the nfa.State by name; Restore
// callers must look it up against the same compiled Automaton.
type ComputationSnapshot struct {
	StateName string
	Node      buffer.EntryID
	HasNode   bool
	Version   version.Number
	Start     int64
}

// Snapshot captures the runtime's current state.
func (r *Runtime) Snapshot() Snapshot {
	snap := Snapshot{Buffer: r.buf.Snapshot(), LastTS: r.lastTS, HaveTS: r.haveLastTS}
	for _, c := range r.live {
		snap.Live = append(snap.Live, ComputationSnapshot{
			StateName: c.state.Name,
			Node:      c.node,
			HasNode:   c.hasNode,
			Version:   c.ver,
			Start:     c.start,
		})
	}
	return snap
}

// Restore rebuilds a Runtime for auto from a Snapshot taken by
// Snapshot. The automaton must be the same one (or a structurally
// identical recompile of the same pattern) used to take the snapshot.
func Restore(auto *nfa.Automaton, opts Options, snap Snapshot) (*Runtime, error) {
	r := New(auto, opts)
	r.buf = buffer.Restore(snap.Buffer)
	r.lastTS = snap.LastTS
	r.haveLastTS = snap.HaveTS

	byName := make(map[string]*nfa.State, len(auto.States))
	for _, s := range auto.States {
		byName[s.Name] = s
	}
	for _, cs := range snap.Live {
		s, ok := byName[cs.StateName]
		if !ok {
			return nil, fmt.Errorf("cep/runtime: snapshot references unknown state %q", cs.StateName)
		}
		r.live = append(r.live, &computation{
			state: s, node: cs.Node, hasNode: cs.HasNode, ver: cs.Version, start: cs.Start,
		})
	}
	return r, nil
}

func sortMatches(m []Match) {
	sort.SliceStable(m, func(i, j int) bool {
		return matchLess(m[i].Stages, m[i].version, m[j].Stages, m[j].version)
	})
}

func sortTimeouts(t []Timeout) {
	sort.SliceStable(t, func(i, j int) bool {
		return matchLess(t[i].Stages, t[i].version, t[j].Stages, t[j].version)
	})
}

// matchLess orders two stage paths by start time, then by ascending
// Dewey-version order, then (for paths forked from a single id with
// an identical version, which ExtractPatches enumerates in a fixed
// order) falls back to buffer/insertion order -- per spec.md §5, the
// total order sort.SliceStable's stability already provides once the
// first two keys tie.
func matchLess(a []buffer.Stage, av version.Number, b []buffer.Stage, bv version.Number) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) < len(b)
	}
	if a[0].Event.Timestamp != b[0].Event.Timestamp {
		return a[0].Event.Timestamp < b[0].Event.Timestamp
	}
	return av.Compare(bv) < 0
}
