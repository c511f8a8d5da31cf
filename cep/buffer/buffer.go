// Package buffer implements the Shared Buffer: a reference-counted,
// versioned DAG of consumed events that lets many live computations
// share the common prefixes of their partial matches instead of each
// copying its own. Grounded on the arena-style, reference-counted
// relation storage in datalog/executor/relation.go and the
// generation-keyed entry map in datalog/storage/badger_store.go,
// adapted here to a DAG of predecessor edges instead of a flat table.
package buffer

import (
	"fmt"
	"sort"

	"github.com/wbrown/janus-cep/cep"
	"github.com/wbrown/janus-cep/cep/event"
	"github.com/wbrown/janus-cep/cep/version"
)

// EntryID names one node in the buffer: the stage it was consumed
// into, plus a counter disambiguating repeated consumption into the
// same stage across the life of the buffer.
type EntryID struct {
	Stage   string
	Counter uint64
}

func (id EntryID) String() string {
	return fmt.Sprintf("%s#%d", id.Stage, id.Counter)
}

// predecessor is one versioned edge from an entry back to an earlier
// entry it was appended onto.
type predecessor struct {
	parent  EntryID
	version version.Number
}

type entry struct {
	event event.Wrapper
	refs  int
	out   []predecessor // edges to parents (this entry was appended after each, under its version)
}

// Buffer is the shared buffer of consumed events.
type Buffer struct {
	entries map[EntryID]*entry
	counter map[string]uint64 // next counter per stage

	tx *transaction // non-nil while a transaction is open
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{
		entries: make(map[EntryID]*entry),
		counter: make(map[string]uint64),
	}
}

// NextID returns the EntryID the next Put for stage will use, without
// creating an entry or advancing the stage's counter; callers use it
// to label an event before deciding whether to Put it.
func (b *Buffer) NextID(stage string) EntryID {
	return EntryID{Stage: stage, Counter: b.counter[stage]}
}

// Put creates a new entry for w under stage, appended onto parents
// (each under the version the branch that appended it carries). A nil
// parents slice (or a Put with no parents) marks a true root: the
// start of a fresh computation. Put returns the new entry's ID with
// refs=0; the caller must IncRef it (typically once per live
// computation referencing it as its current node).
func (b *Buffer) Put(stage string, w event.Wrapper, parents []EntryID, versions []version.Number) EntryID {
	if len(parents) != len(versions) {
		panic("buffer: Put parents/versions length mismatch")
	}
	id := EntryID{Stage: stage, Counter: b.counter[stage]}
	b.counter[stage]++

	e := &entry{event: w}
	for i, p := range parents {
		e.out = append(e.out, predecessor{parent: p, version: versions[i]})
		b.entries[p].refs++ // the new entry holds a reference to each parent
	}
	b.entries[id] = e
	return id
}

// IncRef adds one reference to id, typically because a new live
// computation now points at it as its current node.
func (b *Buffer) IncRef(id EntryID) {
	e, ok := b.entries[id]
	if !ok {
		return
	}
	e.refs++
}

// DecRef releases one reference to id. When the count reaches zero,
// the entry is removed and its references to its own parents are
// released in turn, recursively reclaiming any chain that becomes
// unreachable.
func (b *Buffer) DecRef(id EntryID) {
	e, ok := b.entries[id]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(b.entries, id)
	for _, p := range e.out {
		b.DecRef(p.parent)
	}
}

// IsEmpty reports whether the buffer holds no entries.
func (b *Buffer) IsEmpty() bool {
	return len(b.entries) == 0
}

// Event returns the event stored at id.
func (b *Buffer) Event(id EntryID) (event.Wrapper, bool) {
	e, ok := b.entries[id]
	if !ok {
		return event.Wrapper{}, false
	}
	return e.event, true
}

// Stage is a single extracted step of a match: the pattern stage name
// and the event taken for it.
type Stage struct {
	Name  string
	Event event.Wrapper
}

// ExtractPatches walks backward from id along predecessor edges
// compatible with v, returning every full path from a true root to id
// as an ordered stage list (root first). A path exists for every
// combination of version-compatible branch at each fork, matching
// spec.md's requirement that a SkipTillAny fork preserves every
// combination as a distinct match.
func (b *Buffer) ExtractPatches(id EntryID, v version.Number) ([][]Stage, error) {
	e, ok := b.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: entry %s", cep.ErrUnknownEntry, id)
	}

	self := Stage{Name: id.Stage, Event: e.event}

	if len(e.out) == 0 {
		// True root: no predecessors, so id itself is the whole path.
		return [][]Stage{{self}}, nil
	}

	var compatible []predecessor
	for _, p := range e.out {
		if p.version.IsCompatibleWith(v) || v.IsCompatibleWith(p.version) {
			compatible = append(compatible, p)
		}
	}
	if len(compatible) == 0 {
		// Dead end: no ancestor path survives under this version.
		return nil, nil
	}

	var paths [][]Stage
	for _, p := range compatible {
		parentPaths, err := b.ExtractPatches(p.parent, p.version)
		if err != nil {
			return nil, err
		}
		for _, pp := range parentPaths {
			path := append(append([]Stage(nil), pp...), self)
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Prune removes every entry whose event timestamp is strictly before
// cutoff and that is not (transitively) kept alive by a reference,
// implementing the window-based reclamation in spec.md §5. Entries
// still referenced survive even if old; DecRef chains triggered
// elsewhere are what eventually frees them.
func (b *Buffer) Prune(cutoff int64) {
	var dead []EntryID
	for id, e := range b.entries {
		if e.refs == 0 && e.event.Timestamp < cutoff {
			dead = append(dead, id)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].String() < dead[j].String() })
	for _, id := range dead {
		if _, ok := b.entries[id]; ok {
			delete(b.entries, id)
		}
	}
}

// transaction holds a deep copy of the buffer's state at BeginTx time.
// A condition evaluated while processing one event can both Put new
// entries and DecRef old ones (a computation that takes an event
// releases its hold on its previous node in the same breath), so
// undoing a transaction by replaying inverse operations would have to
// re-derive which DecRefs were "transfers" worth re-incrementing and
// which were final releases -- indistinguishable after the fact.
// Restoring a full prior snapshot sidesteps that entirely and is cheap
// at the scale of one event's worth of buffer writes.
type transaction struct {
	entries map[EntryID]*entry
	counter map[string]uint64
}

// BeginTx opens a transaction. Only one transaction may be open at a
// time; BeginTx panics if one already is, since the runtime is
// single-threaded and non-reentrant by design.
func (b *Buffer) BeginTx() {
	if b.tx != nil {
		panic("buffer: BeginTx called with a transaction already open")
	}
	entries := make(map[EntryID]*entry, len(b.entries))
	for id, e := range b.entries {
		cp := *e
		cp.out = append([]predecessor(nil), e.out...)
		entries[id] = &cp
	}
	counter := make(map[string]uint64, len(b.counter))
	for stage, c := range b.counter {
		counter[stage] = c
	}
	b.tx = &transaction{entries: entries, counter: counter}
}

// CommitTx closes the current transaction, keeping all changes made
// since BeginTx.
func (b *Buffer) CommitTx() {
	b.tx = nil
}

// RollbackTx discards every change made since BeginTx, restoring the
// buffer to exactly the state BeginTx captured.
func (b *Buffer) RollbackTx() {
	if b.tx == nil {
		return
	}
	b.entries = b.tx.entries
	b.counter = b.tx.counter
	b.tx = nil
}
