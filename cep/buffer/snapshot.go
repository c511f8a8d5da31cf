package buffer

import (
	"github.com/wbrown/janus-cep/cep/event"
	"github.com/wbrown/janus-cep/cep/version"
)

// EntrySnapshot is the gob-serializable form of one buffer entry.
type EntrySnapshot struct {
	ID    EntryID
	Event event.Wrapper
	Refs  int
	Out   []PredecessorSnapshot
}

// PredecessorSnapshot is the gob-serializable form of one predecessor
// edge.
type PredecessorSnapshot struct {
	Parent  EntryID
	Version version.Number
}

// Snapshot is a full, gob-encodable capture of a Buffer's state, used
// by cep/persist to save and restore a runtime mid-stream.
type Snapshot struct {
	Entries []EntrySnapshot
	Counter map[string]uint64
}

// Snapshot captures the current buffer contents. It must not be called
// while a transaction is open.
func (b *Buffer) Snapshot() Snapshot {
	if b.tx != nil {
		panic("buffer: Snapshot called with a transaction open")
	}
	snap := Snapshot{Counter: make(map[string]uint64, len(b.counter))}
	for stage, c := range b.counter {
		snap.Counter[stage] = c
	}
	for id, e := range b.entries {
		es := EntrySnapshot{ID: id, Event: e.event, Refs: e.refs}
		for _, p := range e.out {
			es.Out = append(es.Out, PredecessorSnapshot{Parent: p.parent, Version: p.version})
		}
		snap.Entries = append(snap.Entries, es)
	}
	return snap
}

// Restore rebuilds a Buffer from a Snapshot taken by Snapshot.
func Restore(snap Snapshot) *Buffer {
	b := New()
	for stage, c := range snap.Counter {
		b.counter[stage] = c
	}
	for _, es := range snap.Entries {
		e := &entry{event: es.Event, refs: es.Refs}
		for _, p := range es.Out {
			e.out = append(e.out, predecessor{parent: p.Parent, version: p.Version})
		}
		b.entries[es.ID] = e
	}
	return b
}
