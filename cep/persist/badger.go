// Package persist is the snapshotting hook spec.md §9 notes but leaves
// external: "the buffer and computation set must be structurally
// serializable... so a surrounding system can persist them." This
// package is that surrounding system, grounded directly on
// datalog/storage/badger_store.go's NewBadgerStore/db.Update/txn idiom,
// adapted from "persist datoms across indices" to "persist one gob
// blob per keyed runtime.Snapshot."
//
// cep/runtime itself never imports this package or badger: the core
// stays free of any serialization library, exactly as spec.md's
// "structurally serializable" requirement demands.
package persist

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/wbrown/janus-cep/cep/runtime"
)

// Store persists and restores runtime.Snapshot values keyed by name --
// typically one key per NFA instance (e.g. a partition or pattern id).
type Store interface {
	SaveSnapshot(key string, snap *runtime.Snapshot) error
	LoadSnapshot(key string) (*runtime.Snapshot, error)
	Close() error
}

// BadgerSnapshotStore implements Store using BadgerDB, gob-encoding
// each snapshot under its key.
type BadgerSnapshotStore struct {
	db *badger.DB
}

// OpenBadgerSnapshotStore opens (creating if necessary) a Badger-backed
// snapshot store at path. Mirrors NewBadgerStore's disabled-logger,
// single-open-handle shape.
func OpenBadgerSnapshotStore(path string) (*BadgerSnapshotStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("persist: failed to open badger: %w", err)
	}
	return &BadgerSnapshotStore{db: db}, nil
}

// RegisterEventType makes gob aware of a concrete event payload type so
// it can be carried through the event.Event interface field inside a
// Snapshot. Callers must register every concrete event type their
// patterns use before the first SaveSnapshot/LoadSnapshot call, the
// same requirement gob itself imposes on any interface-typed field.
func RegisterEventType(sample interface{}) {
	gob.Register(sample)
}

// SaveSnapshot gob-encodes snap and writes it under key in a single
// Badger transaction.
func (s *BadgerSnapshotStore) SaveSnapshot(key string, snap *runtime.Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("persist: failed to encode snapshot %q: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), buf.Bytes())
	})
}

// LoadSnapshot reads and gob-decodes the snapshot stored under key. It
// returns (nil, nil) if no snapshot is stored under that key.
func (s *BadgerSnapshotStore) LoadSnapshot(key string) (*runtime.Snapshot, error) {
	var snap runtime.Snapshot
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&snap)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("persist: failed to load snapshot %q: %w", key, err)
	}
	if !found {
		return nil, nil
	}
	return &snap, nil
}

// Close closes the underlying Badger handle.
func (s *BadgerSnapshotStore) Close() error {
	return s.db.Close()
}
