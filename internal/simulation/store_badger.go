// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package simulation

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key layout
const (
	simulationKeyPrefix = "simulation:"
	sequenceKey         = "seq:simulation"
	sequenceBandwidth   = 16
)

// BadgerStore persists simulations in BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenBadger opens (or creates) a Badger database at path. An empty path
// opens an in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// NewBadgerStore creates a store on an open database.
func NewBadgerStore(db *badger.DB) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("get sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

// Close releases the id sequence. The database itself is owned by the caller.
func (s *BadgerStore) Close() error {
	return s.seq.Release()
}

// Insert implements Store.
func (s *BadgerStore) Insert(_ context.Context, rec Record) (int64, error) {
	// Sequences start at 0; ids start at 1.
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	rec.ID = int64(n) + 1

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal simulation: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(rec.ID), data)
	})
	if err != nil {
		return 0, fmt.Errorf("set simulation: %w", err)
	}
	return rec.ID, nil
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, id int64) (*Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		return read(txn, id, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List implements Store.
func (s *BadgerStore) List(_ context.Context, limit int) ([]Record, error) {
	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(simulationKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last possible key.
		start := append([]byte(simulationKeyPrefix), 0xFF)
		for it.Seek(start); it.ValidForPrefix(opts.Prefix); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	return out, nil
}

// MarkApplied implements Store. The read and write happen in one transaction,
// so a concurrent second apply fails with a conflict or ErrAlreadyApplied.
func (s *BadgerStore) MarkApplied(_ context.Context, id int64, at time.Time) (*Record, error) {
	var rec Record
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := read(txn, id, &rec); err != nil {
			return err
		}
		if rec.Applied {
			return ErrAlreadyApplied
		}
		rec.Applied = true
		rec.AppliedAt = &at
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal simulation: %w", err)
		}
		return txn.Set(key(id), data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return nil, ErrAlreadyApplied
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func read(txn *badger.Txn, id int64, rec *Record) error {
	item, err := txn.Get(key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get simulation: %w", err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, rec)
	})
}

// key encodes ids big-endian so lexical order matches numeric order.
func key(id int64) []byte {
	k := make([]byte, len(simulationKeyPrefix)+8)
	copy(k, simulationKeyPrefix)
	binary.BigEndian.PutUint64(k[len(simulationKeyPrefix):], uint64(id))
	return k
}
