// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "block/"

// BadgerStorage keeps snapshots in a badger key-value database.
// An empty path opens an in-memory database.
type BadgerStorage struct {
	path string
	db   *badger.DB
}

// NewBadgerStorage creates a new BadgerStorage. Call Init before use.
func NewBadgerStorage(path string) *BadgerStorage {
	return &BadgerStorage{path: path}
}

// Init opens the database.
func (s *BadgerStorage) Init(ctx context.Context) error {
	opts := badger.DefaultOptions(s.path).WithLogger(nil)
	if s.path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger: %w", err)
	}
	s.db = db
	return nil
}

func badgerKey(blockID int) []byte {
	return []byte(badgerKeyPrefix + strconv.Itoa(blockID))
}

func (s *BadgerStorage) Upsert(ctx context.Context, blockID int, payload []byte) error {
	if s.db == nil {
		return fmt.Errorf("badger storage is not initialized")
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(blockID), payload)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert block %d: %w", blockID, err)
	}
	return nil
}

// ScanAll iterates the block keys inside one read transaction.
func (s *BadgerStorage) ScanAll(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if s.db == nil {
			yield(Record{}, fmt.Errorf("badger storage is not initialized"))
			return
		}
		stopped := false
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = true
			it := txn.NewIterator(opts)
			defer it.Close()

			prefix := []byte(badgerKeyPrefix)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				key := string(item.Key())
				id, err := strconv.Atoi(strings.TrimPrefix(key, badgerKeyPrefix))
				if err != nil {
					if !yield(Record{}, fmt.Errorf("invalid block key %q: %w", key, err)) {
						stopped = true
						return nil
					}
					continue
				}
				payload, err := item.ValueCopy(nil)
				if err != nil {
					if !yield(Record{}, fmt.Errorf("failed to read block %d: %w", id, err)) {
						stopped = true
						return nil
					}
					continue
				}
				if !yield(Record{BlockID: id, Payload: payload}, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(Record{}, fmt.Errorf("failed to scan blocks: %w", err))
		}
	}
}

func (s *BadgerStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
