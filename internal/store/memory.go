// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"context"
	"iter"
	"slices"
	"sync"
)

// MemoryStorage is a non-persistent storage.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[int][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[int][]byte)}
}

func (ms *MemoryStorage) Upsert(ctx context.Context, blockID int, payload []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.records[blockID] = slices.Clone(payload)
	return nil
}

func (ms *MemoryStorage) ScanAll(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		ms.mu.RLock()
		ids := make([]int, 0, len(ms.records))
		for id := range ms.records {
			ids = append(ids, id)
		}
		ms.mu.RUnlock()

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}
			ms.mu.RLock()
			payload, ok := ms.records[id]
			ms.mu.RUnlock()
			if !ok {
				continue
			}
			if !yield(Record{BlockID: id, Payload: slices.Clone(payload)}, nil) {
				return
			}
		}
	}
}

func (ms *MemoryStorage) Close() error {
	return nil
}
