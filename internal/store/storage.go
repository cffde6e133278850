// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"context"
	"iter"
)

// Record is one persisted block snapshot.
type Record struct {
	BlockID int
	Payload []byte
}

// Storage defines the interface for persisting block snapshots.
type Storage interface {
	// Upsert inserts or fully replaces the payload stored for blockID.
	// A concurrent reader observes either the previous or the new payload.
	Upsert(ctx context.Context, blockID int, payload []byte) error

	// ScanAll enumerates all records lazily, in no particular order.
	// Each call starts a new enumeration. A per-record error is yielded
	// with a zero Record and the enumeration continues when possible.
	ScanAll(ctx context.Context) iter.Seq2[Record, error]

	// Close releases the backing storage.
	Close() error
}
