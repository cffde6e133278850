// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/ffutop/topology-server/internal/config"
	"github.com/ffutop/topology-server/internal/metrics"
)

// ErrUnknownBackend is returned by Open for an unsupported store type.
var ErrUnknownBackend = errors.New("store: unknown backend")

type initializer interface {
	Init(ctx context.Context) error
}

// Open builds the storage selected by cfg and initializes it.
// Failing to initialize is fatal for the caller: nothing can be served
// without storage.
func Open(ctx context.Context, cfg config.StoreConfig) (Storage, error) {
	var storage Storage
	switch cfg.Type {
	case config.StoreSQLite:
		slog.Info("Initializing snapshot store with SQLite", "path", cfg.Path)
		storage = NewSQLStorage(DriverSQLite, SQLiteDSN(cfg.Path))
	case config.StorePostgres:
		slog.Info("Initializing snapshot store with PostgreSQL")
		storage = NewSQLStorage(DriverPostgres, cfg.DSN)
	case config.StoreBadger:
		slog.Info("Initializing snapshot store with badger", "path", cfg.Path)
		storage = NewBadgerStorage(cfg.Path)
	case config.StoreFile:
		slog.Info("Initializing snapshot store with snapshot files", "dir", cfg.Path)
		storage = NewFileStorage(cfg.Path)
	case config.StoreMemory:
		slog.Info("Initializing snapshot store in memory (non-persistent)")
		storage = NewMemoryStorage()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Type)
	}

	if i, ok := storage.(initializer); ok {
		if err := i.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.Type, err)
		}
	}
	return Instrument(storage, cfg.Type), nil
}

// Instrument wraps storage so every call is counted in metrics.StoreOperations.
func Instrument(storage Storage, backend string) Storage {
	return &instrumented{Storage: storage, backend: backend}
}

type instrumented struct {
	Storage
	backend string
}

func (s *instrumented) Upsert(ctx context.Context, blockID int, payload []byte) error {
	err := s.Storage.Upsert(ctx, blockID, payload)
	metrics.StoreOperations.WithLabelValues("upsert", s.backend, metrics.Status(err)).Inc()
	return err
}

func (s *instrumented) ScanAll(ctx context.Context) iter.Seq2[Record, error] {
	inner := s.Storage.ScanAll(ctx)
	return func(yield func(Record, error) bool) {
		var failed error
		defer func() {
			metrics.StoreOperations.WithLabelValues("scan", s.backend, metrics.Status(failed)).Inc()
		}()
		for r, err := range inner {
			if err != nil {
				failed = err
			}
			if !yield(r, err) {
				return
			}
		}
	}
}
