// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ffutop/topology-server/internal/metrics"
	"github.com/ffutop/topology-server/internal/store"
	"github.com/ffutop/topology-server/topology"
)

// Scanner ingests topology documents from a directory into a Storage.
// All ingestion goes through one mutex, so the startup scan and watch
// ticks never write concurrently.
type Scanner struct {
	Dir       string
	Extension string

	storage store.Storage
	mu      sync.Mutex
}

// NewScanner creates a Scanner for documents with extension ext in dir.
func NewScanner(dir, ext string, storage store.Storage) *Scanner {
	return &Scanner{
		Dir:       dir,
		Extension: ext,
		storage:   storage,
	}
}

// ListDocuments returns the sorted names of the documents in the directory.
func (s *Scanner) ListDocuments() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Dir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), s.Extension) {
			continue
		}
		if !e.Type().IsRegular() {
			if e.Type()&fs.ModeSymlink == 0 {
				continue
			}
			fi, err := os.Stat(filepath.Join(s.Dir, name))
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ScanDirectory ingests every document in the directory and returns how many
// were stored. A failing document is logged and skipped; only a directory
// that cannot be listed is an error.
func (s *Scanner) ScanDirectory(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.ListDocuments()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		path := filepath.Join(s.Dir, name)
		if err := s.ingest(ctx, path); err != nil {
			slog.Warn("Skipping document", "path", path, "err", err)
			continue
		}
		count++
	}
	slog.Info("Document scan finished", "dir", s.Dir, "documents", len(names), "ingested", count)
	return count, nil
}

// IngestFile parses a single document and stores its block.
func (s *Scanner) IngestFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingest(ctx, path)
}

func (s *Scanner) ingest(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		metrics.DocumentsIngested.WithLabelValues("open_failed").Inc()
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	block, err := topology.Parse(bufio.NewReader(f))
	if err != nil {
		metrics.DocumentsIngested.WithLabelValues("parse_failed").Inc()
		return fmt.Errorf("failed to parse document: %w", err)
	}
	for _, w := range block.Validate() {
		slog.Debug("Declared count mismatch", "path", path, "block_id", block.ID, "detail", w)
	}

	payload, err := topology.Marshal(block)
	if err != nil {
		metrics.DocumentsIngested.WithLabelValues("parse_failed").Inc()
		return err
	}
	if err := s.storage.Upsert(ctx, block.ID, payload); err != nil {
		metrics.DocumentsIngested.WithLabelValues("store_failed").Inc()
		return fmt.Errorf("failed to store block %d: %w", block.ID, err)
	}

	metrics.DocumentsIngested.WithLabelValues("ok").Inc()
	slog.Info("Block snapshot stored", "path", path, "block_id", block.ID, "boards", len(block.Boards))
	return nil
}
