// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ffutop/topology-server/internal/metrics"
)

// ModTimes records the last observed modification time per document name.
// Entries are never evicted; a removed document keeps its last timestamp.
type ModTimes struct {
	seen map[string]time.Time
}

// NewModTimes returns an empty ModTimes.
func NewModTimes() *ModTimes {
	return &ModTimes{seen: make(map[string]time.Time)}
}

// Get returns the recorded timestamp of name.
func (m *ModTimes) Get(name string) (time.Time, bool) {
	t, ok := m.seen[name]
	return t, ok
}

// Set records t as the timestamp of name.
func (m *ModTimes) Set(name string, t time.Time) {
	m.seen[name] = t
}

// Len returns the number of tracked documents.
func (m *ModTimes) Len() int {
	return len(m.seen)
}

// Watcher polls the scanner's directory and re-ingests changed documents.
type Watcher struct {
	scanner  *Scanner
	interval time.Duration
	state    *ModTimes
}

// NewWatcher creates a Watcher. state is owned by the watcher from now on.
func NewWatcher(scanner *Scanner, interval time.Duration, state *ModTimes) *Watcher {
	if state == nil {
		state = NewModTimes()
	}
	return &Watcher{
		scanner:  scanner,
		interval: interval,
		state:    state,
	}
}

// Tick runs one change check and returns the names of re-ingested documents.
//
// A document seen for the first time only becomes a baseline. A document
// whose modification time differs from the recorded one is re-ingested on
// its own and the new time is recorded even when ingestion fails; the next
// modification retries it.
func (w *Watcher) Tick(ctx context.Context) []string {
	metrics.WatchTicks.Inc()

	names, err := w.scanner.ListDocuments()
	if err != nil {
		slog.Error("Failed to list documents", "dir", w.scanner.Dir, "err", err)
		return nil
	}

	var changed []string
	for _, name := range names {
		path := filepath.Join(w.scanner.Dir, name)
		fi, err := os.Stat(path)
		if err != nil {
			slog.Warn("Failed to stat document", "path", path, "err", err)
			continue
		}
		modTime := fi.ModTime()

		last, ok := w.state.Get(name)
		if !ok {
			w.state.Set(name, modTime)
			continue
		}
		if last.Equal(modTime) {
			continue
		}

		slog.Info("Document changed", "path", path, "mod_time", modTime)
		if err := w.scanner.IngestFile(ctx, path); err != nil {
			slog.Warn("Failed to re-ingest document", "path", path, "err", err)
		}
		w.state.Set(name, modTime)
		changed = append(changed, name)
	}

	metrics.WatchChanges.Add(float64(len(changed)))
	return changed
}

// Serve runs Tick on every interval until ctx is canceled.
// Ticks run on this goroutine only, so they never overlap.
func (w *Watcher) Serve(ctx context.Context) error {
	slog.Info("Watching documents", "dir", w.scanner.Dir, "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			slog.Debug("Checking documents for changes", "dir", w.scanner.Dir)
			w.Tick(ctx)
		}
	}
}

func (w *Watcher) String() string {
	return "document-watcher"
}
