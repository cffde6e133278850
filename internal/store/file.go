// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edsrzf/mmap-go"
)

const snapshotExt = ".json"

// FileStorage keeps one snapshot file per block in a directory.
//
// Layout:
// - <dir>/<block_id>.json: payload of the block
//
// A snapshot is written to a temporary file and renamed over the previous
// one, so a reader holding the old file keeps a complete copy.
type FileStorage struct {
	dir string
}

// NewFileStorage creates a new FileStorage rooted at dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

// Init creates the snapshot directory.
func (ms *FileStorage) Init(ctx context.Context) error {
	if err := os.MkdirAll(ms.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	return nil
}

func (ms *FileStorage) path(blockID int) string {
	return filepath.Join(ms.dir, strconv.Itoa(blockID)+snapshotExt)
}

func (ms *FileStorage) Upsert(ctx context.Context, blockID int, payload []byte) error {
	tmp, err := os.CreateTemp(ms.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync file to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), ms.path(blockID)); err != nil {
		return fmt.Errorf("failed to replace snapshot of block %d: %w", blockID, err)
	}
	return nil
}

// ScanAll lists the directory once and reads each snapshot as it is yielded.
func (ms *FileStorage) ScanAll(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		entries, err := os.ReadDir(ms.dir)
		if err != nil {
			yield(Record{}, fmt.Errorf("failed to list snapshots: %w", err))
			return
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}
			name := e.Name()
			if !e.Type().IsRegular() || !strings.HasSuffix(name, snapshotExt) {
				continue
			}
			id, err := strconv.Atoi(strings.TrimSuffix(name, snapshotExt))
			if err != nil {
				continue
			}
			payload, err := readMapped(filepath.Join(ms.dir, name))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				if !yield(Record{}, fmt.Errorf("failed to read block %d: %w", id, err)) {
					return
				}
				continue
			}
			if !yield(Record{BlockID: id, Payload: payload}, nil) {
				return
			}
		}
	}
}

// readMapped maps a snapshot file read-only and copies its content out.
// Snapshot files are only ever replaced by rename, never truncated in place,
// so the mapping stays valid while it is read.
func readMapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return []byte{}, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	defer data.Unmap()

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (ms *FileStorage) Close() error {
	return nil
}
