// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Database drivers supported by SQLStorage.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQLStorage implements persistence using a SQL database.
// It assumes a table `blocks` exists (or creates it).
type SQLStorage struct {
	driver string
	dsn    string
	db     *sql.DB
}

// NewSQLStorage creates a new SQLStorage. Call Init before use.
func NewSQLStorage(driver, dsn string) *SQLStorage {
	return &SQLStorage{
		driver: driver,
		dsn:    dsn,
	}
}

// SQLiteDSN builds a sqlite3 DSN for path. WAL mode lets readers run
// while the scanner writes.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
}

// Init connects to the DB and creates the schema.
func (s *SQLStorage) Init(ctx context.Context) error {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	if s.driver == DriverPostgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect db: %w", err)
	}
	s.db = db

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		s.db = nil
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

func (s *SQLStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS blocks (
		block_id INTEGER PRIMARY KEY,
		data_json TEXT
	);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLStorage) upsertQuery() string {
	if s.driver == DriverPostgres {
		return "INSERT INTO blocks (block_id, data_json) VALUES ($1, $2) ON CONFLICT(block_id) DO UPDATE SET data_json=excluded.data_json"
	}
	return "INSERT INTO blocks (block_id, data_json) VALUES (?, ?) ON CONFLICT(block_id) DO UPDATE SET data_json=excluded.data_json"
}

// Upsert replaces the snapshot row for blockID in a single statement.
func (s *SQLStorage) Upsert(ctx context.Context, blockID int, payload []byte) error {
	if s.db == nil {
		return fmt.Errorf("sql storage is not initialized")
	}
	if _, err := s.db.ExecContext(ctx, s.upsertQuery(), blockID, string(payload)); err != nil {
		return fmt.Errorf("failed to upsert block %d: %w", blockID, err)
	}
	return nil
}

// ScanAll streams rows from the blocks table.
func (s *SQLStorage) ScanAll(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if s.db == nil {
			yield(Record{}, fmt.Errorf("sql storage is not initialized"))
			return
		}
		rows, err := s.db.QueryContext(ctx, "SELECT block_id, data_json FROM blocks")
		if err != nil {
			yield(Record{}, fmt.Errorf("failed to query blocks: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id      int
				payload sql.NullString
			)
			if err := rows.Scan(&id, &payload); err != nil {
				if !yield(Record{}, fmt.Errorf("failed to scan block row: %w", err)) {
					return
				}
				continue
			}
			if !yield(Record{BlockID: id, Payload: []byte(payload.String)}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Record{}, fmt.Errorf("failed to iterate blocks: %w", err))
		}
	}
}

func (s *SQLStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
