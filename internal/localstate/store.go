// Package localstate holds the process-local SQLite database: the
// persisted session snapshot and the investment activity log. All durable
// investment data lives in the remote data service; nothing here is a
// system of record.
package localstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the local state database and applies
// pending migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get reads one persisted value. The second return value reports whether
// the key exists.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Put upserts one persisted value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete removes one persisted value. Deleting a missing key is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// ActivityEntry is one audit row recorded by the worker from the
// investment activity stream.
type ActivityEntry struct {
	ID           int64
	EventID      string
	EventType    string
	InvestmentID string
	UserID       string
	Category     string
	Amount       string
	Date         string
	OccurredAt   time.Time
	RecordedAt   time.Time
}

// AppendActivity records one activity event. Redelivered events (same
// event id) are ignored, which keeps the log idempotent under requeue.
func (s *Store) AppendActivity(ctx context.Context, e ActivityEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO activity_log
			(event_id, event_type, investment_id, user_id, category, amount, investment_date, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.EventType, e.InvestmentID, e.UserID, e.Category, e.Amount, e.Date, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// RecentActivity returns the newest entries, most recent first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, event_type, investment_id, user_id, category, amount, investment_date, occurred_at, recorded_at
		FROM activity_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.InvestmentID, &e.UserID,
			&e.Category, &e.Amount, &e.Date, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}
	return out, nil
}
