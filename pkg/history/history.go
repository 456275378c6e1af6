// Package history keeps a local SQLite log of successfully classified posts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gorobchenkoann/save-from-inst/pkg/media"
)

// Entry is one recorded lookup
type Entry struct {
	ID        int64
	URL       string
	Shortcode string
	Kind      media.Kind
	Items     int
	Record    *media.Record
	CreatedAt time.Time
}

// Store is a SQLite-backed history log
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	shortcode TEXT,
	kind TEXT NOT NULL,
	items INTEGER NOT NULL,
	record TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at);`

// Open opens (creating if needed) the history database at path
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open history db: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history db ping failed: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("can't create history tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Add records a classified post looked up from url
func (s *Store) Add(ctx context.Context, url string, record *media.Record) (*Entry, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	entry := &Entry{
		URL:       url,
		Shortcode: record.Shortcode,
		Kind:      record.Kind,
		Items:     len(record.Items()),
		Record:    record,
		CreatedAt: time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (url, shortcode, kind, items, record, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.URL, entry.Shortcode, string(entry.Kind), entry.Items, string(payload), entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}

	entry.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read history entry id: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, url, shortcode, kind, items, record, created_at FROM lookups ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			shortcode sql.NullString
			kind      string
			payload   string
		)
		if err := rows.Scan(&e.ID, &e.URL, &shortcode, &kind, &e.Items, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Shortcode = shortcode.String
		e.Kind = media.Kind(kind)

		var record media.Record
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("failed to decode history record %d: %w", e.ID, err)
		}
		e.Record = &record
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return entries, nil
}

// Clear removes every entry and returns how many were deleted
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lookups`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
