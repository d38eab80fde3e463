// Package store is the relational course cache: a keyed lookup from a
// source document identifier to its previously resolved course code,
// consulted by callers before re-translating a document.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a source has no cached entry.
	ErrNotFound = errors.New("store: entry not found")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store: store is closed")
)

// Entry is one cached source-to-course resolution.
type Entry struct {
	Source      string    `json:"source"`
	CourseCode  string    `json:"course_code"`
	ContentHash string    `json:"content_hash"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Batch is one recorded extraction run.
type Batch struct {
	ID        string    `json:"id"`
	Documents int       `json:"documents"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the SQLite database holding the course cache.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Upsert inserts or refreshes the cached resolution for a source.
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO course_cache (source, course_code, content_hash)
		VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			course_code = excluded.course_code,
			content_hash = excluded.content_hash,
			updated_at = CURRENT_TIMESTAMP
	`, e.Source, e.CourseCode, e.ContentHash)
	if err != nil {
		return fmt.Errorf("upserting cache entry: %w", err)
	}
	return nil
}

// Get retrieves the cached entry for a source.
func (s *Store) Get(ctx context.Context, source string) (Entry, error) {
	if s.db == nil {
		return Entry{}, ErrClosed
	}
	var e Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT source, course_code, content_hash, updated_at
		FROM course_cache WHERE source = ?
	`, source).Scan(&e.Source, &e.CourseCode, &e.ContentHash, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, source)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading cache entry: %w", err)
	}
	return e, nil
}

// List returns all cached entries ordered by source.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, course_code, content_hash, updated_at
		FROM course_cache ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("listing cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Source, &e.CourseCode, &e.ContentHash, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a cached entry. Deleting an absent source is a no-op.
func (s *Store) Delete(ctx context.Context, source string) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM course_cache WHERE source = ?`, source)
	if err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// RecordBatch stores the summary row for one extraction run.
func (s *Store) RecordBatch(ctx context.Context, b Batch) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_runs (id, documents, nodes, edges)
		VALUES (?, ?, ?, ?)
	`, b.ID, b.Documents, b.Nodes, b.Edges)
	if err != nil {
		return fmt.Errorf("recording batch: %w", err)
	}
	return nil
}

// Batches returns recorded extraction runs, newest first.
func (s *Store) Batches(ctx context.Context) ([]Batch, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, documents, nodes, edges, created_at
		FROM batch_runs ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Documents, &b.Nodes, &b.Edges, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
