// Package vectorstore indexes the textual content of Course and Section
// nodes into a sqlite-vec database for nearest-neighbour lookup. It
// consumes the canonical graph shape and nothing else.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brunobiangulo/acadgraph/graph"
)

func init() {
	sqlite_vec.Auto()
}

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one nearest-neighbour hit.
type Result struct {
	NodeID   string  `json:"node_id"`
	NodeType string  `json:"node_type"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// Store wraps the sqlite-vec database.
type Store struct {
	db  *sql.DB
	dim int
}

// New opens (or creates) the vector database at the given path. dim must
// match the embedder's output dimension.
func New(dbPath string, dim int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY,
    node_id TEXT NOT NULL UNIQUE,
    node_type TEXT NOT NULL,
    content TEXT NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS vec_entries USING vec0(
    entry_id INTEGER PRIMARY KEY,
    embedding float[%d]
);`, dim)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, dim: dim}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Index embeds and stores the textual content of every Course and
// Section node in the graph, replacing existing entries for the same
// node ids. It returns the number of nodes indexed.
func (s *Store) Index(ctx context.Context, g graph.Graph, emb Embedder) (int, error) {
	var ids, types, texts []string
	for _, n := range g.Nodes {
		if n.Type != graph.NodeCourse && n.Type != graph.NodeSection {
			continue
		}
		content := nodeContent(n)
		if content == "" {
			continue
		}
		ids = append(ids, n.ID)
		types = append(types, n.Type)
		texts = append(texts, content)
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := emb.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d nodes: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for i, id := range ids {
		if len(vectors[i]) != s.dim {
			return 0, fmt.Errorf("vector dimension %d does not match store dimension %d", len(vectors[i]), s.dim)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entries (node_id, node_type, content) VALUES (?, ?, ?)
			ON CONFLICT(node_id) DO UPDATE SET
				node_type = excluded.node_type,
				content = excluded.content
		`, id, types[i], texts[i]); err != nil {
			return 0, fmt.Errorf("storing entry %s: %w", id, err)
		}
		// Upserts do not report the surviving rowid reliably, so read it
		// back before writing the vector row.
		var entryID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM entries WHERE node_id = ?`, id).Scan(&entryID); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO vec_entries (entry_id, embedding) VALUES (?, ?)`,
			entryID, serializeFloat32(vectors[i])); err != nil {
			return 0, fmt.Errorf("storing embedding for %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Search returns the k nearest entries to the query text.
func (s *Store) Search(ctx context.Context, query string, emb Embedder, k int) ([]Result, error) {
	vectors, err := emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.node_id, e.node_type, e.content, v.distance
		FROM vec_entries v
		JOIN entries e ON e.id = v.entry_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(vectors[0]), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var distance float64
		if err := rows.Scan(&r.NodeID, &r.NodeType, &r.Content, &distance); err != nil {
			return nil, err
		}
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// nodeContent flattens a node's textual properties into one indexable
// string: title first, then attribute paragraphs, bullets, and fields in
// sorted label order so output is deterministic.
func nodeContent(n graph.Node) string {
	var parts []string
	if title, ok := n.Properties["title"].(string); ok && title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, blockText(n.Properties)...)

	if attrs, ok := n.Properties["attributes"].(map[string]any); ok {
		labels := make([]string, 0, len(attrs))
		for label := range attrs {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			block, ok := attrs[label].(map[string]any)
			if !ok {
				continue
			}
			if body := blockText(block); len(body) > 0 {
				parts = append(parts, label+": "+strings.Join(body, " "))
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// blockText pulls paragraphs, bullets, and field values out of one
// content block, tolerating both typed values and values that went
// through a JSON round trip.
func blockText(block map[string]any) []string {
	var out []string
	for _, key := range []string{"paragraphs", "bullets"} {
		switch list := block[key].(type) {
		case []string:
			out = append(out, list...)
		case []any:
			for _, v := range list {
				if s, ok := v.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	switch fields := block["fields"].(type) {
	case map[string]string:
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, k+": "+fields[k])
		}
	case map[string]any:
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := fields[k].(string); ok {
				out = append(out, k+": "+s)
			}
		}
	}
	return out
}

// serializeFloat32 converts a float32 slice to little-endian bytes for
// sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
