// Package journal persists lithp evaluation traces in a SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	lithp "github.com/SirJoeth3rd/Lithp/core"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS evals (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	input       TEXT    NOT NULL,
	output      TEXT    NOT NULL,
	is_error    INTEGER NOT NULL,
	created_at  TEXT    NOT NULL,
	duration_ns INTEGER NOT NULL
)`

// Journal is an append-only log of traces. It implements lithp.TraceSink.
type Journal struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

var _ lithp.TraceSink = (*Journal)(nil)

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("open journal: missing path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Printf("opened journal: %s", path)
	return &Journal{path: path, db: db}, nil
}

// Path returns the database file the journal was opened on.
func (j *Journal) Path() string { return j.path }

// Record appends t.
func (j *Journal) Record(ctx context.Context, t lithp.Trace) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO evals (input, output, is_error, created_at, duration_ns) VALUES (?, ?, ?, ?, ?)`,
		t.Input, t.Output, t.IsError, t.Timestamp.UTC().Format(time.RFC3339Nano), t.Duration.Nanoseconds())
	if err != nil {
		return fmt.Errorf("record trace: %w", err)
	}
	return nil
}

// Recent returns up to limit traces, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]lithp.Trace, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT input, output, is_error, created_at, duration_ns FROM evals ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	traces := make([]lithp.Trace, 0)
	for rows.Next() {
		var (
			t       lithp.Trace
			created string
			nanos   int64
		)
		if err := rows.Scan(&t.Input, &t.Output, &t.IsError, &created, &nanos); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		t.Timestamp, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("scan trace: created_at %q: %w", created, err)
		}
		t.Duration = time.Duration(nanos)
		traces = append(traces, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	return traces, nil
}

// Count returns the number of recorded traces.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count traces: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	log.Printf("closing journal: %s", j.path)
	return j.db.Close()
}
