// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records conversion outcomes in a SQLite database so that
// past runs can be listed, summarised and exported.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ditto/internal/converter"
)

const (
	// DefaultLimit caps Recent when no limit is given.
	DefaultLimit = 20

	// timeLayout is fixed-width so that started_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Entry is one recorded conversion. Kind is empty for a success.
type Entry struct {
	ID         string         `json:"id" yaml:"id"`
	Input      string         `json:"input" yaml:"input"`
	Output     string         `json:"output" yaml:"output"`
	Kind       converter.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Message    string         `json:"message,omitempty" yaml:"message,omitempty"`
	ExitCode   int            `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	Bytes      int64          `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	DurationMS int64          `json:"duration_ms" yaml:"duration_ms"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
}

// Duration returns the recorded run time.
func (e Entry) Duration() time.Duration {
	return time.Duration(e.DurationMS) * time.Millisecond
}

// OK reports whether the entry records a successful conversion.
func (e Entry) OK() bool {
	return e.Kind == ""
}

// Store manages the journal database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal at path, creating parent directories and
// the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			message TEXT,
			exit_code INTEGER,
			bytes INTEGER,
			duration_ms INTEGER,
			started_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_started ON conversions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_kind ON conversions(kind)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores the outcome of one conversion and returns the entry written.
func (s *Store) Record(ctx context.Context, req converter.Request, res converter.Result, convErr error, startedAt time.Time) (Entry, error) {
	elapsed := res.Duration
	if convErr != nil && elapsed == 0 {
		elapsed = time.Since(startedAt)
	}
	e := Entry{
		ID:         uuid.NewString(),
		Input:      req.InputPath,
		Output:     req.OutputPath,
		Bytes:      res.Size,
		DurationMS: elapsed.Milliseconds(),
		StartedAt:  startedAt.UTC(),
	}
	if res.OutputPath != "" {
		e.Output = res.OutputPath
	}
	if convErr != nil {
		e.Kind = converter.KindFromError(convErr)
		e.Message = convErr.Error()
		var ce *converter.Error
		if errors.As(convErr, &ce) {
			e.ExitCode = ce.ExitCode
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, input, output, kind, message, exit_code, bytes, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Input, e.Output, string(e.Kind), e.Message, e.ExitCode, e.Bytes,
		e.DurationMS, e.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("recording conversion: %w", err)
	}
	return e, nil
}

// QueryOptions filters Recent.
type QueryOptions struct {
	// Limit is the maximum number of entries (default DefaultLimit).
	Limit int
	// FailedOnly restricts the result to failures.
	FailedOnly bool
	// Kind restricts the result to one failure kind.
	Kind converter.Kind
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, input, output, kind, message, exit_code, bytes, duration_ms, started_at FROM conversions`
	var args []any
	switch {
	case opts.Kind != "":
		query += ` WHERE kind = ?`
		args = append(args, string(opts.Kind))
	case opts.FailedOnly:
		query += ` WHERE kind != ''`
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			kind      string
			message   sql.NullString
			exitCode  sql.NullInt64
			size      sql.NullInt64
			millis    sql.NullInt64
			startedAt string
		)
		if err := rows.Scan(&e.ID, &e.Input, &e.Output, &kind, &message, &exitCode, &size, &millis, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Kind = converter.Kind(kind)
		e.Message = message.String
		e.ExitCode = int(exitCode.Int64)
		e.Bytes = size.Int64
		e.DurationMS = millis.Int64
		if t, err := time.Parse(timeLayout, startedAt); err == nil {
			e.StartedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats counts recorded conversions by kind. Successes are counted under "".
func (s *Store) Stats(ctx context.Context) (map[converter.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, count(*) FROM conversions GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("querying journal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[converter.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning journal stats: %w", err)
		}
		stats[converter.Kind(kind)] = n
	}
	return stats, rows.Err()
}

// Prune deletes entries started before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversions WHERE started_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return res.RowsAffected()
}
