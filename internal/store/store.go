// Package store keeps a history of search runs in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one finished search.
type Run struct {
	ID          uuid.UUID
	Author      string
	Institution string
	Profile     string
	Outcome     string
	Records     int
	Pages       int
	Output      string
	StartedAt   time.Time
	Duration    time.Duration
	Error       string
}

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		author TEXT NOT NULL,
		institution TEXT,
		profile TEXT,
		outcome TEXT,
		records INTEGER,
		pages INTEGER,
		output TEXT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record saves run, assigning it an ID when it has none. The stored run is
// returned.
func (s *Store) Record(run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := s.db.Exec(`INSERT INTO runs
		(id, author, institution, profile, outcome, records, pages, output, started_at, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Author, run.Institution, run.Profile, run.Outcome,
		run.Records, run.Pages, run.Output,
		run.StartedAt.UnixMilli(), run.Duration.Milliseconds(), run.Error,
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT id, author, institution, profile, outcome, records, pages, output, started_at, duration_ms, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                   Run
			id                  string
			startedMs, duration int64
		)
		if err := rows.Scan(&id, &r.Author, &r.Institution, &r.Profile, &r.Outcome,
			&r.Records, &r.Pages, &r.Output, &startedMs, &duration, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt run id %q: %w", id, err)
		}
		r.StartedAt = time.UnixMilli(startedMs)
		r.Duration = time.Duration(duration) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
