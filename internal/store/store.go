// Package store keeps world snapshots of simulation runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound indicates the requested run or snapshot doesn't exist
var ErrNotFound = errors.New("not found")

// Run is one simulation started from a map.
type Run struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Seed      int64
	MapText   string
}

// Store handles SQLite storage for runs and their snapshots
type Store struct {
	db *sql.DB
}

const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	seed INTEGER NOT NULL,
	map_text TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	tick INTEGER NOT NULL,
	data BLOB NOT NULL,
	PRIMARY KEY (run_id, tick)
);
`

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps the pragmas below in force
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("preparing database: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRun records a run and returns its fresh id.
func (s *Store) NewRun(ctx context.Context, mapText string, seed int64) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, created_at, seed, map_text) VALUES (?, ?, ?, ?)",
		id.String(), time.Now().UTC().Format(timeFormat), seed, mapText,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("saving run: %w", err)
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r       Run
		id      string
		created string
	)
	if err := row.Scan(&id, &created, &r.Seed, &r.MapText); err != nil {
		return Run{}, err
	}
	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	if r.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return Run{}, fmt.Errorf("run %s created_at: %w", id, err)
	}
	return r, nil
}

func (s *Store) Run(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, created_at, seed, map_text FROM runs WHERE id = ?", id.String())
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying run: %w", err)
	}
	return r, nil
}

// Runs lists all runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, created_at, seed, map_text FROM runs ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Save stores the snapshot taken after tick, replacing an earlier one for
// the same tick. The run must exist.
func (s *Store) Save(ctx context.Context, run uuid.UUID, tick int, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO snapshots (run_id, tick, data) VALUES (?, ?, ?)",
		run.String(), tick, data,
	)
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) && sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return fmt.Errorf("run %s: %w", run, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, run uuid.UUID, tick int) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM snapshots WHERE run_id = ? AND tick = ?", run.String(), tick,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s tick %d: %w", run, tick, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return data, nil
}

// Latest returns the snapshot with the highest tick of run.
func (s *Store) Latest(ctx context.Context, run uuid.UUID) (int, []byte, error) {
	var (
		tick int
		data []byte
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT tick, data FROM snapshots WHERE run_id = ? ORDER BY tick DESC LIMIT 1", run.String(),
	).Scan(&tick, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, fmt.Errorf("run %s: no snapshots: %w", run, ErrNotFound)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return tick, data, nil
}
