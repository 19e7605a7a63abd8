package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRunID is returned by Get when a prefix matches several runs.
var ErrAmbiguousRunID = errors.New("run id prefix is ambiguous")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the history database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		revision TEXT NOT NULL,
		toolset TEXT NOT NULL,
		commits TEXT,
		archive TEXT,
		exit_code INTEGER NOT NULL,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS stages (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		result TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished run together with its stages.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var commitsJSON []byte
	if run.Commits != nil {
		var err error
		commitsJSON, err = json.Marshal(run.Commits)
		if err != nil {
			return fmt.Errorf("marshal commits: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, duration_ms, revision, toolset, commits, archive, exit_code, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(), run.Revision, run.Toolset, string(commitsJSON), run.Archive, run.ExitCode, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, st := range run.Stages {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO stages (run_id, seq, name, result, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?)",
			run.ID, i, st.Name, st.Result, st.Duration.Milliseconds(), st.Error,
		)
		if err != nil {
			return fmt.Errorf("insert stage %s: %w", st.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const runColumns = "id, started_at, duration_ms, revision, toolset, commits, archive, exit_code, error"

// Recent returns up to limit runs, newest first. Stages are not loaded.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given ID including its stages. A unique prefix
// of an ID, as printed by the history table, also matches.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.resolveID(ctx, id)
	if err != nil {
		return Run{}, err
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, result, duration_ms, error FROM stages WHERE run_id = ? ORDER BY seq", id)
	if err != nil {
		return Run{}, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st Stage
		var ms int64
		var errText sql.NullString
		if err := rows.Scan(&st.Name, &st.Result, &ms, &errText); err != nil {
			return Run{}, fmt.Errorf("scan stage: %w", err)
		}
		st.Duration = time.Duration(ms) * time.Millisecond
		st.Error = errText.String
		run.Stages = append(run.Stages, st)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate stages: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) resolveID(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM runs WHERE substr(id, 1, ?) = ? ORDER BY id = ? DESC LIMIT 2",
		len(prefix), prefix, prefix)
	if err != nil {
		return "", fmt.Errorf("query run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate run ids: %w", err)
	}
	switch {
	case len(ids) == 0 || prefix == "":
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case ids[0] == prefix || len(ids) == 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousRunID, prefix)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var startedMS, durationMS int64
	var commits, archive, errText sql.NullString
	err := row.Scan(&run.ID, &startedMS, &durationMS, &run.Revision, &run.Toolset, &commits, &archive, &run.ExitCode, &errText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.UnixMilli(startedMS)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Archive = archive.String
	run.Error = errText.String
	if commits.String != "" {
		if err := json.Unmarshal([]byte(commits.String), &run.Commits); err != nil {
			return run, fmt.Errorf("unmarshal commits: %w", err)
		}
	}
	return run, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
