// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "history.db"

// Store persists run reports in a local SQLite database so past runs can be
// inspected without digging through logs.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the history database under dir, creating the
// schema if it does not exist.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
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
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			version TEXT NOT NULL,
			started_at TEXT NOT NULL,
			exit_code INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS build_results (
			run_id TEXT NOT NULL REFERENCES runs(id),
			target TEXT NOT NULL,
			ok INTEGER NOT NULL,
			artifact TEXT,
			error TEXT,
			duration_ms INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS publish_results (
			run_id TEXT NOT NULL REFERENCES runs(id),
			repo TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_build_results_run ON build_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_publish_results_run ON publish_results(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun records a completed run and its per-target/per-repo outcomes.
func (s *Store) SaveRun(r *RunReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, stage, version, started_at, exit_code) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Stage, r.Version.String(), r.StartedAt.Format(time.RFC3339), r.ExitCode(),
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, b := range r.Builds {
		if _, err := tx.Exec(
			`INSERT INTO build_results (run_id, target, ok, artifact, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, b.Target, b.OK, b.ArtifactPath, b.Err, b.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("inserting build result: %w", err)
		}
	}
	for _, p := range r.Publishes {
		if _, err := tx.Exec(
			`INSERT INTO publish_results (run_id, repo, status, detail) VALUES (?, ?, ?, ?)`,
			r.ID, p.Repo, string(p.Status), p.Detail,
		); err != nil {
			return fmt.Errorf("inserting publish result: %w", err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID        string
	Stage     string
	Version   string
	StartedAt string
	ExitCode  int
	BuildsOK  int
	Builds    int
	Pushed    int
	Publishes int
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT r.id, r.stage, r.version, r.started_at, r.exit_code,
			(SELECT COUNT(*) FROM build_results b WHERE b.run_id = r.id AND b.ok = 1),
			(SELECT COUNT(*) FROM build_results b WHERE b.run_id = r.id),
			(SELECT COUNT(*) FROM publish_results p WHERE p.run_id = r.id AND p.status = 'pushed'),
			(SELECT COUNT(*) FROM publish_results p WHERE p.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.ID, &rs.Stage, &rs.Version, &rs.StartedAt, &rs.ExitCode,
			&rs.BuildsOK, &rs.Builds, &rs.Pushed, &rs.Publishes); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}
