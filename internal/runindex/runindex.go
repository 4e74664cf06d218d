// Package runindex maintains an additive SQLite run index alongside the
// authoritative JSONL event log: a queryable summary of recent runs for
// "engine events recent" and future tooling, never the system of record.
package runindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/scengine/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id             TEXT PRIMARY KEY,
	command            TEXT NOT NULL,
	outcome            TEXT NOT NULL,
	termination_reason TEXT NOT NULL,
	final_score        REAL NOT NULL,
	iterations_used    INTEGER NOT NULL,
	started_at         DATETIME NOT NULL,
	finished_at        DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Index wraps the SQLite-backed run summary table.
type Index struct {
	db *sql.DB
}

// Open creates the index file (and its parent directory) if absent and
// ensures the schema is in place.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating run index directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening run index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Record is one row of the run index: a denormalized summary of a
// completed ExecuteResult, cheap to scan without re-reading JSONL.
type Record struct {
	RunID             string
	Command           string
	Outcome           models.Outcome
	TerminationReason models.TerminationReason
	FinalScore        float64
	IterationsUsed    int
	StartedAt         time.Time
	FinishedAt        time.Time
}

// Upsert inserts or replaces a run's summary row.
func (idx *Index) Upsert(rec Record) error {
	_, err := idx.db.Exec(
		`INSERT INTO runs (run_id, command, outcome, termination_reason, final_score, iterations_used, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			command=excluded.command, outcome=excluded.outcome,
			termination_reason=excluded.termination_reason, final_score=excluded.final_score,
			iterations_used=excluded.iterations_used, started_at=excluded.started_at,
			finished_at=excluded.finished_at`,
		rec.RunID, rec.Command, string(rec.Outcome), string(rec.TerminationReason),
		rec.FinalScore, rec.IterationsUsed, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting run %s: %w", rec.RunID, err)
	}
	return nil
}

// Recent returns the most recently finished runs, newest first.
func (idx *Index) Recent(limit int) ([]Record, error) {
	rows, err := idx.db.Query(
		`SELECT run_id, command, outcome, termination_reason, final_score, iterations_used, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var outcome, reason string
		if err := rows.Scan(&rec.RunID, &rec.Command, &outcome, &reason, &rec.FinalScore,
			&rec.IterationsUsed, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		rec.Outcome = models.Outcome(outcome)
		rec.TerminationReason = models.TerminationReason(reason)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FromResult builds a Record from a completed run, for callers that
// already hold an ExecuteResult and only need to time-stamp it.
func FromResult(result models.ExecuteResult, command string, startedAt, finishedAt time.Time) Record {
	reason := result.TerminationReason
	score := 0.0
	if result.FinalAssessment != nil {
		score = result.FinalAssessment.FinalScore
	}
	return Record{
		RunID:             result.RunID,
		Command:           command,
		Outcome:           result.Outcome,
		TerminationReason: reason,
		FinalScore:        score,
		IterationsUsed:    result.IterationsUsed,
		StartedAt:         startedAt,
		FinishedAt:        finishedAt,
	}
}
