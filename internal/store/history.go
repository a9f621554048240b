// Package store keeps a SQLite history of analysis runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/spboyer/mfqbench/internal/models"
	"github.com/spboyer/mfqbench/internal/orchestration"
)

// ErrRunNotFound is returned when a run id is not in the history.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    models TEXT NOT NULL,
    questions INTEGER NOT NULL,
    interrupted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    llm TEXT NOT NULL,
    question TEXT NOT NULL,
    part INTEGER NOT NULL,
    moral_foundation TEXT NOT NULL,
    response TEXT NOT NULL,
    extracted_value INTEGER NOT NULL,
    timestamp TEXT,
    FOREIGN KEY (run_id) REFERENCES runs (id)
);

CREATE INDEX IF NOT EXISTS idx_results_run ON results (run_id);
`

// RunRecord is one row of the run history with its response counts.
type RunRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	Models      []string  `json:"models"`
	Questions   int       `json:"questions"`
	Interrupted bool      `json:"interrupted"`
	Total       int       `json:"total_responses"`
	Valid       int       `json:"valid_responses"`
}

// History is a run history backed by a SQLite file.
type History struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// SaveRun stores a run and all of its results in one transaction.
func (h *History) SaveRun(ctx context.Context, run *orchestration.Run) error {
	modelsJSON, err := json.Marshal(run.Models)
	if err != nil {
		return fmt.Errorf("encoding models: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, name, started_at, finished_at, models, questions, interrupted) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Name, formatTime(run.Started), formatTime(run.Finished), string(modelsJSON), run.Questions, run.Interrupted)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO results (run_id, llm, question, part, moral_foundation, response, extracted_value, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Results {
		var ts sql.NullString
		if !r.Timestamp.IsZero() {
			ts = sql.NullString{String: r.Timestamp.String(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, run.ID, r.LLM, r.Question, int(r.Part), r.Foundation, r.Response, r.ExtractedValue, ts); err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns every stored run, most recent first.
func (h *History) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT r.id, r.name, r.started_at, r.finished_at, r.models, r.questions, r.interrupted,
               COUNT(res.id), COALESCE(SUM(CASE WHEN res.extracted_value >= 0 THEN 1 ELSE 0 END), 0)
        FROM runs r
        LEFT JOIN results res ON res.run_id = r.id
        GROUP BY r.id
        ORDER BY r.started_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec               RunRecord
			started, finished string
			modelsJSON        string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &started, &finished, &modelsJSON, &rec.Questions, &rec.Interrupted, &rec.Total, &rec.Valid); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if rec.Started, err = parseTime(started); err != nil {
			return nil, err
		}
		if rec.Finished, err = parseTime(finished); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(modelsJSON), &rec.Models); err != nil {
			return nil, fmt.Errorf("decoding models of run %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Results returns the stored results of one run in insertion order.
func (h *History) Results(ctx context.Context, runID string) ([]models.QueryResult, error) {
	var exists int
	err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if exists == 0 {
		return nil, ErrRunNotFound
	}

	rows, err := h.db.QueryContext(ctx,
		"SELECT llm, question, part, moral_foundation, response, extracted_value, timestamp FROM results WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []models.QueryResult{}
	for rows.Next() {
		var (
			r    models.QueryResult
			part int
			ts   sql.NullString
		)
		if err := rows.Scan(&r.LLM, &r.Question, &part, &r.Foundation, &r.Response, &r.ExtractedValue, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Part = models.Part(part)
		if ts.Valid {
			parsed, err := models.ParseTimestamp(ts.String)
			if err != nil {
				return nil, err
			}
			r.Timestamp = parsed
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}
