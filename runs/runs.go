// Package runs keeps a history of scrape invocations in SQLite.
package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/quotescrape/scraper"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var (
	ErrRunNotFound        = errors.New("run not found")
	ErrRunAlreadyFinished = errors.New("run already finished")
	ErrInvalidStatus      = errors.New("status must be running, succeeded, or failed")
	ErrInvalidRunID       = errors.New("run id may only contain hex digits and '-'")
)

// RunStore records scrape runs using SQLite.
type RunStore struct {
	db *sql.DB
}

// Run is one scrape invocation.
type Run struct {
	RunID      uuid.UUID           `json:"run_id"`
	StartURL   string              `json:"start_url"`
	OutputPath string              `json:"output_path"`
	Format     string              `json:"format"`
	Status     string              `json:"status"`
	Pages      int                 `json:"pages"`
	Quotes     int                 `json:"quotes"`
	Skipped    int                 `json:"skipped"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	LastError  *string             `json:"last_error,omitempty"`
	Selectors  *scraper.PageConfig `json:"selectors,omitempty"`
	URLs       []string            `json:"urls,omitempty"` // pages fetched, in order
}

// Duration is the wall time of a finished run, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome holds the counters recorded when a run finishes.
type Outcome struct {
	Pages   int
	Quotes  int
	Skipped int
	URLs    []string
	Err     error
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Status *string
	Limit  int
	Offset int
}

// NewRunStore opens (or creates) the history database at dbPath.
func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &RunStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		start_url TEXT NOT NULL,
		output_path TEXT NOT NULL,
		format TEXT NOT NULL,
		status TEXT NOT NULL,
		pages INTEGER DEFAULT 0,
		quotes INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		last_error TEXT,
		selectors TEXT,
		urls TEXT
	);
	CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// CreateRun records the start of a run.
func (s *RunStore) CreateRun(
	startURL, outputPath, format string,
	selectors *scraper.PageConfig,
) (*Run, error) {
	run := &Run{
		RunID:      uuid.New(),
		StartURL:   startURL,
		OutputPath: outputPath,
		Format:     format,
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC().Truncate(0),
		Selectors:  selectors,
	}

	var selectorsJSON *string
	if selectors != nil {
		data, err := json.Marshal(selectors)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal selectors: %w", err)
		}
		str := string(data)
		selectorsJSON = &str
	}

	query := `
		INSERT INTO runs (
			run_id, start_url, output_path, format, status, started_at, selectors
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.RunID.String(),
		run.StartURL,
		run.OutputPath,
		run.Format,
		run.Status,
		formatTime(&run.StartedAt),
		selectorsJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

// FinishRun marks a running run as succeeded, or failed when outcome.Err is
// set, and stores its counters.
func (s *RunStore) FinishRun(runID uuid.UUID, outcome Outcome) error {
	status := StatusSucceeded
	var lastError *string
	if outcome.Err != nil {
		status = StatusFailed
		msg := outcome.Err.Error()
		lastError = &msg
	}

	var urlsJSON *string
	if len(outcome.URLs) > 0 {
		data, err := json.Marshal(outcome.URLs)
		if err != nil {
			return fmt.Errorf("failed to marshal urls: %w", err)
		}
		str := string(data)
		urlsJSON = &str
	}

	now := time.Now().UTC()
	query := `
		UPDATE runs
		SET status = ?, pages = ?, quotes = ?, skipped = ?,
		    finished_at = ?, last_error = ?, urls = ?
		WHERE run_id = ? AND status = ?
	`

	result, err := s.db.Exec(query,
		status, outcome.Pages, outcome.Quotes, outcome.Skipped,
		formatTime(&now), lastError, urlsJSON,
		runID.String(), StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish an unknown id from a second finish.
		if _, err := s.GetRun(runID); err != nil {
			return err
		}
		return ErrRunAlreadyFinished
	}

	return nil
}

const selectColumns = `
	SELECT run_id, start_url, output_path, format, status,
	       pages, quotes, skipped, started_at, finished_at, last_error, selectors,
	       urls
	FROM runs
`

type rowScanner interface {
	Scan(dest ...any) error
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(selectColumns+" WHERE run_id = ?", runID.String())

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns lists runs, newest first.
func (s *RunStore) ListRuns(filter RunFilter) ([]Run, error) {
	query := selectColumns
	var args []any

	if filter.Status != nil {
		switch *filter.Status {
		case StatusRunning, StatusSucceeded, StatusFailed:
		default:
			return nil, ErrInvalidStatus
		}
		query += " WHERE status = ?"
		args = append(args, *filter.Status)
	}

	query += " ORDER BY started_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a run from the history.
func (s *RunStore) DeleteRun(runID uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM runs WHERE run_id = ?", runID.String())
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}

	return nil
}

// FindRun resolves a full run ID or a unique prefix of one.
func (s *RunStore) FindRun(idOrPrefix string) (*Run, error) {
	if id, err := uuid.Parse(idOrPrefix); err == nil {
		return s.GetRun(id)
	}

	prefix := strings.ToLower(strings.TrimSpace(idOrPrefix))
	if prefix == "" {
		return nil, ErrRunNotFound
	}
	// The prefix goes into LIKE, so % and _ must never reach it.
	if strings.Trim(prefix, "0123456789abcdef-") != "" {
		return nil, fmt.Errorf("%q: %w", idOrPrefix, ErrInvalidRunID)
	}

	rows, err := s.db.Query(selectColumns+" WHERE run_id LIKE ? LIMIT 2", prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, ErrRunNotFound
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

func scanRun(row rowScanner) (*Run, error) {
	var runIDStr, startedAtStr string
	var finishedAtStr, lastError, selectorsJSON, urlsJSON sql.NullString
	run := &Run{}

	err := row.Scan(
		&runIDStr, &run.StartURL, &run.OutputPath, &run.Format, &run.Status,
		&run.Pages, &run.Quotes, &run.Skipped,
		&startedAtStr, &finishedAtStr, &lastError, &selectorsJSON, &urlsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}
	run.StartedAt = parseTime(startedAtStr)

	if finishedAtStr.Valid {
		t := parseTime(finishedAtStr.String)
		run.FinishedAt = &t
	}
	if lastError.Valid {
		run.LastError = &lastError.String
	}
	if selectorsJSON.Valid {
		var selectors scraper.PageConfig
		if err := json.Unmarshal([]byte(selectorsJSON.String), &selectors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal selectors: %w", err)
		}
		run.Selectors = &selectors
	}
	if urlsJSON.Valid {
		if err := json.Unmarshal([]byte(urlsJSON.String), &run.URLs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal urls: %w", err)
		}
	}

	return run, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
