package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunDone        RunStatus = "done"
	RunFailed      RunStatus = "failed"
	RunCanceled    RunStatus = "canceled"
	RunInterrupted RunStatus = "interrupted"
)

// JobStatus represents the outcome of a job.
type JobStatus string

const (
	JobDone   JobStatus = "done"
	JobFailed JobStatus = "failed"
)

// Run is one agent run for a brief.
type Run struct {
	ID          string                  `json:"id"`
	Brief       string                  `json:"brief"`
	Status      RunStatus               `json:"status"`
	Parameters  *models.SoundParameters `json:"parameters,omitempty"`
	LibraryPath string                  `json:"library_path,omitempty"`
	Error       string                  `json:"error,omitempty"`
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}

// Job is the recorded outcome of one render.
type Job struct {
	RunID      string    `json:"run_id"`
	Index      int       `json:"index"`
	Prompt     string    `json:"prompt"`
	Duration   float64   `json:"duration"`
	Influence  float64   `json:"influence"`
	Status     JobStatus `json:"status"`
	OutputPath string    `json:"output_path,omitempty"`
	RemoteURI  string    `json:"remote_uri,omitempty"`
	// Loudness and Peak are NaN when not measured.
	Loudness  float64   `json:"-"`
	Peak      float64   `json:"-"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRun records the start of a run.
func (db *DB) CreateRun(r *Run) error {
	if r.Status == "" {
		r.Status = RunRunning
	}
	_, err := db.Exec(`
		INSERT INTO runs (id, brief, status, started_at)
		VALUES (?, ?, ?, ?)
	`, r.ID, r.Brief, string(r.Status), formatTime(r.StartedAt))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// SetParameters stores the decomposed parameters of a run.
func (db *DB) SetParameters(runID string, params *models.SoundParameters) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	if _, err := db.Exec(`UPDATE runs SET parameters = ? WHERE id = ?`, string(data), runID); err != nil {
		return fmt.Errorf("set parameters: %w", err)
	}
	return nil
}

// FinishRun records the final status of a run.
func (db *DB) FinishRun(runID string, status RunStatus, libraryPath, errMsg string, at time.Time) error {
	_, err := db.Exec(`
		UPDATE runs SET status = ?, library_path = ?, error = ?, completed_at = ?
		WHERE id = ?
	`, string(status), nullString(libraryPath), nullString(errMsg), formatTime(at), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordJob stores the outcome of a job, replacing any earlier record for
// the same index.
func (db *DB) RecordJob(j *Job) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO jobs (run_id, job_index, prompt, duration, influence, status,
			output_path, remote_uri, loudness, peak, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.RunID, j.Index, j.Prompt, j.Duration, j.Influence, string(j.Status),
		nullString(j.OutputPath), nullString(j.RemoteURI), finite(j.Loudness), finite(j.Peak),
		nullString(j.Error), formatTime(j.CreatedAt))
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil when no run matches.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, brief, status, parameters, library_path, error, started_at, completed_at
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT id, brief, status, parameters, library_path, error, started_at, completed_at
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// ListJobs returns the jobs of a run in index order.
func (db *DB) ListJobs(runID string) ([]Job, error) {
	rows, err := db.Query(`
		SELECT run_id, job_index, prompt, duration, influence, status,
			output_path, remote_uri, loudness, peak, error, created_at
		FROM jobs WHERE run_id = ? ORDER BY job_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var outputPath, remoteURI, errMsg sql.NullString
		var loudness, peak sql.NullFloat64
		var createdAt string
		if err := rows.Scan(&j.RunID, &j.Index, &j.Prompt, &j.Duration, &j.Influence, &j.Status,
			&outputPath, &remoteURI, &loudness, &peak, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.OutputPath = outputPath.String
		j.RemoteURI = remoteURI.String
		j.Error = errMsg.String
		j.Loudness = math.NaN()
		if loudness.Valid {
			j.Loudness = loudness.Float64
		}
		j.Peak = math.NaN()
		if peak.Valid {
			j.Peak = peak.Float64
		}
		j.CreatedAt, _ = parseTime(createdAt)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// PurgeOldRuns deletes runs started before olderThan ago, with their jobs.
// Returns the number of runs deleted.
func (db *DB) PurgeOldRuns(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	result, err := db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old runs: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var params, libraryPath, errMsg, completedAt sql.NullString
	var startedAt string
	if err := s.Scan(&r.ID, &r.Brief, &r.Status, &params, &libraryPath, &errMsg, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	if params.Valid && params.String != "" {
		var p models.SoundParameters
		if err := json.Unmarshal([]byte(params.String), &p); err == nil {
			r.Parameters = &p
		}
	}
	r.LibraryPath = libraryPath.String
	r.Error = errMsg.String
	r.StartedAt, _ = parseTime(startedAt)
	r.CompletedAt = parseNullableTime(completedAt)
	return &r, nil
}
