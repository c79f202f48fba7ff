package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one recorded Combine invocation.
type Job struct {
	ID              string    `json:"id"`
	SourceA         string    `json:"source_a"`
	SourceB         string    `json:"source_b"`
	Mode            string    `json:"mode"`
	Status          Status    `json:"status"`
	DurationA       float64   `json:"duration_a,omitempty"`
	DurationB       float64   `json:"duration_b,omitempty"`
	Duration        float64   `json:"duration,omitempty"`
	OutputBytes     int64     `json:"output_bytes"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CleanupWarnings int       `json:"cleanup_warnings"`
	CreatedAt       time.Time `json:"created_at"`
	FinishedAt      time.Time `json:"finished_at,omitzero"`
}

// Elapsed returns the wall time of a finished job, or zero while running.
func (j *Job) Elapsed() time.Duration {
	if j == nil || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.CreatedAt)
}

// Outcome captures the result written by Finish.
type Outcome struct {
	DurationA       float64
	DurationB       float64
	Duration        float64
	OutputBytes     int64
	CleanupWarnings int
	ErrorKind       string
	Err             error
}

const jobColumns = "id, source_a, source_b, mode, status, duration_a, duration_b, duration, output_bytes, error_kind, error_message, cleanup_warnings, created_at, finished_at"

// Create records a running job.
func (s *Store) Create(ctx context.Context, id, sourceA, sourceB, mode string) (*Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("job id required")
	}
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (id, source_a, source_b, mode, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, sourceA, sourceB, mode, StatusRunning, formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Finish stores the outcome of a job. A nil out.Err marks it completed.
func (s *Store) Finish(ctx context.Context, id string, out Outcome) (*Job, error) {
	status := StatusCompleted
	var errMsg string
	if out.Err != nil {
		status = StatusFailed
		errMsg = out.Err.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, duration_a = ?, duration_b = ?, duration = ?, output_bytes = ?,
             error_kind = ?, error_message = ?, cleanup_warnings = ?, finished_at = ?
         WHERE id = ?`,
		status,
		nullableFloat(out.DurationA),
		nullableFloat(out.DurationB),
		nullableFloat(out.Duration),
		out.OutputBytes,
		nullableString(out.ErrorKind),
		nullableString(errMsg),
		out.CleanupWarnings,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("finish job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("finish job: %s not found", id)
	}
	return s.Get(ctx, id)
}

// Get fetches a job by identifier. It returns nil without error when absent.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns the most recent jobs first, optionally filtered by status. A
// limit <= 0 returns every job.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Counts returns the number of jobs per status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

// Prune deletes finished jobs created before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM jobs WHERE status != ? AND created_at < ?`,
		StatusRunning, formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		status       string
		durationA    sql.NullFloat64
		durationB    sql.NullFloat64
		duration     sql.NullFloat64
		errorKind    sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.SourceA,
		&job.SourceB,
		&job.Mode,
		&status,
		&durationA,
		&durationB,
		&duration,
		&job.OutputBytes,
		&errorKind,
		&errorMessage,
		&job.CleanupWarnings,
		&createdRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.DurationA = durationA.Float64
	job.DurationB = durationB.Float64
	job.Duration = duration.Float64
	job.ErrorKind = errorKind.String
	job.ErrorMessage = errorMessage.String
	job.CreatedAt = parseTime(createdRaw)
	if finishedRaw.Valid {
		job.FinishedAt = parseTime(finishedRaw.String)
	}
	return &job, nil
}

// timeLayout is fixed width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullableFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}
