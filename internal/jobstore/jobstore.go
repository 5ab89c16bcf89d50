// Package jobstore is the durable record of pipeline work: one row per
// (book, stage) processing attempt in Postgres. It is the sole
// serialization primitive for "is this stage already running" — claiming a
// job takes a row lock rather than an in-process mutex or a distributed
// lock, so it's correct across any number of worker processes.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stage names, matching the pipeline's five-stage envelope.
const (
	StageExtract  = "extract"
	StageChunk    = "chunk"
	StageEmbed    = "embed"
	StageInsights = "insights"
	StageEnrich   = "enrich"
)

// Status values a job row can hold.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a job row doesn't exist.
var ErrNotFound = errors.New("job not found")

// Job is one row of processing_jobs.
type Job struct {
	ID          uuid.UUID
	BookID      uuid.UUID
	Stage       string
	Status      string
	Attempts    int
	MaxAttempts int
	LastError   string
	Payload     json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Store is the durable job table, backed by Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a connection pool as a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Enqueue upserts the pending job for a book/stage with an optional JSON
// payload carrying stage-specific parameters. (book_id, stage) uniquely
// identifies one job row, so re-enqueuing a stage that already has a row
// resets that same row to pending rather than inserting a second one --
// the row is the latch Claim locks, and a duplicate row would let two
// workers run the same (book, stage) concurrently. A row that's currently
// running is left untouched; the caller's enqueue is a no-op in that case
// and Enqueue returns the running row as-is.
func (s *Store) Enqueue(ctx context.Context, bookID uuid.UUID, stage string, payload any) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}
	if raw == nil || string(raw) == "null" {
		raw = []byte(`{}`)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO processing_jobs (book_id, stage, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (book_id, stage) DO UPDATE
		SET status = 'pending', attempts = 0, last_error = '', payload = EXCLUDED.payload,
		    started_at = NULL, completed_at = NULL, updated_at = now()
		WHERE processing_jobs.status <> 'running'
		RETURNING id, book_id, stage, status, attempts, max_attempts, last_error, payload, created_at, updated_at, started_at, completed_at`,
		bookID, stage, raw)

	job, err := scanJob(row)
	if errors.Is(err, ErrNotFound) {
		// The existing (book, stage) row is running, so the DO UPDATE's WHERE
		// clause skipped it; return its current state instead of a new row.
		return s.getByBookStage(ctx, bookID, stage)
	}
	return job, err
}

func (s *Store) getByBookStage(ctx context.Context, bookID uuid.UUID, stage string) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, book_id, stage, status, attempts, max_attempts, last_error, payload, created_at, updated_at, started_at, completed_at
		FROM processing_jobs WHERE book_id = $1 AND stage = $2`, bookID, stage)
	return scanJob(row)
}

// Claim atomically transitions the oldest pending-or-failed job for the
// given stage from pending/failed to running, row-locked so concurrent
// workers never claim the same job twice. Returns (nil, nil) when there is
// no claimable job.
func (s *Store) Claim(ctx context.Context, stage string) (*Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, book_id, stage, status, attempts, max_attempts, last_error, payload, created_at, updated_at, started_at, completed_at
		FROM processing_jobs
		WHERE stage = $1 AND status IN ('pending', 'failed') AND attempts < max_attempts
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1`, stage)

	job, err := scanJob(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE processing_jobs SET status = 'running', started_at = now(), updated_at = now()
		WHERE id = $1`, job.ID); err != nil {
		return nil, fmt.Errorf("mark running: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	job.Status = StatusRunning
	return job, nil
}

// MarkCompleted finalizes a running job as completed.
func (s *Store) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE processing_jobs SET status = 'completed', completed_at = now(), updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkFailed records an error against a running job. If attempts remain
// under max_attempts the job goes back to pending so Claim can retry it;
// otherwise it's terminally failed.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE processing_jobs
		SET attempts = attempts + 1,
		    last_error = $2,
		    updated_at = now(),
		    status = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END
		WHERE id = $1`, id, errMessage(cause))
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// Get fetches a job by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, book_id, stage, status, attempts, max_attempts, last_error, payload, created_at, updated_at, started_at, completed_at
		FROM processing_jobs WHERE id = $1`, id)
	return scanJob(row)
}

// ListForBook returns every job row for a book, most recent first.
func (s *Store) ListForBook(ctx context.Context, bookID uuid.UUID) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, book_id, stage, status, attempts, max_attempts, last_error, payload, created_at, updated_at, started_at, completed_at
		FROM processing_jobs WHERE book_id = $1 ORDER BY created_at DESC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list jobs for book: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// ListActive returns every pending or running job row across all books,
// most recently updated first. Used to drive the /ws/processing feed.
func (s *Store) ListActive(ctx context.Context) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, book_id, stage, status, attempts, max_attempts, last_error, payload, created_at, updated_at, started_at, completed_at
		FROM processing_jobs WHERE status IN ('pending', 'running') ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// RunningCountForBook reports how many stages are currently running for a
// book. Used by invariants/tests asserting at-most-one-running-job-per-stage
// holds at the book level too.
func (s *Store) RunningCountForBook(ctx context.Context, bookID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM processing_jobs WHERE book_id = $1 AND status = 'running'`, bookID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count running jobs: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.BookID, &j.Stage, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.LastError, &j.Payload, &j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
