// Package stages implements the pipeline's per-stage executors: extract,
// chunk, embed, insights, enrich. Each follows the same envelope — load
// the book, do the stage's work inside the job row already claimed by the
// caller, update Book.processing_status, and schedule the next stage on
// success. Executors never re-raise: callers (internal/jobqueue's
// WorkerPool) turn a returned error into a jobstore retry, never a panic
// or a propagated failure.
package stages

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexmercer/bookbrain/internal/home"
	"github.com/alexmercer/bookbrain/internal/jobstore"
	"github.com/alexmercer/bookbrain/internal/providers"
)

// Dispatcher schedules the next stage's job row and wakes a worker for it.
// Satisfied by *internal/jobqueue.Dispatcher; an interface here avoids
// stages depending on jobqueue's Redis-specific plumbing.
type Dispatcher interface {
	Enqueue(ctx context.Context, bookID uuid.UUID, stage string, payload any) (*jobstore.Job, error)
}

// Deps are the resources every stage executor needs.
type Deps struct {
	DB       *pgxpool.Pool
	Registry *providers.Registry
	Home     *home.Dir
	Dispatch Dispatcher
	Logger   *slog.Logger
}

func (d Deps) log() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// setBookStatus stamps Book.processing_status, per the common envelope's
// "mutates Book.status to its stage name at entry" rule.
func setBookStatus(ctx context.Context, db *pgxpool.Pool, bookID uuid.UUID, status string) error {
	_, err := db.Exec(ctx, `UPDATE books SET processing_status = $2, updated_at = now() WHERE id = $1`, bookID, status)
	return err
}
