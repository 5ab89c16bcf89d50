// Package reading tracks per-book reading progress and session
// start/end, grounded on
// original_source/backend/app/services/reading_service.py.
package reading

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// completionThreshold mirrors the original service's 95% cutoff for
// marking a book's reading progress complete.
const completionThreshold = 0.95

// Progress is one book's reading_progress row.
type Progress struct {
	BookID       uuid.UUID
	CurrentPage  int
	TotalPages   int
	SessionStart *time.Time
	SessionEnd   *time.Time
	UpdatedAt    time.Time
}

// Percent returns the fraction of TotalPages read, or 0 if TotalPages
// is unknown.
func (p Progress) Percent() float64 {
	if p.TotalPages <= 0 {
		return 0
	}
	return float64(p.CurrentPage) / float64(p.TotalPages)
}

// Completed reports whether Percent has crossed completionThreshold.
func (p Progress) Completed() bool {
	return p.Percent() >= completionThreshold
}

// Stats summarizes reading activity across the whole library.
type Stats struct {
	BooksReading   int
	BooksCompleted int
}

// Tracker is the reading-progress store.
type Tracker struct {
	db *pgxpool.Pool
}

// New builds a Tracker.
func New(db *pgxpool.Pool) *Tracker {
	return &Tracker{db: db}
}

// Get returns bookID's reading progress, or a zero-value Progress if
// no row exists yet.
func (t *Tracker) Get(ctx context.Context, bookID uuid.UUID) (Progress, error) {
	p := Progress{BookID: bookID}
	err := t.db.QueryRow(ctx, `
		SELECT current_page, total_pages, session_start, session_end, updated_at
		FROM reading_progress WHERE book_id = $1`, bookID).
		Scan(&p.CurrentPage, &p.TotalPages, &p.SessionStart, &p.SessionEnd, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return p, nil
		}
		return Progress{}, fmt.Errorf("load reading progress for book %s: %w", bookID, err)
	}
	return p, nil
}

// UpdateProgress upserts bookID's current/total page counts. A zero
// value for either leaves that field unchanged.
func (t *Tracker) UpdateProgress(ctx context.Context, bookID uuid.UUID, currentPage, totalPages int) (Progress, error) {
	existing, err := t.Get(ctx, bookID)
	if err != nil {
		return Progress{}, err
	}

	if currentPage > 0 {
		existing.CurrentPage = currentPage
	}
	if totalPages > 0 {
		existing.TotalPages = totalPages
	}

	_, err = t.db.Exec(ctx, `
		INSERT INTO reading_progress (book_id, current_page, total_pages, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (book_id) DO UPDATE SET
			current_page = $2, total_pages = $3, updated_at = now()`,
		bookID, existing.CurrentPage, existing.TotalPages)
	if err != nil {
		return Progress{}, fmt.Errorf("update reading progress for book %s: %w", bookID, err)
	}
	return t.Get(ctx, bookID)
}

// StartSession stamps session_start for bookID, creating its progress
// row if one doesn't exist yet.
func (t *Tracker) StartSession(ctx context.Context, bookID uuid.UUID) error {
	_, err := t.db.Exec(ctx, `
		INSERT INTO reading_progress (book_id, session_start, session_end)
		VALUES ($1, now(), NULL)
		ON CONFLICT (book_id) DO UPDATE SET session_start = now(), session_end = NULL`,
		bookID)
	if err != nil {
		return fmt.Errorf("start reading session for book %s: %w", bookID, err)
	}
	return nil
}

// EndSession stamps session_end and advances current_page by
// pagesRead, if a session is open. A no-op if no session_start is
// recorded.
func (t *Tracker) EndSession(ctx context.Context, bookID uuid.UUID, pagesRead int) (Progress, error) {
	existing, err := t.Get(ctx, bookID)
	if err != nil {
		return Progress{}, err
	}
	if existing.SessionStart == nil {
		return existing, nil
	}

	newPage := existing.CurrentPage + pagesRead
	_, err = t.db.Exec(ctx, `
		UPDATE reading_progress SET session_end = now(), current_page = $2, updated_at = now()
		WHERE book_id = $1`, bookID, newPage)
	if err != nil {
		return Progress{}, fmt.Errorf("end reading session for book %s: %w", bookID, err)
	}
	return t.Get(ctx, bookID)
}

// LibraryStats aggregates reading/completed counts across all books,
// mirroring the original service's get_reading_stats.
func (t *Tracker) LibraryStats(ctx context.Context) (Stats, error) {
	rows, err := t.db.Query(ctx, `SELECT current_page, total_pages FROM reading_progress`)
	if err != nil {
		return Stats{}, fmt.Errorf("load reading stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var current, total int
		if err := rows.Scan(&current, &total); err != nil {
			return Stats{}, fmt.Errorf("scan reading stats row: %w", err)
		}
		p := Progress{CurrentPage: current, TotalPages: total}
		switch {
		case p.Completed():
			stats.BooksCompleted++
		case current > 0:
			stats.BooksReading++
		}
	}
	return stats, rows.Err()
}
