package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/alexmercer/bookbrain/internal/jobstore"
)

// processPendingBook is priority 1: the oldest Book still in status
// "pending" gets process_book dispatched against it.
func processPendingBook(ctx context.Context, b *Brain) (bool, error) {
	var id uuid.UUID
	err := b.db.QueryRow(ctx, `
		SELECT id FROM books WHERE processing_status = 'pending'
		ORDER BY created_at LIMIT 1`).Scan(&id)
	if errors.Is(err, pgxNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan pending book: %w", err)
	}

	if err := b.coordinator.ProcessBook(ctx, id); err != nil {
		return false, fmt.Errorf("process_book %s: %w", id, err)
	}
	b.logger.Info("dispatched process_book", "book_id", id)
	return true, nil
}

// resumeStuckBook is priority 2: the least-recently-updated Book stuck
// in an intermediate status gets Extract re-invoked. Re-entering at
// Extract is safe because every executor is idempotent within a single
// attempt and status is the only cross-stage coupling.
func resumeStuckBook(ctx context.Context, b *Brain) (bool, error) {
	var id uuid.UUID
	err := b.db.QueryRow(ctx, `
		SELECT id FROM books WHERE processing_status = ANY($1)
		ORDER BY updated_at LIMIT 1`, intermediateStatuses).Scan(&id)
	if errors.Is(err, pgxNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan stuck book: %w", err)
	}

	if err := b.coordinator.ProcessBook(ctx, id); err != nil {
		return false, fmt.Errorf("resume_processing %s: %w", id, err)
	}
	b.logger.Info("dispatched resume_processing", "book_id", id)
	return true, nil
}

// refineInsights is priority 3: a completed Book whose deepest insight
// refinement_level is below 3 gets another insights pass at
// current_max+1.
func refineInsights(ctx context.Context, b *Brain) (bool, error) {
	var id uuid.UUID
	var maxLevel int
	err := b.db.QueryRow(ctx, `
		SELECT b.id, COALESCE(MAX(i.refinement_level), 0)
		FROM books b
		LEFT JOIN book_insights i ON i.book_id = b.id
		WHERE b.processing_status = 'completed'
		GROUP BY b.id, b.created_at
		HAVING COALESCE(MAX(i.refinement_level), 0) < 3
		ORDER BY b.created_at LIMIT 1`).Scan(&id, &maxLevel)
	if errors.Is(err, pgxNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan refinement candidate: %w", err)
	}

	nextLevel := maxLevel + 1
	if _, err := b.coordinator.Dispatch().Enqueue(ctx, id, jobstore.StageInsights, map[string]any{"pass_level": nextLevel}); err != nil {
		return false, fmt.Errorf("refine_insights %s: %w", id, err)
	}
	b.logger.Info("dispatched refine_insights", "book_id", id, "pass_level", nextLevel)
	return true, nil
}

// generateFeed is priority 4: fewer than 5 unread feed items triggers a
// feed regeneration pass.
func generateFeed(ctx context.Context, b *Brain) (bool, error) {
	var unread int
	if err := b.db.QueryRow(ctx, `SELECT count(*) FROM feed_items WHERE is_read = false`).Scan(&unread); err != nil {
		return false, fmt.Errorf("count unread feed items: %w", err)
	}
	if unread >= 5 {
		return false, nil
	}

	if b.feedGenerator == nil {
		return false, nil
	}
	if err := b.feedGenerator.Generate(ctx); err != nil {
		return false, fmt.Errorf("generate_feed: %w", err)
	}
	b.logger.Info("dispatched generate_feed", "unread_before", unread)
	return true, nil
}

// enrichBook is priority 5: a completed Book with a null/empty
// description gets the Enrichment stage re-run.
func enrichBook(ctx context.Context, b *Brain) (bool, error) {
	var id uuid.UUID
	err := b.db.QueryRow(ctx, `
		SELECT id FROM books
		WHERE processing_status = 'completed' AND description = ''
		ORDER BY created_at LIMIT 1`).Scan(&id)
	if errors.Is(err, pgxNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan enrichment candidate: %w", err)
	}

	if _, err := b.coordinator.Dispatch().Enqueue(ctx, id, jobstore.StageEnrich, nil); err != nil {
		return false, fmt.Errorf("enrich_book %s: %w", id, err)
	}
	b.logger.Info("dispatched enrich_book", "book_id", id)
	return true, nil
}
