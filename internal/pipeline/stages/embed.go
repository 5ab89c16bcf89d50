package stages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/alexmercer/bookbrain/internal/jobstore"
)

const embedBatchSize = 64

// Embed fills in null chunk embeddings in chunk_index order, committing
// progress after every batch so Book.processing_progress is observable
// mid-run rather than only at completion.
func Embed(ctx context.Context, deps Deps, job *jobstore.Job) error {
	bookID := job.BookID

	if err := setBookStatus(ctx, deps.DB, bookID, "embedding"); err != nil {
		return fmt.Errorf("set status embedding: %w", err)
	}

	var total int
	if err := deps.DB.QueryRow(ctx, `SELECT count(*) FROM book_chunks WHERE book_id = $1`, bookID).Scan(&total); err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	if total == 0 {
		// Nothing to embed (e.g. an empty book); still a completed outcome.
		return scheduleInsights(ctx, deps, bookID)
	}

	embedder, err := deps.Registry.Embedder()
	if err != nil {
		return fmt.Errorf("embedder unavailable: %w", err)
	}

	var embedded int
	for {
		type pending struct {
			id      uuid.UUID
			content string
		}
		rows, err := deps.DB.Query(ctx, `
			SELECT id, content FROM book_chunks
			WHERE book_id = $1 AND embedding IS NULL
			ORDER BY chunk_index LIMIT $2`, bookID, embedBatchSize)
		if err != nil {
			return fmt.Errorf("select pending chunks: %w", err)
		}
		var batch []pending
		for rows.Next() {
			var p pending
			if err := rows.Scan(&p.id, &p.content); err != nil {
				rows.Close()
				return fmt.Errorf("scan pending chunk: %w", err)
			}
			batch = append(batch, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate pending chunks: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.content
		}
		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed batch: got %d vectors for %d inputs", len(vectors), len(batch))
		}

		tx, err := deps.DB.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin embed batch tx: %w", err)
		}
		for i, p := range batch {
			if _, err := tx.Exec(ctx, `UPDATE book_chunks SET embedding = $2::vector WHERE id = $1`,
				p.id, encodeVector(vectors[i])); err != nil {
				tx.Rollback(ctx)
				return fmt.Errorf("write embedding for chunk %s: %w", p.id, err)
			}
		}
		embedded += len(batch)
		progress := int(float64(embedded) / float64(total) * 100)
		if _, err := tx.Exec(ctx, `UPDATE books SET processing_progress = $2, updated_at = now() WHERE id = $1`,
			bookID, progress); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("update progress: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit embed batch: %w", err)
		}
	}

	return scheduleInsights(ctx, deps, bookID)
}

func scheduleInsights(ctx context.Context, deps Deps, bookID uuid.UUID) error {
	payload := map[string]any{"pass_level": 1}
	if _, err := deps.Dispatch.Enqueue(ctx, bookID, jobstore.StageInsights, payload); err != nil {
		return fmt.Errorf("schedule insights: %w", err)
	}
	return nil
}

// encodeVector formats a float32 vector as a pgvector literal, e.g.
// "[0.1,0.2,0.3]". pgvector accepts this text form cast to ::vector.
func encodeVector(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
