package stages

import (
	"context"
	"fmt"

	"github.com/alexmercer/bookbrain/internal/chunker"
	"github.com/alexmercer/bookbrain/internal/extract"
	"github.com/alexmercer/bookbrain/internal/jobstore"
)

// Chunk re-extracts the book's text (kept in memory only, never cached to
// disk) and replaces its chunk rows. Re-running Chunk is idempotent: it
// always deletes-then-inserts, so a duplicate delivery or manual re-run
// produces the same chunk_index set (S5).
func Chunk(ctx context.Context, deps Deps, job *jobstore.Job) error {
	bookID := job.BookID

	var path string
	if err := deps.DB.QueryRow(ctx, `
		SELECT path FROM book_files WHERE book_id = $1 LIMIT 1`, bookID).Scan(&path); err != nil {
		return fmt.Errorf("load book file: %w", err)
	}

	if err := setBookStatus(ctx, deps.DB, bookID, "chunking"); err != nil {
		return fmt.Errorf("set status chunking: %w", err)
	}

	result, err := extract.Extract(path)
	if err != nil {
		return fmt.Errorf("re-extract %s: %w", path, err)
	}

	pages := make([]chunker.Page, len(result.Pages))
	for i, p := range result.Pages {
		pages[i] = chunker.Page{Number: p.Number, Text: p.Text}
	}
	chunks := chunker.ChunkPages(pages, chunker.DefaultOptions())

	tx, err := deps.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM book_chunks WHERE book_id = $1`, bookID); err != nil {
		return fmt.Errorf("delete existing chunks: %w", err)
	}
	for _, c := range chunks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO book_chunks (book_id, chunk_index, content, page, token_count)
			VALUES ($1, $2, $3, $4, $5)`,
			bookID, c.Index, c.Content, c.Page, c.TokenCount); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}

	if _, err := deps.Dispatch.Enqueue(ctx, bookID, jobstore.StageEmbed, nil); err != nil {
		return fmt.Errorf("schedule embed: %w", err)
	}
	return nil
}
