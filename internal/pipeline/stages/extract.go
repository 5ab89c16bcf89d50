package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexmercer/bookbrain/internal/extract"
	"github.com/alexmercer/bookbrain/internal/jobstore"
)

const maxBodyExcerpt = 5000

// Extract reads the book's sole file, pulls page text, cover, and
// page count, and schedules Chunk on success.
func Extract(ctx context.Context, deps Deps, job *jobstore.Job) error {
	bookID := job.BookID
	log := deps.log().With("stage", "extract", "book_id", bookID)

	var path, currentTitle, currentAuthor string
	err := deps.DB.QueryRow(ctx, `
		SELECT f.path, b.title, b.author
		FROM book_files f JOIN books b ON b.id = f.book_id
		WHERE f.book_id = $1 LIMIT 1`, bookID).Scan(&path, &currentTitle, &currentAuthor)
	if err != nil {
		return fmt.Errorf("load book file: %w", err)
	}

	if err := setBookStatus(ctx, deps.DB, bookID, "extracting"); err != nil {
		return fmt.Errorf("set status extracting: %w", err)
	}

	result, err := extract.Extract(path)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	var bodyExcerpt strings.Builder
	for _, p := range result.Pages {
		if bodyExcerpt.Len() >= maxBodyExcerpt {
			break
		}
		bodyExcerpt.WriteString(p.Text)
		bodyExcerpt.WriteString("\n")
	}
	excerpt := bodyExcerpt.String()
	if len(excerpt) > maxBodyExcerpt {
		excerpt = excerpt[:maxBodyExcerpt]
	}

	// Only trust the extractor's title/author if the book still carries the
	// filename-derived default, so a user's manual edit is never clobbered.
	defaultTitle := filenameDefaultTitle(path)
	title, author := currentTitle, currentAuthor
	if currentTitle == defaultTitle && result.Metadata.Title != "" {
		title = result.Metadata.Title
	}
	if currentAuthor == "" && result.Metadata.Author != "" {
		author = result.Metadata.Author
	}

	coverPath := ""
	if result.Cover != nil {
		png, err := extract.ResizeCover(result.Cover)
		if err != nil {
			log.Warn("cover resize failed", "error", err)
		} else {
			dst := deps.Home.CoverPath(bookID.String())
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return fmt.Errorf("create covers dir: %w", err)
			}
			if err := os.WriteFile(dst, png, 0o644); err != nil {
				return fmt.Errorf("write cover: %w", err)
			}
			coverPath = dst
		}
	}

	_, err = deps.DB.Exec(ctx, `
		UPDATE books
		SET title = $2, author = $3, page_count = $4, body_excerpt = $5,
		    cover_path = CASE WHEN $6 <> '' THEN $6 ELSE cover_path END,
		    updated_at = now()
		WHERE id = $1`,
		bookID, title, author, result.PageCount, excerpt, coverPath)
	if err != nil {
		return fmt.Errorf("persist extract results: %w", err)
	}

	if _, err := deps.Dispatch.Enqueue(ctx, bookID, jobstore.StageChunk, nil); err != nil {
		return fmt.Errorf("schedule chunk: %w", err)
	}
	return nil
}

// filenameDefaultTitle mirrors the default title import derives from a
// bare filename, so Extract can tell a never-edited title from a user edit.
func filenameDefaultTitle(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}
