package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/alexmercer/bookbrain/internal/extract"
	"github.com/alexmercer/bookbrain/internal/jobstore"
	"github.com/alexmercer/bookbrain/internal/providers"
)

// Enrich looks up external bibliographic metadata for the book and fills
// in whatever fields the pipeline hasn't already populated. A metadata
// miss is a completed outcome, not a failure: enrichment is the terminal
// stage, and most books will simply lack a catalog match.
func Enrich(ctx context.Context, deps Deps, job *jobstore.Job) error {
	bookID := job.BookID
	log := deps.log().With("stage", "enrich", "book_id", bookID)

	var title, author, isbn, description, publisher, publishedDate, coverPath string
	var pageCount int
	var rating *float64
	err := deps.DB.QueryRow(ctx, `
		SELECT title, author, isbn, description, publisher, published_date, page_count, rating, cover_path
		FROM books WHERE id = $1`, bookID).
		Scan(&title, &author, &isbn, &description, &publisher, &publishedDate, &pageCount, &rating, &coverPath)
	if err != nil {
		return fmt.Errorf("load book: %w", err)
	}

	metadata, err := deps.Registry.Metadata()
	if err != nil {
		log.Info("no metadata provider configured, skipping enrichment")
		return finishEnrich(ctx, deps, bookID)
	}

	result, err := metadata.Lookup(ctx, providers.MetadataLookup{Title: title, Author: author, ISBN: isbn})
	if err != nil {
		log.Warn("metadata lookup failed", "error", err)
		return finishEnrich(ctx, deps, bookID)
	}
	if result == nil {
		log.Info("no metadata match found")
		return finishEnrich(ctx, deps, bookID)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal metadata result: %w", err)
	}
	if _, err := deps.DB.Exec(ctx, `
		INSERT INTO external_metadata (book_id, source, raw)
		VALUES ($1, $2, $3)
		ON CONFLICT (book_id) DO UPDATE SET source = $2, raw = $3, fetched_at = now()`,
		bookID, metadata.Name(), raw); err != nil {
		return fmt.Errorf("persist external metadata: %w", err)
	}

	if description == "" {
		description = result.Description
	}
	if isbn == "" {
		isbn = result.ISBN
	}
	if publisher == "" {
		publisher = result.Publisher
	}
	if publishedDate == "" {
		publishedDate = result.PublishedAt
	}
	if pageCount == 0 {
		pageCount = result.PageCount
	}
	if rating == nil && result.Rating != 0 {
		rating = &result.Rating
	}

	if coverPath == "" && result.CoverURL != "" {
		if dst, err := fetchAndStoreCover(ctx, deps, metadata, bookID.String(), result.CoverURL); err != nil {
			log.Warn("cover fetch failed", "error", err)
		} else {
			coverPath = dst
		}
	}

	_, err = deps.DB.Exec(ctx, `
		UPDATE books
		SET description = $2, isbn = $3, publisher = $4, published_date = $5, page_count = $6, rating = $7,
		    cover_path = CASE WHEN $8 <> '' THEN $8 ELSE cover_path END,
		    processing_status = 'completed', updated_at = now()
		WHERE id = $1`,
		bookID, description, isbn, publisher, publishedDate, pageCount, rating, coverPath)
	if err != nil {
		return fmt.Errorf("persist enrichment: %w", err)
	}

	return nil
}

func finishEnrich(ctx context.Context, deps Deps, bookID uuid.UUID) error {
	_, err := deps.DB.Exec(ctx, `
		UPDATE books SET processing_status = 'completed', updated_at = now() WHERE id = $1`, bookID)
	if err != nil {
		return fmt.Errorf("finish enrich: %w", err)
	}
	return nil
}

func fetchAndStoreCover(ctx context.Context, deps Deps, metadata providers.MetadataClient, bookID, url string) (string, error) {
	data, err := metadata.FetchCover(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch cover: %w", err)
	}
	img, err := extract.DecodeImage(data)
	if err != nil {
		return "", fmt.Errorf("decode cover: %w", err)
	}
	png, err := extract.ResizeCover(img)
	if err != nil {
		return "", fmt.Errorf("resize cover: %w", err)
	}
	dst := deps.Home.CoverPath(bookID)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create covers dir: %w", err)
	}
	if err := os.WriteFile(dst, png, 0o644); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	return dst, nil
}
