package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/alexmercer/bookbrain/internal/jobstore"
	"github.com/alexmercer/bookbrain/internal/providers"
)

const maxInsightContentChars = 50000

// insightPayload carries which refinement pass this run is.
type insightPayload struct {
	PassLevel int `json:"pass_level"`
}

// Insights samples chunks, runs three independent LLM sub-extractions
// (concepts, frameworks, takeaways), and persists whatever succeeds. One
// sub-extraction failing never aborts the others (S6); the stage as a
// whole fails only on setup and bookkeeping errors: the status update,
// payload decode, book lookup, chunk sampling, a missing LLM or embedding
// client, the final completed update, or scheduling enrichment.
func Insights(ctx context.Context, deps Deps, job *jobstore.Job) error {
	bookID := job.BookID
	log := deps.log().With("stage", "insights", "book_id", bookID)

	if err := setBookStatus(ctx, deps.DB, bookID, "generating_insights"); err != nil {
		return fmt.Errorf("set status generating_insights: %w", err)
	}

	var payload insightPayload
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode job payload: %w", err)
		}
	}
	passLevel := payload.PassLevel
	if passLevel < 1 {
		passLevel = 1
	}

	sampleSize := 20
	if passLevel > 1 {
		sampleSize = 50
	}

	var title, author string
	if err := deps.DB.QueryRow(ctx, `SELECT title, author FROM books WHERE id = $1`, bookID).Scan(&title, &author); err != nil {
		return fmt.Errorf("load book: %w", err)
	}

	rows, err := deps.DB.Query(ctx, `
		SELECT content FROM book_chunks
		WHERE book_id = $1 ORDER BY chunk_index LIMIT $2`, bookID, sampleSize)
	if err != nil {
		return fmt.Errorf("sample chunks: %w", err)
	}
	var texts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			rows.Close()
			return fmt.Errorf("scan chunk: %w", err)
		}
		texts = append(texts, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate chunks: %w", err)
	}

	content := strings.Join(texts, "\n\n---\n\n")
	if len(content) > maxInsightContentChars {
		content = content[:maxInsightContentChars]
	}

	llm, err := deps.Registry.GetLLM("")
	if err != nil {
		return fmt.Errorf("llm unavailable: %w", err)
	}
	embedder, err := deps.Registry.Embedder()
	if err != nil {
		return fmt.Errorf("embedder unavailable: %w", err)
	}

	persisted := 0
	for _, p := range insightPrompts {
		items, err := runInsightExtraction(ctx, llm, p.template, title, author, content)
		if err != nil {
			log.Warn("insight sub-extraction failed, skipping", "type", p.insightType, "error", err)
			continue
		}
		for _, item := range items {
			if err := persistInsight(ctx, deps, embedder, bookID, p.insightType, item, passLevel); err != nil {
				log.Warn("persist insight failed", "type", p.insightType, "error", err)
				continue
			}
			persisted++
		}
	}

	log.Info("insight extraction complete", "persisted", persisted, "pass_level", passLevel)

	// Partial success is still success: the book is marked completed even
	// when every sub-extraction was skipped and nothing was persisted.
	if _, err := deps.DB.Exec(ctx, `
		UPDATE books SET processing_status = 'completed', processing_progress = 100, updated_at = now()
		WHERE id = $1`, bookID); err != nil {
		return fmt.Errorf("mark book completed: %w", err)
	}

	if _, err := deps.Dispatch.Enqueue(ctx, bookID, jobstore.StageEnrich, nil); err != nil {
		return fmt.Errorf("schedule enrichment: %w", err)
	}
	return nil
}

func runInsightExtraction(ctx context.Context, llm providers.LLMClient, template, title, author, content string) ([]insightItem, error) {
	prompt := renderPrompt(template, title, author, content)
	result, err := llm.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemInsight},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm call: %w", err)
	}
	return parseInsightItems(result.Content)
}

func persistInsight(ctx context.Context, deps Deps, embedder providers.EmbeddingClient, bookID uuid.UUID, insightType string, item insightItem, passLevel int) error {
	importance := item.Importance
	if importance == 0 {
		importance = 5
	}

	vectors, err := embedder.Embed(ctx, []string{fmt.Sprintf("%s: %s", item.Title, item.Content)})
	if err != nil {
		return fmt.Errorf("embed insight: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embed insight: no vector returned")
	}

	_, err = deps.DB.Exec(ctx, `
		INSERT INTO book_insights (book_id, type, title, content, importance, refinement_level, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7::vector)`,
		bookID, insightType, item.Title, item.Content, importance, passLevel, encodeVector(vectors[0]))
	return err
}
