// Package feed generates TIL-style feed items from recently persisted
// insights, backing the /feed surface and the orchestrator's
// generate_feed action.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexmercer/bookbrain/internal/providers"
)

// tilBatchSize mirrors the original feed service's generate_til_items default.
const tilBatchSize = 3

const generateTILPrompt = "You are summarizing a book insight as a short, shareable \"Today I Learned\" post.\n" +
	"Insight: \"{insight_title}\"\n{insight_content}\n\nBook: \"{book_title}\" by {author}\n\n" +
	"Respond as a JSON object with fields: title, content."

// Item is one generated feed entry.
type Item struct {
	ID       uuid.UUID
	Type     string // "til" | "quote" | "connection" | "digest"
	Title    string
	Content  string
	BookIDs  []uuid.UUID
	IsRead   bool
	IsPinned bool
}

// Generator produces feed items.
type Generator struct {
	db  *pgxpool.Pool
	llm providers.LLMClient
}

// New builds a Generator.
func New(db *pgxpool.Pool, llm providers.LLMClient) *Generator {
	return &Generator{db: db, llm: llm}
}

type tilResponse struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Generate samples up to tilBatchSize random key_concept insights and
// turns each into a "til" feed item. One insight's LLM call failing is
// skipped without logging; it never aborts the batch.
func (g *Generator) Generate(ctx context.Context) error {
	rows, err := g.db.Query(ctx, `
		SELECT i.id, i.title, i.content, b.id, b.title, b.author
		FROM book_insights i JOIN books b ON b.id = i.book_id
		WHERE i.type = 'key_concept'
		ORDER BY random() LIMIT $1`, tilBatchSize)
	if err != nil {
		return fmt.Errorf("sample insights: %w", err)
	}

	type candidate struct {
		insightID                     uuid.UUID
		insightTitle, insightContent  string
		bookID                        uuid.UUID
		bookTitle, author             string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.insightID, &c.insightTitle, &c.insightContent, &c.bookID, &c.bookTitle, &c.author); err != nil {
			rows.Close()
			return fmt.Errorf("scan insight candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range candidates {
		prompt := renderTILPrompt(c.insightTitle, c.insightContent, c.bookTitle, c.author)
		result, err := g.llm.Chat(ctx, &providers.ChatRequest{
			Messages: []providers.Message{{Role: "user", Content: prompt}},
		})
		if err != nil {
			continue
		}

		var parsed tilResponse
		title, content := "TIL: "+c.insightTitle, c.insightContent
		if json.Unmarshal([]byte(result.Content), &parsed) == nil {
			if parsed.Title != "" {
				title = parsed.Title
			}
			if parsed.Content != "" {
				content = parsed.Content
			}
		}

		if _, err := g.db.Exec(ctx, `
			INSERT INTO feed_items (type, title, content, book_ids)
			VALUES ('til', $1, $2, $3)`, title, content, []uuid.UUID{c.bookID}); err != nil {
			return fmt.Errorf("insert feed item for insight %s: %w", c.insightID, err)
		}
	}
	return nil
}

func renderTILPrompt(insightTitle, insightContent, bookTitle, author string) string {
	r := strings.NewReplacer(
		"{insight_title}", insightTitle,
		"{insight_content}", insightContent,
		"{book_title}", bookTitle,
		"{author}", author,
	)
	return r.Replace(generateTILPrompt)
}
