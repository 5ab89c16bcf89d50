// Package insights provides read-path support for cross-book insight
// connections, grounded on
// original_source/backend/app/services/insight_service.py's
// find_insight_connections. No stage creates InsightConnection rows
// automatically; connections are surfaced for the user to review on
// request rather than inserted as a side effect of processing, so this
// package only serves the read path (GET /insights/{id}/connections).
package insights

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultConnectionLimit = 5

// Connection is one insight found near another, in a different book.
type Connection struct {
	InsightID uuid.UUID
	BookID    uuid.UUID
	Title     string
	Content   string
	Type      string
}

// Finder looks up nearest-neighbor insights across other books.
type Finder struct {
	db *pgxpool.Pool
}

// New builds a Finder.
func New(db *pgxpool.Pool) *Finder {
	return &Finder{db: db}
}

// FindConnections returns up to limit insights from books other than
// insightID's own, ordered by cosine distance to insightID's embedding.
// Returns an empty slice (not an error) if insightID has no embedding
// yet, matching the original service's best-effort behavior.
func (f *Finder) FindConnections(ctx context.Context, insightID uuid.UUID, limit int) ([]Connection, error) {
	if limit <= 0 {
		limit = defaultConnectionLimit
	}

	var bookID uuid.UUID
	var hasEmbedding bool
	err := f.db.QueryRow(ctx, `
		SELECT book_id, embedding IS NOT NULL FROM book_insights WHERE id = $1`, insightID).
		Scan(&bookID, &hasEmbedding)
	if err != nil {
		return nil, fmt.Errorf("load insight %s: %w", insightID, err)
	}
	if !hasEmbedding {
		return nil, nil
	}

	rows, err := f.db.Query(ctx, `
		SELECT id, book_id, title, content, type
		FROM book_insights
		WHERE id != $1 AND book_id != $2 AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM book_insights WHERE id = $1)
		LIMIT $3`, insightID, bookID, limit)
	if err != nil {
		return nil, fmt.Errorf("find connections for insight %s: %w", insightID, err)
	}
	defer rows.Close()

	var connections []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.InsightID, &c.BookID, &c.Title, &c.Content, &c.Type); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}
