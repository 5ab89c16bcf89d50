// Package knowledge aggregates insight connections and books into a
// read-only map of how the library's books relate, grounded on
// original_source/backend/app/services/knowledge_service.py's
// get_knowledge_map and get_knowledge_connections. There is no
// learning_paths table in this data model (see SPEC_FULL.md §3), so
// only the connection-graph half of the original service is ported.
package knowledge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// mapStrengthThreshold mirrors the original service's > 0.5 cutoff for
// including a connection edge in the knowledge map.
const mapStrengthThreshold = 0.5

const defaultConnectionLimit = 50

// Node is one book appearing in the knowledge map.
type Node struct {
	BookID uuid.UUID
	Title  string
	Author string
}

// Edge is one cross-book insight connection in the knowledge map.
type Edge struct {
	SourceBookID uuid.UUID
	TargetBookID uuid.UUID
	Strength     float64
	Description  string
}

// Map is the full book-to-book connection graph.
type Map struct {
	Nodes []Node
	Edges []Edge
}

// Connection is one insight-pair connection, with both sides' insight
// and book context resolved.
type Connection struct {
	InsightAID    uuid.UUID
	InsightATitle string
	BookAID       uuid.UUID
	BookATitle    string
	InsightBID    uuid.UUID
	InsightBTitle string
	BookBID       uuid.UUID
	BookBTitle    string
	Strength      float64
	Description   string
}

// Aggregator builds read-only views over insight connections and books.
type Aggregator struct {
	db *pgxpool.Pool
}

// New builds an Aggregator.
func New(db *pgxpool.Pool) *Aggregator {
	return &Aggregator{db: db}
}

// Connections returns the strongest insight connections across the
// library, each resolved to its insight and book context, ordered by
// descending strength.
func (a *Aggregator) Connections(ctx context.Context, limit int) ([]Connection, error) {
	if limit <= 0 {
		limit = defaultConnectionLimit
	}

	rows, err := a.db.Query(ctx, `
		SELECT
			ia.id, ia.title, ba.id, ba.title,
			ib.id, ib.title, bb.id, bb.title,
			c.strength, c.description
		FROM insight_connections c
		JOIN book_insights ia ON ia.id = c.insight_a
		JOIN book_insights ib ON ib.id = c.insight_b
		JOIN books ba ON ba.id = ia.book_id
		JOIN books bb ON bb.id = ib.book_id
		ORDER BY c.strength DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list knowledge connections: %w", err)
	}
	defer rows.Close()

	var connections []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(
			&c.InsightAID, &c.InsightATitle, &c.BookAID, &c.BookATitle,
			&c.InsightBID, &c.InsightBTitle, &c.BookBID, &c.BookBTitle,
			&c.Strength, &c.Description,
		); err != nil {
			return nil, fmt.Errorf("scan knowledge connection: %w", err)
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}

// Map builds the full knowledge map: every completed book that
// participates in at least one connection above mapStrengthThreshold,
// plus those connections as edges. Self-connections within the same
// book are excluded, matching the original service.
func (a *Aggregator) Map(ctx context.Context) (Map, error) {
	rows, err := a.db.Query(ctx, `
		SELECT DISTINCT
			ba.id, ba.title, ba.author,
			bb.id, bb.title, bb.author,
			c.strength, c.description
		FROM insight_connections c
		JOIN book_insights ia ON ia.id = c.insight_a
		JOIN book_insights ib ON ib.id = c.insight_b
		JOIN books ba ON ba.id = ia.book_id AND ba.processing_status = 'completed'
		JOIN books bb ON bb.id = ib.book_id AND bb.processing_status = 'completed'
		WHERE c.strength > $1 AND ia.book_id != ib.book_id`, mapStrengthThreshold)
	if err != nil {
		return Map{}, fmt.Errorf("list knowledge map connections: %w", err)
	}
	defer rows.Close()

	seen := make(map[uuid.UUID]Node)
	var edges []Edge
	for rows.Next() {
		var srcID, dstID uuid.UUID
		var srcTitle, srcAuthor, dstTitle, dstAuthor, description string
		var strength float64
		if err := rows.Scan(&srcID, &srcTitle, &srcAuthor, &dstID, &dstTitle, &dstAuthor, &strength, &description); err != nil {
			return Map{}, fmt.Errorf("scan knowledge map row: %w", err)
		}
		seen[srcID] = Node{BookID: srcID, Title: srcTitle, Author: srcAuthor}
		seen[dstID] = Node{BookID: dstID, Title: dstTitle, Author: dstAuthor}
		edges = append(edges, Edge{SourceBookID: srcID, TargetBookID: dstID, Strength: strength, Description: description})
	}
	if err := rows.Err(); err != nil {
		return Map{}, err
	}

	nodes := make([]Node, 0, len(seen))
	for _, n := range seen {
		nodes = append(nodes, n)
	}
	return Map{Nodes: nodes, Edges: edges}, nil
}
