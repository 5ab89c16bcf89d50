// Package retrieval implements hybrid full-text + dense-vector search
// over book chunks, merged by Reciprocal Rank Fusion. It is read-only:
// callers hit it at query time, never from the processing pipeline.
package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexmercer/bookbrain/internal/providers"
)

// rrfK is Reciprocal Rank Fusion's rank-damping constant.
const rrfK = 60

// overfetch multiplies limit for each side's candidate set before fusion.
const overfetch = 2

// Chunk is a single retrieved passage, hydrated with its book's title
// and author.
type Chunk struct {
	ChunkID   uuid.UUID
	BookID    uuid.UUID
	BookTitle string
	Author    string
	Page      int
	Content   string
	Score     float64
}

// Retriever runs hybridSearch against Postgres FTS + pgvector ANN.
type Retriever struct {
	db       *pgxpool.Pool
	embedder providers.EmbeddingClient
}

// New builds a Retriever. embedder may be nil; Search then falls back to
// FTS alone.
func New(db *pgxpool.Pool, embedder providers.EmbeddingClient) *Retriever {
	return &Retriever{db: db, embedder: embedder}
}

// Search embeds the query once, runs the FTS and ANN candidate queries
// one after the other, fuses them by Reciprocal Rank Fusion, hydrates book
// title/author, and returns the top `limit` chunks.
func (r *Retriever) Search(ctx context.Context, query string, limit int, bookFilter []uuid.UUID) ([]Chunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 8
	}

	candidateLimit := limit * overfetch

	ftsResults, ftsErr := r.ftsSearch(ctx, query, candidateLimit, bookFilter)
	vectorResults, vecErr := r.vectorSearch(ctx, query, candidateLimit, bookFilter)

	// If FTS yields nothing, the semantic side alone wins; if embedding
	// fails, FTS alone wins. Both failing is the only real error.
	if ftsErr != nil && vecErr != nil {
		return nil, fmt.Errorf("fts: %v; vector: %v", ftsErr, vecErr)
	}
	if ftsErr != nil {
		ftsResults = nil
	}
	if vecErr != nil {
		vectorResults = nil
	}

	fused := fuse(ftsResults, vectorResults)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	return r.hydrate(ctx, fused)
}

type rankedID struct {
	chunkID uuid.UUID
	score   float64
}

// fuse merges two rank-ordered ID lists by Reciprocal Rank Fusion:
// score(doc) += 1/(k+rank0based+1) for each list it appears in. Ties
// break by smaller chunk_id (uuid.UUID's natural ordering is
// byte-lexicographic, which is a stable, arbitrary-but-deterministic
// tiebreak).
func fuse(fts, vector []uuid.UUID) []rankedID {
	scores := make(map[uuid.UUID]float64)
	add := func(ids []uuid.UUID) {
		for rank, id := range ids {
			scores[id] += 1.0 / float64(rrfK+rank+1)
		}
	}
	add(fts)
	add(vector)

	out := make([]rankedID, 0, len(scores))
	for id, score := range scores {
		out = append(out, rankedID{chunkID: id, score: score})
	}
	sortByScoreDesc(out)
	return out
}

func sortByScoreDesc(ids []rankedID) {
	// Insertion sort is fine: candidate sets are at most 2*overfetch*limit,
	// a small bound driven entirely by the caller's limit.
	for i := 1; i < len(ids); i++ {
		j := i
		for j > 0 && less(ids[j], ids[j-1]) {
			ids[j], ids[j-1] = ids[j-1], ids[j]
			j--
		}
	}
}

func less(a, b rankedID) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.chunkID.String() < b.chunkID.String()
}

func (r *Retriever) ftsSearch(ctx context.Context, query string, limit int, bookFilter []uuid.UUID) ([]uuid.UUID, error) {
	sql := `
		SELECT id FROM book_chunks
		WHERE search_vector @@ plainto_tsquery('english', $1)`
	args := []any{query}
	sql, args = appendBookFilter(sql, args, bookFilter)
	sql += fmt.Sprintf(" ORDER BY ts_rank(search_vector, plainto_tsquery('english', $1)) DESC LIMIT %d", limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan fts chunk: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Retriever) vectorSearch(ctx context.Context, query string, limit int, bookFilter []uuid.UUID) ([]uuid.UUID, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("no embedding client configured")
	}
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}
	literal := encodeVector(vectors[0])

	sql := `
		SELECT id FROM book_chunks
		WHERE embedding IS NOT NULL`
	args := []any{literal}
	sql, args = appendBookFilter(sql, args, bookFilter)
	sql += fmt.Sprintf(" ORDER BY embedding <=> $1::vector LIMIT %d", limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ann query: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ann chunk: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// appendBookFilter adds an `AND book_id = ANY($n)` clause when bookFilter
// is non-empty, reusing whatever args are already bound.
func appendBookFilter(sql string, args []any, bookFilter []uuid.UUID) (string, []any) {
	if len(bookFilter) == 0 {
		return sql, args
	}
	args = append(args, bookFilter)
	return sql + fmt.Sprintf(" AND book_id = ANY($%d)", len(args)), args
}

func (r *Retriever) hydrate(ctx context.Context, ranked []rankedID) ([]Chunk, error) {
	if len(ranked) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(ranked))
	scoreByID := make(map[uuid.UUID]float64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.chunkID
		scoreByID[r.chunkID] = r.score
	}

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.book_id, b.title, b.author, c.page, c.content
		FROM book_chunks c JOIN books b ON b.id = c.book_id
		WHERE c.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]Chunk, len(ranked))
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ChunkID, &c.BookID, &c.BookTitle, &c.Author, &c.Page, &c.Content); err != nil {
			return nil, fmt.Errorf("scan hydrated chunk: %w", err)
		}
		c.Score = scoreByID[c.ChunkID]
		byID[c.ChunkID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Chunk, 0, len(ranked))
	for _, r := range ranked {
		if c, ok := byID[r.chunkID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// encodeVector formats a float32 vector as a pgvector text literal.
func encodeVector(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
