// Package topics clusters books into topics by running k-means over
// each book's mean chunk embedding, grounded on
// original_source/backend/app/services/topic_service.py's
// run_topic_modeling. No clustering library exists anywhere in the
// retrieved example pack, so the k-means step itself is implemented
// directly over []float32 rather than pulled from a third-party
// package (see DESIGN.md for the full justification).
package topics

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sampleChunksPerBook mirrors the original service's per-book chunk
// sample size when averaging embeddings.
const sampleChunksPerBook = 20

// defaultBookRelevance mirrors the original service's fixed 0.8
// relevance assigned to every book in a freshly computed cluster.
const defaultBookRelevance = 0.8

// maxIterations bounds Lloyd's algorithm; convergence in practice is
// fast for the low-dimensional, small-n clustering this system does.
const maxIterations = 100

// Modeler runs topic modeling over completed books' embeddings.
type Modeler struct {
	db *pgxpool.Pool
}

// New builds a Modeler.
func New(db *pgxpool.Pool) *Modeler {
	return &Modeler{db: db}
}

// Run clusters completed books' mean chunk embeddings into nTopics
// topics (fewer if there aren't enough books to support nTopics
// clusters), replacing the existing topics/book_topics rows entirely.
func (m *Modeler) Run(ctx context.Context, nTopics int) error {
	bookIDs, err := m.completedBookIDs(ctx)
	if err != nil {
		return err
	}

	if len(bookIDs) < nTopics {
		nTopics = maxInt(2, len(bookIDs)/2)
	}

	vectors, validBooks, err := m.averageEmbeddings(ctx, bookIDs)
	if err != nil {
		return err
	}
	if len(vectors) < 2 {
		return nil // not enough signal to cluster meaningfully
	}
	if nTopics > len(vectors) {
		nTopics = len(vectors)
	}

	assignments, centroids := kmeans(vectors, nTopics, maxIterations)

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin topic tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM book_topics`); err != nil {
		return fmt.Errorf("clear book_topics: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM topics`); err != nil {
		return fmt.Errorf("clear topics: %w", err)
	}

	for cluster := 0; cluster < nTopics; cluster++ {
		var members []uuid.UUID
		for i, a := range assignments {
			if a == cluster {
				members = append(members, validBooks[i])
			}
		}
		if len(members) == 0 {
			continue
		}

		var topicID uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO topics (name, color, centroid, book_count)
			VALUES ($1, $2, $3::vector, $4) RETURNING id`,
			placeholderName(cluster), placeholderColor(cluster), encodeVector(centroids[cluster]), len(members)).
			Scan(&topicID)
		if err != nil {
			return fmt.Errorf("insert topic %d: %w", cluster, err)
		}

		for _, bookID := range members {
			if _, err := tx.Exec(ctx, `
				INSERT INTO book_topics (book_id, topic_id, relevance) VALUES ($1, $2, $3)`,
				bookID, topicID, defaultBookRelevance); err != nil {
				return fmt.Errorf("insert book_topic: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

func (m *Modeler) completedBookIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := m.db.Query(ctx, `SELECT id FROM books WHERE processing_status = 'completed'`)
	if err != nil {
		return nil, fmt.Errorf("list completed books: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan book id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// averageEmbeddings returns the mean of up to sampleChunksPerBook chunk
// embeddings for each book, skipping books with no embedded chunks.
func (m *Modeler) averageEmbeddings(ctx context.Context, bookIDs []uuid.UUID) ([][]float32, []uuid.UUID, error) {
	var vectors [][]float32
	var valid []uuid.UUID

	for _, bookID := range bookIDs {
		// No typed pgvector-go driver is wired in, so embeddings are read
		// back via their text cast and parsed, the same text-literal
		// convention used to write them.
		rows, err := m.db.Query(ctx, `
			SELECT embedding::text FROM book_chunks
			WHERE book_id = $1 AND embedding IS NOT NULL LIMIT $2`, bookID, sampleChunksPerBook)
		if err != nil {
			return nil, nil, fmt.Errorf("sample chunk embeddings for book %s: %w", bookID, err)
		}

		var sum []float32
		var count int
		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				rows.Close()
				return nil, nil, fmt.Errorf("scan chunk embedding: %w", err)
			}
			v, err := decodeVector(raw)
			if err != nil {
				rows.Close()
				return nil, nil, fmt.Errorf("decode chunk embedding: %w", err)
			}
			if sum == nil {
				sum = make([]float32, len(v))
			}
			for i, f := range v {
				sum[i] += f
			}
			count++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, nil, err
		}
		if count == 0 {
			continue
		}
		for i := range sum {
			sum[i] /= float32(count)
		}
		vectors = append(vectors, sum)
		valid = append(valid, bookID)
	}

	return vectors, valid, nil
}

// kmeans runs Lloyd's algorithm: assign each point to its nearest
// centroid, recompute centroids as cluster means, repeat until
// assignments stop changing or maxIter is hit. Centroids are seeded
// from k distinct input points (Forgy initialization).
func kmeans(points [][]float32, k, maxIter int) ([]int, [][]float32) {
	centroids := seedCentroids(points, k)
	assignments := make([]int, len(points))

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				d := squaredDistance(p, centroid)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		centroids = recomputeCentroids(points, assignments, k, len(points[0]))
	}

	return assignments, centroids
}

func seedCentroids(points [][]float32, k int) [][]float32 {
	indices := rand.Perm(len(points))[:k]
	centroids := make([][]float32, k)
	for i, idx := range indices {
		c := make([]float32, len(points[idx]))
		copy(c, points[idx])
		centroids[i] = c
	}
	return centroids
}

func recomputeCentroids(points [][]float32, assignments []int, k, dims int) [][]float32 {
	sums := make([][]float32, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float32, dims)
	}
	for i, p := range points {
		c := assignments[i]
		counts[c]++
		for d, v := range p {
			sums[c][d] += v
		}
	}
	for c := range sums {
		if counts[c] == 0 {
			continue // empty cluster's centroid is left as the zero vector; rare with Forgy seeding
		}
		for d := range sums[c] {
			sums[c][d] /= float32(counts[c])
		}
	}
	return sums
}

func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}

// placeholderName keeps topic naming as the literal "Topic N" placeholder
// rather than an LLM-generated label.
func placeholderName(cluster int) string {
	return fmt.Sprintf("Topic %d", cluster+1)
}

// placeholderColor derives a deterministic hex color from the cluster
// index, mirroring the original service's hash-derived color.
func placeholderColor(cluster int) string {
	h := fnv32(fmt.Sprintf("topic%d", cluster))
	return fmt.Sprintf("#%06x", h%0xFFFFFF)
}

func fnv32(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func encodeVector(v []float32) string {
	s := "["
	for i, f := range v {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%g", f)
	}
	return s + "]"
}

// decodeVector parses a pgvector text literal like "[0.1,0.2,0.3]".
func decodeVector(raw string) ([]float32, error) {
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
