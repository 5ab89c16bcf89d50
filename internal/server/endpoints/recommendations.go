package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

// RecommendationsListEndpoint handles GET /recommendations: completed
// books not yet started, ranked by topic overlap with recently-read
// books, falling back to newest-first when there's no reading history.
type RecommendationsListEndpoint struct{}

func (e *RecommendationsListEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/recommendations", e.handler
}
func (e *RecommendationsListEndpoint) RequiresInit() bool { return true }

func (e *RecommendationsListEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	db := svcctx.DBFrom(r.Context())

	rows, err := db.Query(r.Context(), `
		SELECT `+bookColumns+` FROM books b
		WHERE b.processing_status = 'completed'
		  AND NOT EXISTS (
		      SELECT 1 FROM reading_progress p WHERE p.book_id = b.id AND p.current_page > 0
		  )
		ORDER BY (
			SELECT coalesce(sum(bt.relevance), 0) FROM book_topics bt
			WHERE bt.topic_id IN (
				SELECT bt2.topic_id FROM book_topics bt2
				JOIN reading_progress p2 ON p2.book_id = bt2.book_id
				WHERE p2.current_page > 0
			) AND bt.book_id = b.id
		) DESC, b.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	books := []dto.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		books = append(books, b)
	}
	writeJSON(w, http.StatusOK, books)
}

func (e *RecommendationsListEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recommended books",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var books []dto.Book
			if err := client.Get(cmd.Context(), "/recommendations", &books); err != nil {
				return err
			}
			return api.Output(books)
		},
	}
}

// RecommendationsSimilarEndpoint handles GET /recommendations/similar/{id}:
// other completed books sharing the most topics with the given book.
type RecommendationsSimilarEndpoint struct{}

func (e *RecommendationsSimilarEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/recommendations/similar/{id}", e.handler
}
func (e *RecommendationsSimilarEndpoint) RequiresInit() bool { return true }

func (e *RecommendationsSimilarEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 10)
	db := svcctx.DBFrom(r.Context())

	rows, err := db.Query(r.Context(), `
		SELECT `+bookColumnsPrefixed("b")+`
		FROM books b
		JOIN book_topics bt ON bt.book_id = b.id
		WHERE b.id != $1
		  AND b.processing_status = 'completed'
		  AND bt.topic_id IN (SELECT topic_id FROM book_topics WHERE book_id = $1)
		GROUP BY b.id
		ORDER BY count(*) DESC, sum(bt.relevance) DESC
		LIMIT $2`, id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	books := []dto.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		books = append(books, b)
	}
	writeJSON(w, http.StatusOK, books)
}

func (e *RecommendationsSimilarEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "similar <id>",
		Short: "List books similar to a given book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var books []dto.Book
			if err := client.Get(cmd.Context(), "/recommendations/similar/"+args[0], &books); err != nil {
				return err
			}
			return api.Output(books)
		},
	}
}
