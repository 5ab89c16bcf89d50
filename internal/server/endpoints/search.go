package endpoints

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

// SearchEndpoint handles GET /search.
type SearchEndpoint struct{}

func (e *SearchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/search", e.handler
}
func (e *SearchEndpoint) RequiresInit() bool { return true }

func (e *SearchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := queryInt(r, "limit", 20)
	bookIDs := queryUUIDs(r, "book_ids")

	retriever := svcctx.RetrieverFrom(r.Context())
	if retriever == nil {
		writeError(w, http.StatusServiceUnavailable, "retriever not initialized")
		return
	}
	chunks, err := retriever.Search(r.Context(), query, limit, bookIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]dto.SearchResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, dto.SearchResult{
			ChunkID:   c.ChunkID,
			BookID:    c.BookID,
			BookTitle: c.BookTitle,
			Author:    c.Author,
			Page:      c.Page,
			Content:   c.Content,
			Score:     c.Score,
		})
	}
	writeJSON(w, http.StatusOK, dto.SearchResponse{Query: query, Results: results})
}

func (e *SearchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Hybrid full-text + vector search across the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp dto.SearchResponse
			path := "/search?q=" + args[0]
			if limit > 0 {
				path += "&limit=" + strconv.Itoa(limit)
			}
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")
	return cmd
}

// SearchSuggestEndpoint handles GET /search/suggest: book titles matching
// a prefix, used for typeahead.
type SearchSuggestEndpoint struct{}

func (e *SearchSuggestEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/search/suggest", e.handler
}
func (e *SearchSuggestEndpoint) RequiresInit() bool { return true }

func (e *SearchSuggestEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `
		SELECT DISTINCT title FROM books WHERE title ILIKE $1 ORDER BY title LIMIT 10`, query+"%")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	suggestions := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		suggestions = append(suggestions, title)
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (e *SearchSuggestEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Suggest book titles matching a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var suggestions []string
			if err := client.Get(cmd.Context(), "/search/suggest?q="+args[0], &suggestions); err != nil {
				return err
			}
			return api.Output(suggestions)
		},
	}
}

// SearchBooksEndpoint handles GET /search/books: full-text search over
// each book's title, author and opening body text (the books.search_vector
// column), distinct from the chunk-level hybrid search GET /search performs.
type SearchBooksEndpoint struct{}

func (e *SearchBooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/search/books", e.handler
}
func (e *SearchBooksEndpoint) RequiresInit() bool { return true }

func (e *SearchBooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, []dto.Book{})
		return
	}
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `
		SELECT `+bookColumns+` FROM books
		WHERE search_vector @@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(search_vector, plainto_tsquery('english', $1)) DESC
		LIMIT 20`, query)
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

func (e *SearchBooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "books <query>",
		Short: "Search books by title, author, or opening text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var books []dto.Book
			if err := client.Get(cmd.Context(), "/search/books?q="+args[0], &books); err != nil {
				return err
			}
			return api.Output(books)
		},
	}
}
