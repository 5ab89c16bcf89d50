package endpoints

import (
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/apperr"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

func scanBook(row interface {
	Scan(...any) error
}) (dto.Book, error) {
	var b dto.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Publisher,
		&b.PublishedDate, &b.Language, &b.PageCount, &b.CoverPath, &b.Rating,
		&b.ProcessingStatus, &b.ProcessingProgress, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

const bookColumns = `id, title, author, isbn, description, publisher, published_date, language, page_count, cover_path, rating, processing_status, processing_progress, created_at, updated_at`

// BooksListEndpoint handles GET /books.
type BooksListEndpoint struct{}

func (e *BooksListEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/books", e.handler
}
func (e *BooksListEndpoint) RequiresInit() bool { return true }

func (e *BooksListEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `SELECT `+bookColumns+` FROM books ORDER BY created_at DESC`)
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

func (e *BooksListEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List books in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var books []dto.Book
			if err := client.Get(cmd.Context(), "/books", &books); err != nil {
				return err
			}
			return api.Output(books)
		},
	}
}

// BookGetEndpoint handles GET /books/{id}.
type BookGetEndpoint struct{}

func (e *BookGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/books/{id}", e.handler
}
func (e *BookGetEndpoint) RequiresInit() bool { return true }

func (e *BookGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	db := svcctx.DBFrom(r.Context())
	row := db.QueryRow(r.Context(), `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	b, err := scanBook(row)
	if err == pgx.ErrNoRows {
		writeAppErr(w, apperr.NotFound("book not found", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (e *BookGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a book by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var b dto.Book
			if err := client.Get(cmd.Context(), "/books/"+args[0], &b); err != nil {
				return err
			}
			return api.Output(b)
		},
	}
}

// bookPatchRequest carries the editable fields of a book. Zero-value
// fields are left unchanged server-side by coalescing against the
// existing row, so a client can PATCH a single field at a time.
type bookPatchRequest struct {
	Title       *string  `json:"title,omitempty"`
	Author      *string  `json:"author,omitempty"`
	Description *string  `json:"description,omitempty"`
	Rating      *float32 `json:"rating,omitempty"`
}

// BookPatchEndpoint handles PATCH /books/{id}.
type BookPatchEndpoint struct{}

func (e *BookPatchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/books/{id}", e.handler
}
func (e *BookPatchEndpoint) RequiresInit() bool { return true }

func (e *BookPatchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req bookPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	db := svcctx.DBFrom(r.Context())
	_, err := db.Exec(r.Context(), `
		UPDATE books SET
			title = COALESCE($2, title),
			author = COALESCE($3, author),
			description = COALESCE($4, description),
			rating = COALESCE($5, rating),
			updated_at = now()
		WHERE id = $1`, id, req.Title, req.Author, req.Description, req.Rating)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	row := db.QueryRow(r.Context(), `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	b, err := scanBook(row)
	if err == pgx.ErrNoRows {
		writeAppErr(w, apperr.NotFound("book not found", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (e *BookPatchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title, author, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a book's editable fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := bookPatchRequest{}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("author") {
				req.Author = &author
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			var b dto.Book
			if err := client.Patch(cmd.Context(), "/books/"+args[0], req, &b); err != nil {
				return err
			}
			return api.Output(b)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&author, "author", "", "new author")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

// BookDeleteEndpoint handles DELETE /books/{id}.
type BookDeleteEndpoint struct{}

func (e *BookDeleteEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/books/{id}", e.handler
}
func (e *BookDeleteEndpoint) RequiresInit() bool { return true }

func (e *BookDeleteEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	db := svcctx.DBFrom(r.Context())
	tag, err := db.Exec(r.Context(), `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tag.RowsAffected() == 0 {
		writeAppErr(w, apperr.NotFound("book not found", nil))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *BookDeleteEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/books/"+args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
}

// BookFileEndpoint handles GET /books/{id}/file, streaming the book's
// stored source file.
type BookFileEndpoint struct{}

func (e *BookFileEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/books/{id}/file", e.handler
}
func (e *BookFileEndpoint) RequiresInit() bool { return true }

func (e *BookFileEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	db := svcctx.DBFrom(r.Context())
	var path string
	err := db.QueryRow(r.Context(), `SELECT path FROM book_files WHERE book_id = $1 LIMIT 1`, id).Scan(&path)
	if err == pgx.ErrNoRows {
		writeAppErr(w, apperr.NotFound("book file not found", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.ServeFile(w, r, path)
}

func (e *BookFileEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:    "file <id>",
		Short:  "Print the GET request URL for a book's source file",
		Args:   cobra.ExactArgs(1),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("GET %s/books/%s/file\n", getServerURL(), args[0])
			return nil
		},
	}
}

// BookCoverEndpoint handles GET /books/{id}/cover, streaming the book's
// stored cover image.
type BookCoverEndpoint struct{}

func (e *BookCoverEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/books/{id}/cover", e.handler
}
func (e *BookCoverEndpoint) RequiresInit() bool { return true }

func (e *BookCoverEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	db := svcctx.DBFrom(r.Context())
	var coverPath string
	err := db.QueryRow(r.Context(), `SELECT cover_path FROM books WHERE id = $1`, id).Scan(&coverPath)
	if err == pgx.ErrNoRows || coverPath == "" {
		writeAppErr(w, apperr.NotFound("cover not found", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := os.Stat(coverPath); err != nil {
		writeAppErr(w, apperr.NotFound("cover not found", nil))
		return
	}
	http.ServeFile(w, r, coverPath)
}

func (e *BookCoverEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:    "cover <id>",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("GET %s/books/%s/cover\n", getServerURL(), args[0])
			return nil
		},
	}
}

// BooksRecentEndpoint handles GET /books/recent.
type BooksRecentEndpoint struct{}

func (e *BooksRecentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/books/recent", e.handler
}
func (e *BooksRecentEndpoint) RequiresInit() bool { return true }

func (e *BooksRecentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `SELECT `+bookColumns+` FROM books ORDER BY created_at DESC LIMIT $1`, limit)
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

func (e *BooksRecentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List the most recently added books",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var books []dto.Book
			if err := client.Get(cmd.Context(), "/books/recent", &books); err != nil {
				return err
			}
			return api.Output(books)
		},
	}
}

// BooksContinueReadingEndpoint handles GET /books/continue-reading: books
// with partial progress (current page past 0 but short of the total),
// most recently touched first.
type BooksContinueReadingEndpoint struct{}

func (e *BooksContinueReadingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/books/continue-reading", e.handler
}
func (e *BooksContinueReadingEndpoint) RequiresInit() bool { return true }

func (e *BooksContinueReadingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `
		SELECT `+bookColumnsPrefixed("b")+`
		FROM books b
		JOIN reading_progress p ON p.book_id = b.id
		WHERE p.current_page > 0 AND p.current_page < GREATEST(p.total_pages, 1)
		ORDER BY p.updated_at DESC
		LIMIT 20`)
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

func (e *BooksContinueReadingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "continue-reading",
		Short: "List books with progress in flight",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var books []dto.Book
			if err := client.Get(cmd.Context(), "/books/continue-reading", &books); err != nil {
				return err
			}
			return api.Output(books)
		},
	}
}

func bookColumnsPrefixed(alias string) string {
	cols := []string{"id", "title", "author", "isbn", "description", "publisher", "published_date",
		"language", "page_count", "cover_path", "rating", "processing_status", "processing_progress",
		"created_at", "updated_at"}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}
