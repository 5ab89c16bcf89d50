package endpoints

import (
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/apperr"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

const feedColumns = `id, type, title, content, book_ids, is_read, is_pinned, created_at`

func scanFeedItem(row interface{ Scan(...any) error }) (dto.FeedItem, error) {
	var item dto.FeedItem
	err := row.Scan(&item.ID, &item.Type, &item.Title, &item.Content, &item.BookIDs, &item.IsRead, &item.IsPinned, &item.CreatedAt)
	return item, err
}

// FeedListEndpoint handles GET /feed.
type FeedListEndpoint struct{}

func (e *FeedListEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/feed", e.handler
}
func (e *FeedListEndpoint) RequiresInit() bool { return true }

func (e *FeedListEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `
		SELECT `+feedColumns+` FROM feed_items
		ORDER BY is_pinned DESC, created_at DESC LIMIT $1`, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []dto.FeedItem{}
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func (e *FeedListEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List feed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var items []dto.FeedItem
			if err := client.Get(cmd.Context(), "/feed", &items); err != nil {
				return err
			}
			return api.Output(items)
		},
	}
}

// FeedGenerateEndpoint handles POST /feed/generate.
type FeedGenerateEndpoint struct{}

func (e *FeedGenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/feed/generate", e.handler
}
func (e *FeedGenerateEndpoint) RequiresInit() bool { return true }

func (e *FeedGenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	generator := svcctx.FeedFrom(r.Context())
	if generator == nil {
		writeError(w, http.StatusServiceUnavailable, "feed generator not initialized")
		return
	}
	if err := generator.Generate(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "feed generation triggered"})
}

func (e *FeedGenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Trigger feed item generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]string
			if err := client.Post(cmd.Context(), "/feed/generate", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

type feedPatchRequest struct {
	IsRead   *bool `json:"is_read,omitempty"`
	IsPinned *bool `json:"is_pinned,omitempty"`
}

// FeedPatchEndpoint handles PATCH /feed/{id}.
type FeedPatchEndpoint struct{}

func (e *FeedPatchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/feed/{id}", e.handler
}
func (e *FeedPatchEndpoint) RequiresInit() bool { return true }

func (e *FeedPatchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req feedPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	db := svcctx.DBFrom(r.Context())
	_, err := db.Exec(r.Context(), `
		UPDATE feed_items SET
			is_read = COALESCE($2, is_read),
			is_pinned = COALESCE($3, is_pinned)
		WHERE id = $1`, id, req.IsRead, req.IsPinned)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	row := db.QueryRow(r.Context(), `SELECT `+feedColumns+` FROM feed_items WHERE id = $1`, id)
	item, err := scanFeedItem(row)
	if err == pgx.ErrNoRows {
		writeAppErr(w, apperr.NotFound("feed item not found", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (e *FeedPatchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var read, pinned bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Mark a feed item read or pinned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := feedPatchRequest{}
			if cmd.Flags().Changed("read") {
				req.IsRead = &read
			}
			if cmd.Flags().Changed("pinned") {
				req.IsPinned = &pinned
			}
			var item dto.FeedItem
			if err := client.Patch(cmd.Context(), "/feed/"+args[0], req, &item); err != nil {
				return err
			}
			return api.Output(item)
		},
	}
	cmd.Flags().BoolVar(&read, "read", false, "mark as read")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "mark as pinned")
	return cmd
}

// FeedDailyDigestEndpoint handles GET /feed/daily-digest: the most recent
// daily_digest feed item, if one has been generated.
type FeedDailyDigestEndpoint struct{}

func (e *FeedDailyDigestEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/feed/daily-digest", e.handler
}
func (e *FeedDailyDigestEndpoint) RequiresInit() bool { return true }

func (e *FeedDailyDigestEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	row := db.QueryRow(r.Context(), `
		SELECT `+feedColumns+` FROM feed_items
		WHERE type = 'daily_digest' ORDER BY created_at DESC LIMIT 1`)
	item, err := scanFeedItem(row)
	if err == pgx.ErrNoRows {
		writeAppErr(w, apperr.NotFound("no daily digest yet", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (e *FeedDailyDigestEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "daily-digest",
		Short: "Show the most recent daily digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var item dto.FeedItem
			if err := client.Get(cmd.Context(), "/feed/daily-digest", &item); err != nil {
				return err
			}
			return api.Output(item)
		},
	}
}
