package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

// ReadingProgressGetEndpoint handles GET /reading/progress/{id}.
type ReadingProgressGetEndpoint struct{}

func (e *ReadingProgressGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/reading/progress/{id}", e.handler
}
func (e *ReadingProgressGetEndpoint) RequiresInit() bool { return true }

func (e *ReadingProgressGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	tracker := svcctx.ReadingFrom(r.Context())
	if tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "reading tracker not initialized")
		return
	}
	p, err := tracker.Get(r.Context(), bookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.ReadingProgress{
		BookID: p.BookID, CurrentPage: p.CurrentPage, TotalPages: p.TotalPages,
		Percent: p.Percent(), Completed: p.Completed(),
		SessionOpen: p.SessionStart != nil && p.SessionEnd == nil,
		UpdatedAt:   &p.UpdatedAt,
	})
}

func (e *ReadingProgressGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <book_id>",
		Short: "Get reading progress for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var p dto.ReadingProgress
			if err := client.Get(cmd.Context(), "/reading/progress/"+args[0], &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}
}

type progressUpdateRequest struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// ReadingProgressPutEndpoint handles PUT /reading/progress/{id}.
type ReadingProgressPutEndpoint struct{}

func (e *ReadingProgressPutEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/reading/progress/{id}", e.handler
}
func (e *ReadingProgressPutEndpoint) RequiresInit() bool { return true }

func (e *ReadingProgressPutEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req progressUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tracker := svcctx.ReadingFrom(r.Context())
	if tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "reading tracker not initialized")
		return
	}
	p, err := tracker.UpdateProgress(r.Context(), bookID, req.CurrentPage, req.TotalPages)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.ReadingProgress{
		BookID: p.BookID, CurrentPage: p.CurrentPage, TotalPages: p.TotalPages,
		Percent: p.Percent(), Completed: p.Completed(),
		SessionOpen: p.SessionStart != nil && p.SessionEnd == nil,
		UpdatedAt:   &p.UpdatedAt,
	})
}

func (e *ReadingProgressPutEndpoint) Command(getServerURL func() string) *cobra.Command {
	var currentPage, totalPages int
	cmd := &cobra.Command{
		Use:   "update <book_id>",
		Short: "Update reading progress for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := progressUpdateRequest{CurrentPage: currentPage, TotalPages: totalPages}
			var p dto.ReadingProgress
			if err := client.Put(cmd.Context(), "/reading/progress/"+args[0], req, &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}
	cmd.Flags().IntVar(&currentPage, "current-page", 0, "current page")
	cmd.Flags().IntVar(&totalPages, "total-pages", 0, "total page count")
	return cmd
}

// ReadingSessionStartEndpoint handles POST /reading/sessions/{id}/start.
type ReadingSessionStartEndpoint struct{}

func (e *ReadingSessionStartEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/reading/sessions/{id}/start", e.handler
}
func (e *ReadingSessionStartEndpoint) RequiresInit() bool { return true }

func (e *ReadingSessionStartEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	tracker := svcctx.ReadingFrom(r.Context())
	if tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "reading tracker not initialized")
		return
	}
	if err := tracker.StartSession(r.Context(), bookID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session started"})
}

func (e *ReadingSessionStartEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "start <book_id>",
		Short: "Start a reading session for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]string
			if err := client.Post(cmd.Context(), "/reading/sessions/"+args[0]+"/start", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ReadingSessionEndEndpoint handles POST /reading/sessions/{sid}/end?pages_read=.
type ReadingSessionEndEndpoint struct{}

func (e *ReadingSessionEndEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/reading/sessions/{sid}/end", e.handler
}
func (e *ReadingSessionEndEndpoint) RequiresInit() bool { return true }

func (e *ReadingSessionEndEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "sid")
	if !ok {
		return
	}
	pagesRead := queryInt(r, "pages_read", 0)
	tracker := svcctx.ReadingFrom(r.Context())
	if tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "reading tracker not initialized")
		return
	}
	p, err := tracker.EndSession(r.Context(), bookID, pagesRead)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.ReadingProgress{
		BookID: p.BookID, CurrentPage: p.CurrentPage, TotalPages: p.TotalPages,
		Percent: p.Percent(), Completed: p.Completed(),
		SessionOpen: p.SessionStart != nil && p.SessionEnd == nil,
		UpdatedAt:   &p.UpdatedAt,
	})
}

func (e *ReadingSessionEndEndpoint) Command(getServerURL func() string) *cobra.Command {
	var pagesRead int
	cmd := &cobra.Command{
		Use:   "end <book_id>",
		Short: "End a reading session for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var p dto.ReadingProgress
			path := "/reading/sessions/" + args[0] + "/end"
			if pagesRead > 0 {
				path += "?pages_read=" + strconv.Itoa(pagesRead)
			}
			if err := client.Post(cmd.Context(), path, nil, &p); err != nil {
				return err
			}
			return api.Output(p)
		},
	}
	cmd.Flags().IntVar(&pagesRead, "pages-read", 0, "pages read this session")
	return cmd
}

// ReadingStatsEndpoint handles GET /reading/stats.
type ReadingStatsEndpoint struct{}

func (e *ReadingStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/reading/stats", e.handler
}
func (e *ReadingStatsEndpoint) RequiresInit() bool { return true }

func (e *ReadingStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	tracker := svcctx.ReadingFrom(r.Context())
	if tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "reading tracker not initialized")
		return
	}
	stats, err := tracker.LibraryStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.ReadingStats{BooksReading: stats.BooksReading, BooksCompleted: stats.BooksCompleted})
}

func (e *ReadingStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library-wide reading stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var stats dto.ReadingStats
			if err := client.Get(cmd.Context(), "/reading/stats", &stats); err != nil {
				return err
			}
			return api.Output(stats)
		},
	}
}
