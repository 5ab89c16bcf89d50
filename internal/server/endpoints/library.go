package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/library"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

type scanRequest struct {
	Directory string `json:"directory"`
}

type scanResponse struct {
	TaskID    string `json:"task_id"`
	Directory string `json:"directory"`
	Message   string `json:"message"`
}

type scanStatusResponse struct {
	TaskID string         `json:"task_id"`
	Status string         `json:"status"`
	Result library.Result `json:"result"`
}

// LibraryScanEndpoint handles POST /library/scan.
type LibraryScanEndpoint struct{}

func (e *LibraryScanEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/library/scan", e.handler
}
func (e *LibraryScanEndpoint) RequiresInit() bool { return true }

func (e *LibraryScanEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil || req.Directory == "" {
		writeError(w, http.StatusBadRequest, "directory is required")
		return
	}

	scanner := svcctx.ScannerFrom(r.Context())
	if scanner == nil {
		writeError(w, http.StatusServiceUnavailable, "scanner not initialized")
		return
	}
	task := scanner.Start(req.Directory)
	writeJSON(w, http.StatusAccepted, scanResponse{
		TaskID:    task.ID.String(),
		Directory: req.Directory,
		Message:   "scan started",
	})
}

func (e *LibraryScanEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <directory>",
		Short: "Start an async scan+import of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp scanResponse
			if err := client.Post(cmd.Context(), "/library/scan", scanRequest{Directory: args[0]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// LibraryScanStatusEndpoint handles GET /library/scan/{task_id}.
type LibraryScanStatusEndpoint struct{}

func (e *LibraryScanStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/library/scan/{task_id}", e.handler
}
func (e *LibraryScanStatusEndpoint) RequiresInit() bool { return true }

func (e *LibraryScanStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "task_id")
	if !ok {
		return
	}
	scanner := svcctx.ScannerFrom(r.Context())
	if scanner == nil {
		writeError(w, http.StatusServiceUnavailable, "scanner not initialized")
		return
	}
	task, ok := scanner.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "scan task not found")
		return
	}
	writeJSON(w, http.StatusOK, scanStatusResponse{
		TaskID: task.ID.String(),
		Status: task.Status,
		Result: task.Result,
	})
}

func (e *LibraryScanStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan-status <task_id>",
		Short: "Check the status of a scan task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp scanStatusResponse
			if err := client.Get(cmd.Context(), "/library/scan/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// LibraryImportEndpoint handles POST /library/import: a synchronous
// walk-and-import of directory, matching import_books's dedup-by-hash
// semantics directly rather than via a polled task.
type LibraryImportEndpoint struct{}

func (e *LibraryImportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/library/import", e.handler
}
func (e *LibraryImportEndpoint) RequiresInit() bool { return true }

func (e *LibraryImportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil || req.Directory == "" {
		writeError(w, http.StatusBadRequest, "directory is required")
		return
	}

	imp := svcctx.LibraryFrom(r.Context())
	if imp == nil {
		writeError(w, http.StatusServiceUnavailable, "library importer not initialized")
		return
	}
	res, err := imp.Import(r.Context(), req.Directory)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (e *LibraryImportEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <directory>",
		Short: "Import every book file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var res library.Result
			if err := client.Post(cmd.Context(), "/library/import", scanRequest{Directory: args[0]}, &res); err != nil {
				return err
			}
			return api.Output(res)
		},
	}
}

// LibraryStatsEndpoint handles GET /library/stats.
type LibraryStatsEndpoint struct{}

func (e *LibraryStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/library/stats", e.handler
}
func (e *LibraryStatsEndpoint) RequiresInit() bool { return true }

func (e *LibraryStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	imp := svcctx.LibraryFrom(r.Context())
	if imp == nil {
		writeError(w, http.StatusServiceUnavailable, "library importer not initialized")
		return
	}
	stats, err := imp.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (e *LibraryStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library-wide counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var stats library.Stats
			if err := client.Get(cmd.Context(), "/library/stats", &stats); err != nil {
				return err
			}
			return api.Output(stats)
		},
	}
}

// LibraryProcessingEndpoint handles GET /library/processing: every book
// whose processing is neither completed nor failed, with its job history.
type LibraryProcessingEndpoint struct{}

func (e *LibraryProcessingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/library/processing", e.handler
}
func (e *LibraryProcessingEndpoint) RequiresInit() bool { return true }

type processingBook struct {
	dto.Book
	Jobs []jobView `json:"jobs"`
}

type jobView struct {
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}

func (e *LibraryProcessingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	store := svcctx.JobStoreFrom(r.Context())

	rows, err := db.Query(r.Context(), `
		SELECT `+bookColumns+` FROM books
		WHERE processing_status NOT IN ('completed', 'failed')
		ORDER BY created_at`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	var out []processingBook
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		pb := processingBook{Book: b}
		if store != nil {
			jobs, err := store.ListForBook(r.Context(), b.ID)
			if err == nil {
				for _, j := range jobs {
					pb.Jobs = append(pb.Jobs, jobView{Stage: j.Stage, Status: j.Status, Attempts: j.Attempts, LastError: j.LastError})
				}
			}
		}
		out = append(out, pb)
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *LibraryProcessingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "processing",
		Short: "List books currently mid-pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []processingBook
			if err := client.Get(cmd.Context(), "/library/processing", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}
