package endpoints

import (
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/apperr"
	"github.com/alexmercer/bookbrain/internal/jobstore"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

const insightColumns = `id, book_id, type, title, content, supporting_quote, importance, refinement_level, created_at`

func scanInsight(row interface{ Scan(...any) error }) (dto.Insight, error) {
	var ins dto.Insight
	err := row.Scan(&ins.ID, &ins.BookID, &ins.Type, &ins.Title, &ins.Content,
		&ins.SupportingQuote, &ins.Importance, &ins.RefinementLevel, &ins.CreatedAt)
	return ins, err
}

// InsightsByBookEndpoint handles GET /insights/book/{id}.
type InsightsByBookEndpoint struct{}

func (e *InsightsByBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/insights/book/{id}", e.handler
}
func (e *InsightsByBookEndpoint) RequiresInit() bool { return true }

func (e *InsightsByBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `SELECT `+insightColumns+` FROM book_insights WHERE book_id = $1 ORDER BY importance DESC, created_at`, bookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	out := []dto.Insight{}
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, ins)
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *InsightsByBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "by-book <book_id>",
		Short: "List a book's insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []dto.Insight
			if err := client.Get(cmd.Context(), "/insights/book/"+args[0], &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// InsightGetEndpoint handles GET /insights/{id}.
type InsightGetEndpoint struct{}

func (e *InsightGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/insights/{id}", e.handler
}
func (e *InsightGetEndpoint) RequiresInit() bool { return true }

func (e *InsightGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	db := svcctx.DBFrom(r.Context())
	row := db.QueryRow(r.Context(), `SELECT `+insightColumns+` FROM book_insights WHERE id = $1`, id)
	ins, err := scanInsight(row)
	if err == pgx.ErrNoRows {
		writeAppErr(w, apperr.NotFound("insight not found", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (e *InsightGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get an insight by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var ins dto.Insight
			if err := client.Get(cmd.Context(), "/insights/"+args[0], &ins); err != nil {
				return err
			}
			return api.Output(ins)
		},
	}
}

// InsightConnectionsEndpoint handles GET /insights/{id}/connections.
type InsightConnectionsEndpoint struct{}

func (e *InsightConnectionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/insights/{id}/connections", e.handler
}
func (e *InsightConnectionsEndpoint) RequiresInit() bool { return true }

func (e *InsightConnectionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	finder := svcctx.InsightsFrom(r.Context())
	if finder == nil {
		writeError(w, http.StatusServiceUnavailable, "insight finder not initialized")
		return
	}
	limit := queryInt(r, "limit", 0)
	connections, err := finder.FindConnections(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]dto.InsightConnection, 0, len(connections))
	for _, c := range connections {
		out = append(out, dto.InsightConnection{
			InsightID: c.InsightID, BookID: c.BookID, Title: c.Title, Content: c.Content, Type: c.Type,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *InsightConnectionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "connections <id>",
		Short: "Find cross-book insights related to an insight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []dto.InsightConnection
			if err := client.Get(cmd.Context(), "/insights/"+args[0]+"/connections", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// InsightsConceptsEndpoint handles GET /insights/concepts: every
// key_concept insight across the library.
type InsightsConceptsEndpoint struct{}

func (e *InsightsConceptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/insights/concepts", e.handler
}
func (e *InsightsConceptsEndpoint) RequiresInit() bool { return true }

func (e *InsightsConceptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	listInsightsByType(w, r, "key_concept")
}

func (e *InsightsConceptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "concepts",
		Short: "List key-concept insights across the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []dto.Insight
			if err := client.Get(cmd.Context(), "/insights/concepts", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// InsightsFrameworksEndpoint handles GET /insights/frameworks: every
// framework insight across the library.
type InsightsFrameworksEndpoint struct{}

func (e *InsightsFrameworksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/insights/frameworks", e.handler
}
func (e *InsightsFrameworksEndpoint) RequiresInit() bool { return true }

func (e *InsightsFrameworksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	listInsightsByType(w, r, "framework")
}

func (e *InsightsFrameworksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List framework insights across the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []dto.Insight
			if err := client.Get(cmd.Context(), "/insights/frameworks", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

func listInsightsByType(w http.ResponseWriter, r *http.Request, insightType string) {
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `SELECT `+insightColumns+` FROM book_insights WHERE type = $1 ORDER BY importance DESC, created_at DESC LIMIT 100`, insightType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	out := []dto.Insight{}
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, ins)
	}
	writeJSON(w, http.StatusOK, out)
}

// InsightsRegenerateEndpoint handles POST /insights/book/{id}/regenerate:
// resets the book's insights job row to pending and pushes it onto the
// llm queue directly, so extraction re-runs at pass level 1 without
// waiting for the orchestrator.
type InsightsRegenerateEndpoint struct{}

func (e *InsightsRegenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/insights/book/{id}/regenerate", e.handler
}
func (e *InsightsRegenerateEndpoint) RequiresInit() bool { return true }

func (e *InsightsRegenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	coordinator := svcctx.CoordinatorFrom(r.Context())
	if coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline coordinator not initialized")
		return
	}
	if _, err := coordinator.Dispatch().Enqueue(r.Context(), bookID, jobstore.StageInsights, nil); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "insight regeneration scheduled"})
}

func (e *InsightsRegenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <book_id>",
		Short: "Re-run insight extraction for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]string
			if err := client.Post(cmd.Context(), "/insights/book/"+args[0]+"/regenerate", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
