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

// TopicsListEndpoint handles GET /topics.
type TopicsListEndpoint struct{}

func (e *TopicsListEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/topics", e.handler
}
func (e *TopicsListEndpoint) RequiresInit() bool { return true }

func (e *TopicsListEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `SELECT id, name, color, book_count FROM topics ORDER BY book_count DESC`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	out := []dto.Topic{}
	for rows.Next() {
		var t dto.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.BookCount); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *TopicsListEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []dto.Topic
			if err := client.Get(cmd.Context(), "/topics", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// TopicsGraphEndpoint handles GET /topics/graph: every topic_relations row.
type TopicsGraphEndpoint struct{}

func (e *TopicsGraphEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/topics/graph", e.handler
}
func (e *TopicsGraphEndpoint) RequiresInit() bool { return true }

func (e *TopicsGraphEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `SELECT topic_a, topic_b, type, strength FROM topic_relations ORDER BY strength DESC`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	out := []dto.TopicGraphEdge{}
	for rows.Next() {
		var e dto.TopicGraphEdge
		if err := rows.Scan(&e.TopicA, &e.TopicB, &e.Type, &e.Strength); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *TopicsGraphEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Show the topic relation graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []dto.TopicGraphEdge
			if err := client.Get(cmd.Context(), "/topics/graph", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// TopicGetEndpoint handles GET /topics/{id}.
type TopicGetEndpoint struct{}

func (e *TopicGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/topics/{id}", e.handler
}
func (e *TopicGetEndpoint) RequiresInit() bool { return true }

func (e *TopicGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	db := svcctx.DBFrom(r.Context())
	var t dto.Topic
	err := db.QueryRow(r.Context(), `SELECT id, name, color, book_count FROM topics WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.BookCount)
	if err == pgx.ErrNoRows {
		writeAppErr(w, apperr.NotFound("topic not found", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (e *TopicGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a topic by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var t dto.Topic
			if err := client.Get(cmd.Context(), "/topics/"+args[0], &t); err != nil {
				return err
			}
			return api.Output(t)
		},
	}
}
