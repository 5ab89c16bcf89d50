package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

// KnowledgeConnectionsEndpoint handles GET /knowledge/connections.
type KnowledgeConnectionsEndpoint struct{}

func (e *KnowledgeConnectionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/knowledge/connections", e.handler
}
func (e *KnowledgeConnectionsEndpoint) RequiresInit() bool { return true }

func (e *KnowledgeConnectionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	agg := svcctx.KnowledgeFrom(r.Context())
	if agg == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge aggregator not initialized")
		return
	}
	connections, err := agg.Connections(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]dto.KnowledgeConnection, 0, len(connections))
	for _, c := range connections {
		out = append(out, dto.KnowledgeConnection{
			InsightAID: c.InsightAID, InsightATitle: c.InsightATitle,
			BookAID: c.BookAID, BookATitle: c.BookATitle,
			InsightBID: c.InsightBID, InsightBTitle: c.InsightBTitle,
			BookBID: c.BookBID, BookBTitle: c.BookBTitle,
			Strength: c.Strength, Description: c.Description,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *KnowledgeConnectionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List cross-book insight connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []dto.KnowledgeConnection
			if err := client.Get(cmd.Context(), "/knowledge/connections", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// KnowledgeMapEndpoint handles GET /knowledge/map.
type KnowledgeMapEndpoint struct{}

func (e *KnowledgeMapEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/knowledge/map", e.handler
}
func (e *KnowledgeMapEndpoint) RequiresInit() bool { return true }

func (e *KnowledgeMapEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	agg := svcctx.KnowledgeFrom(r.Context())
	if agg == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge aggregator not initialized")
		return
	}
	m, err := agg.Map(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := dto.KnowledgeMap{
		Nodes: make([]dto.KnowledgeNode, 0, len(m.Nodes)),
		Edges: make([]dto.KnowledgeEdge, 0, len(m.Edges)),
	}
	for _, n := range m.Nodes {
		out.Nodes = append(out.Nodes, dto.KnowledgeNode{BookID: n.BookID, Title: n.Title, Author: n.Author})
	}
	for _, ed := range m.Edges {
		out.Edges = append(out.Edges, dto.KnowledgeEdge{
			Source: ed.SourceBookID, Target: ed.TargetBookID,
			Strength: ed.Strength, Description: ed.Description,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *KnowledgeMapEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Show the book-to-book knowledge map",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out dto.KnowledgeMap
			if err := client.Get(cmd.Context(), "/knowledge/map", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// KnowledgeLearningPathsEndpoint handles GET /knowledge/learning-paths.
// There is no learning_paths table in this data model (see SPEC_FULL.md
// §3), so this always reports an empty list rather than 404ing — the
// route exists for client compatibility with the original surface.
type KnowledgeLearningPathsEndpoint struct{}

func (e *KnowledgeLearningPathsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/knowledge/learning-paths", e.handler
}
func (e *KnowledgeLearningPathsEndpoint) RequiresInit() bool { return true }

func (e *KnowledgeLearningPathsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []struct{}{})
}

func (e *KnowledgeLearningPathsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "learning-paths",
		Short: "List learning paths (unsupported, always empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out []any
			if err := client.Get(cmd.Context(), "/knowledge/learning-paths", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// KnowledgeLearningPathGetEndpoint handles GET /knowledge/learning-paths/{id}.
type KnowledgeLearningPathGetEndpoint struct{}

func (e *KnowledgeLearningPathGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/knowledge/learning-paths/{id}", e.handler
}
func (e *KnowledgeLearningPathGetEndpoint) RequiresInit() bool { return true }

func (e *KnowledgeLearningPathGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "learning paths are not supported")
}

func (e *KnowledgeLearningPathGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get-learning-path <id>",
		Short: "Get a learning path (unsupported)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out any
			return client.Get(cmd.Context(), "/knowledge/learning-paths/"+args[0], &out)
		},
	}
}
