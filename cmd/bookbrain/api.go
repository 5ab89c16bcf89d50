package main

import (
	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/server/endpoints"
)

var serverURL string

// getServerURL resolves the --server flag, defaulting to a local server on
// the port bookbrain serve listens on by default.
func getServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	return "http://127.0.0.1:8080"
}

// group collects one cobra parent command plus the endpoints nested under it.
type group struct {
	cmd       *cobra.Command
	endpoints []api.Endpoint
}

func buildAPICommand() *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running bookbrain server via HTTP.

These commands require a running server (bookbrain serve).
Use --server to specify a custom server URL.

Examples:
  bookbrain api health              # Check server health
  bookbrain api books list          # List all books
  bookbrain api search search "query"  # Run a hybrid search`,
	}
	apiCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default: http://127.0.0.1:8080)")

	groups := []group{
		{
			cmd: &cobra.Command{Use: "books", Short: "Inspect and edit books"},
			endpoints: []api.Endpoint{
				&endpoints.BooksListEndpoint{}, &endpoints.BookGetEndpoint{}, &endpoints.BookPatchEndpoint{},
				&endpoints.BookDeleteEndpoint{}, &endpoints.BookFileEndpoint{}, &endpoints.BookCoverEndpoint{},
				&endpoints.BooksRecentEndpoint{}, &endpoints.BooksContinueReadingEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "library", Short: "Scan and import the library"},
			endpoints: []api.Endpoint{
				&endpoints.LibraryScanEndpoint{}, &endpoints.LibraryScanStatusEndpoint{},
				&endpoints.LibraryImportEndpoint{}, &endpoints.LibraryStatsEndpoint{},
				&endpoints.LibraryProcessingEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "search", Short: "Run hybrid full-text and vector search"},
			endpoints: []api.Endpoint{
				&endpoints.SearchEndpoint{}, &endpoints.SearchSuggestEndpoint{}, &endpoints.SearchBooksEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "insights", Short: "Browse generated insights"},
			endpoints: []api.Endpoint{
				&endpoints.InsightsByBookEndpoint{}, &endpoints.InsightGetEndpoint{},
				&endpoints.InsightConnectionsEndpoint{}, &endpoints.InsightsConceptsEndpoint{},
				&endpoints.InsightsFrameworksEndpoint{}, &endpoints.InsightsRegenerateEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "chat", Short: "Chat with the library over retrieval-augmented generation"},
			endpoints: []api.Endpoint{
				&endpoints.ChatSessionsCreateEndpoint{}, &endpoints.ChatSessionsListEndpoint{},
				&endpoints.ChatMessagesListEndpoint{}, &endpoints.ChatMessagesCreateEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "feed", Short: "Browse the daily reading feed"},
			endpoints: []api.Endpoint{
				&endpoints.FeedListEndpoint{}, &endpoints.FeedGenerateEndpoint{},
				&endpoints.FeedPatchEndpoint{}, &endpoints.FeedDailyDigestEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "topics", Short: "Browse the topic graph"},
			endpoints: []api.Endpoint{
				&endpoints.TopicsListEndpoint{}, &endpoints.TopicsGraphEndpoint{}, &endpoints.TopicGetEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "recommendations", Short: "List book recommendations"},
			endpoints: []api.Endpoint{
				&endpoints.RecommendationsListEndpoint{}, &endpoints.RecommendationsSimilarEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "reading", Short: "Track reading progress"},
			endpoints: []api.Endpoint{
				&endpoints.ReadingProgressGetEndpoint{}, &endpoints.ReadingProgressPutEndpoint{},
				&endpoints.ReadingSessionStartEndpoint{}, &endpoints.ReadingSessionEndEndpoint{},
				&endpoints.ReadingStatsEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "knowledge", Short: "Explore the cross-book knowledge map"},
			endpoints: []api.Endpoint{
				&endpoints.KnowledgeConnectionsEndpoint{}, &endpoints.KnowledgeMapEndpoint{},
				&endpoints.KnowledgeLearningPathsEndpoint{}, &endpoints.KnowledgeLearningPathGetEndpoint{},
			},
		},
		{
			cmd: &cobra.Command{Use: "config", Short: "View and edit server configuration"},
			endpoints: []api.Endpoint{
				&endpoints.ConfigGetEndpoint{}, &endpoints.ConfigPatchEndpoint{},
				&endpoints.ConfigModelsGetEndpoint{}, &endpoints.ConfigModelsPutEndpoint{},
			},
		},
	}

	for _, g := range groups {
		for _, ep := range g.endpoints {
			g.cmd.AddCommand(ep.Command(getServerURL))
		}
		apiCmd.AddCommand(g.cmd)
	}

	// health has no natural group; it sits directly under api.
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))

	return apiCmd
}

func init() {
	rootCmd.AddCommand(buildAPICommand())
}
