package server

import (
	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/server/endpoints"
)

// registerEndpoints registers one api.Endpoint per HTTP route the server
// exposes.
func registerEndpoints(r *api.Registry) {
	r.Register(&endpoints.HealthEndpoint{})

	r.Register(&endpoints.BooksListEndpoint{})
	r.Register(&endpoints.BookGetEndpoint{})
	r.Register(&endpoints.BookPatchEndpoint{})
	r.Register(&endpoints.BookDeleteEndpoint{})
	r.Register(&endpoints.BookFileEndpoint{})
	r.Register(&endpoints.BookCoverEndpoint{})
	r.Register(&endpoints.BooksRecentEndpoint{})
	r.Register(&endpoints.BooksContinueReadingEndpoint{})

	r.Register(&endpoints.LibraryScanEndpoint{})
	r.Register(&endpoints.LibraryScanStatusEndpoint{})
	r.Register(&endpoints.LibraryImportEndpoint{})
	r.Register(&endpoints.LibraryStatsEndpoint{})
	r.Register(&endpoints.LibraryProcessingEndpoint{})

	r.Register(&endpoints.SearchEndpoint{})
	r.Register(&endpoints.SearchSuggestEndpoint{})
	r.Register(&endpoints.SearchBooksEndpoint{})

	r.Register(&endpoints.InsightsByBookEndpoint{})
	r.Register(&endpoints.InsightGetEndpoint{})
	r.Register(&endpoints.InsightConnectionsEndpoint{})
	r.Register(&endpoints.InsightsConceptsEndpoint{})
	r.Register(&endpoints.InsightsFrameworksEndpoint{})
	r.Register(&endpoints.InsightsRegenerateEndpoint{})

	r.Register(&endpoints.ChatSessionsCreateEndpoint{})
	r.Register(&endpoints.ChatSessionsListEndpoint{})
	r.Register(&endpoints.ChatMessagesListEndpoint{})
	r.Register(&endpoints.ChatMessagesCreateEndpoint{})

	r.Register(&endpoints.FeedListEndpoint{})
	r.Register(&endpoints.FeedGenerateEndpoint{})
	r.Register(&endpoints.FeedPatchEndpoint{})
	r.Register(&endpoints.FeedDailyDigestEndpoint{})

	r.Register(&endpoints.TopicsListEndpoint{})
	r.Register(&endpoints.TopicsGraphEndpoint{})
	r.Register(&endpoints.TopicGetEndpoint{})

	r.Register(&endpoints.RecommendationsListEndpoint{})
	r.Register(&endpoints.RecommendationsSimilarEndpoint{})

	r.Register(&endpoints.ReadingProgressGetEndpoint{})
	r.Register(&endpoints.ReadingProgressPutEndpoint{})
	r.Register(&endpoints.ReadingSessionStartEndpoint{})
	r.Register(&endpoints.ReadingSessionEndEndpoint{})
	r.Register(&endpoints.ReadingStatsEndpoint{})

	r.Register(&endpoints.KnowledgeConnectionsEndpoint{})
	r.Register(&endpoints.KnowledgeMapEndpoint{})
	r.Register(&endpoints.KnowledgeLearningPathsEndpoint{})
	r.Register(&endpoints.KnowledgeLearningPathGetEndpoint{})

	r.Register(&endpoints.ConfigGetEndpoint{})
	r.Register(&endpoints.ConfigPatchEndpoint{})
	r.Register(&endpoints.ConfigModelsGetEndpoint{})
	r.Register(&endpoints.ConfigModelsPutEndpoint{})
}
