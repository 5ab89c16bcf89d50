// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexmercer/bookbrain/internal/chat"
	"github.com/alexmercer/bookbrain/internal/config"
	"github.com/alexmercer/bookbrain/internal/feed"
	"github.com/alexmercer/bookbrain/internal/home"
	"github.com/alexmercer/bookbrain/internal/insights"
	"github.com/alexmercer/bookbrain/internal/jobstore"
	"github.com/alexmercer/bookbrain/internal/knowledge"
	"github.com/alexmercer/bookbrain/internal/library"
	"github.com/alexmercer/bookbrain/internal/orchestrator"
	"github.com/alexmercer/bookbrain/internal/pipeline"
	"github.com/alexmercer/bookbrain/internal/providers"
	"github.com/alexmercer/bookbrain/internal/reading"
	"github.com/alexmercer/bookbrain/internal/retrieval"
	"github.com/alexmercer/bookbrain/internal/topics"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	DB       *pgxpool.Pool
	JobStore *jobstore.Store
	Registry *providers.Registry
	Config   *config.Manager
	Logger   *slog.Logger
	Home     *home.Dir

	Coordinator *pipeline.Coordinator
	Brain       *orchestrator.Brain
	Retriever   *retrieval.Retriever
	Chat        *chat.Assembler
	Feed        *feed.Generator
	Topics      *topics.Modeler
	Insights    *insights.Finder
	Reading     *reading.Tracker
	Knowledge   *knowledge.Aggregator
	Library     *library.Importer
	Scanner     *library.Scanner
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DBFrom extracts the Postgres connection pool from context.
func DBFrom(ctx context.Context) *pgxpool.Pool {
	if s := ServicesFrom(ctx); s != nil {
		return s.DB
	}
	return nil
}

// JobStoreFrom extracts the job store from context.
func JobStoreFrom(ctx context.Context) *jobstore.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.JobStore
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// CoordinatorFrom extracts the pipeline coordinator from context.
func CoordinatorFrom(ctx context.Context) *pipeline.Coordinator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Coordinator
	}
	return nil
}

// RetrieverFrom extracts the hybrid retriever from context.
func RetrieverFrom(ctx context.Context) *retrieval.Retriever {
	if s := ServicesFrom(ctx); s != nil {
		return s.Retriever
	}
	return nil
}

// ChatFrom extracts the chat assembler from context.
func ChatFrom(ctx context.Context) *chat.Assembler {
	if s := ServicesFrom(ctx); s != nil {
		return s.Chat
	}
	return nil
}

// FeedFrom extracts the feed generator from context.
func FeedFrom(ctx context.Context) *feed.Generator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Feed
	}
	return nil
}

// TopicsFrom extracts the topic modeler from context.
func TopicsFrom(ctx context.Context) *topics.Modeler {
	if s := ServicesFrom(ctx); s != nil {
		return s.Topics
	}
	return nil
}

// InsightsFrom extracts the insight connection finder from context.
func InsightsFrom(ctx context.Context) *insights.Finder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Insights
	}
	return nil
}

// ReadingFrom extracts the reading progress tracker from context.
func ReadingFrom(ctx context.Context) *reading.Tracker {
	if s := ServicesFrom(ctx); s != nil {
		return s.Reading
	}
	return nil
}

// KnowledgeFrom extracts the knowledge aggregator from context.
func KnowledgeFrom(ctx context.Context) *knowledge.Aggregator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Knowledge
	}
	return nil
}

// LibraryFrom extracts the library importer from context.
func LibraryFrom(ctx context.Context) *library.Importer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Library
	}
	return nil
}

// ScannerFrom extracts the async scan task tracker from context.
func ScannerFrom(ctx context.Context) *library.Scanner {
	if s := ServicesFrom(ctx); s != nil {
		return s.Scanner
	}
	return nil
}
