// Package server wires every core component into an HTTP/WebSocket API
// and owns the process's background loops: the pipeline coordinator's
// worker pools and the orchestrator's periodic scan.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/chat"
	"github.com/alexmercer/bookbrain/internal/config"
	"github.com/alexmercer/bookbrain/internal/db"
	"github.com/alexmercer/bookbrain/internal/feed"
	"github.com/alexmercer/bookbrain/internal/home"
	"github.com/alexmercer/bookbrain/internal/insights"
	"github.com/alexmercer/bookbrain/internal/jobqueue"
	"github.com/alexmercer/bookbrain/internal/jobstore"
	"github.com/alexmercer/bookbrain/internal/knowledge"
	"github.com/alexmercer/bookbrain/internal/library"
	"github.com/alexmercer/bookbrain/internal/orchestrator"
	"github.com/alexmercer/bookbrain/internal/pipeline"
	"github.com/alexmercer/bookbrain/internal/providers"
	"github.com/alexmercer/bookbrain/internal/reading"
	"github.com/alexmercer/bookbrain/internal/retrieval"
	"github.com/alexmercer/bookbrain/internal/svcctx"
	"github.com/alexmercer/bookbrain/internal/topics"
)

// Server is the bookbrain HTTP server. It owns the Postgres pool, Redis
// connection, provider registry, and every domain component built on top
// of them, and drives the pipeline coordinator and orchestrator for as
// long as it runs.
type Server struct {
	httpServer *http.Server

	db       *pgxpool.Pool
	redis    *redis.Client
	registry *providers.Registry
	configMgr *config.Manager
	logger    *slog.Logger
	home      *home.Dir

	coordinator *pipeline.Coordinator
	brain       *orchestrator.Brain

	services *svcctx.Services

	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the port to listen on (default: 8080).
	Port string
	// ConfigManager provides configuration with hot-reload support.
	ConfigManager *config.Manager
	// Logger is the structured logger to use.
	Logger *slog.Logger
	// Home is the bookbrain home directory.
	Home *home.Dir
}

// New wires the provider registry, Postgres pool, Redis client, every
// domain component, and the HTTP route table. It does not start any
// background loop or listener; call Start for that.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("server: ConfigManager is required")
	}
	appCfg := cfg.ConfigManager.Get()

	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	wireProviders(registry, appCfg)
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		wireProviders(registry, c)
		cfg.Logger.Info("provider registry reloaded from config")
	})

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
		home:      cfg.Home,
	}

	s.endpointRegistry = api.NewRegistry()
	registerEndpoints(s.endpointRegistry)

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)
	registerCoversHandler(mux, s)
	registerWebSocketRoutes(mux, s)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withLogging(s.withServices(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // long timeout for large file downloads
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// wireProviders (re)registers the chat LLM, embedding, and metadata
// clients from the current configuration.
func wireProviders(registry *providers.Registry, cfg *config.Config) {
	registry.RegisterLLM(cfg.LLM.ChatModel, providers.NewOpenAIChatClient(cfg.LLM.ChatModel, providers.OpenAIChatConfig{
		APIKey:       cfg.GetAPIKey(),
		BaseURL:      cfg.LLM.BaseURL,
		DefaultModel: cfg.LLM.ChatModel,
		RPS:          cfg.LLM.RateLimitPerSec,
	}))
	registry.SetEmbedder(providers.NewOpenAIEmbeddingClient(cfg.LLM.EmbeddingModel, providers.OpenAIEmbeddingConfig{
		APIKey:     cfg.GetAPIKey(),
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.EmbeddingModel,
		Dimensions: cfg.LLM.EmbeddingDims,
		RPS:        cfg.LLM.RateLimitPerSec,
	}))
	registry.SetMetadata(providers.NewOpenLibraryClient(providers.OpenLibraryConfig{}))
}

// Start opens the Postgres pool and Redis connection, applies the
// schema, builds every domain component, starts the pipeline
// coordinator's worker pools and the orchestrator's tick loop, then
// serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	appCfg := s.configMgr.Get()

	s.logger.Info("connecting to postgres")
	pool, err := db.Open(ctx, appCfg.Database.URL)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("connect to postgres: %w", err)
	}
	s.db = pool

	s.logger.Info("applying schema")
	if err := db.Migrate(ctx, pool); err != nil {
		s.setNotRunning()
		return fmt.Errorf("apply schema: %w", err)
	}

	redisOpts, err := redis.ParseURL(appCfg.Redis.URL)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("parse redis url: %w", err)
	}
	s.redis = redis.NewClient(redisOpts)
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("connect to redis: %w", err)
	}

	if err := s.home.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("create home directory: %w", err)
	}

	store := jobstore.New(pool)
	queue := jobqueue.New(s.redis)

	s.coordinator = pipeline.New(pipeline.Config{
		DB:                pool,
		Registry:          s.registry,
		Home:              s.home,
		Store:             store,
		Queue:             queue,
		Logger:            s.logger,
		ProcessingWorkers: orDefault(appCfg.Pipeline.ProcessingQueueWorkers, 2),
		EmbeddingWorkers:  orDefault(appCfg.Pipeline.EmbeddingQueueWorkers, 2),
		LLMWorkers:        orDefault(appCfg.Pipeline.LLMQueueWorkers, 1),
	})
	s.coordinator.Start(ctx)

	embedder, err := s.registry.Embedder()
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("embedding client not configured: %w", err)
	}
	llm, err := s.registry.GetLLM(appCfg.LLM.ChatModel)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("chat model %q not configured: %w", appCfg.LLM.ChatModel, err)
	}

	retriever := retrieval.New(pool, embedder)
	feedGenerator := feed.New(pool, llm)

	s.brain = orchestrator.New(pool, s.coordinator, feedGenerator, s.logger)
	s.brain.SetIntensity(parseIntensity(appCfg.Pipeline.OrchestratorIntensity))
	go s.brain.Start(ctx)

	libImporter := library.New(pool, s.coordinator)

	s.services = &svcctx.Services{
		DB:          pool,
		JobStore:    store,
		Registry:    s.registry,
		Config:      s.configMgr,
		Logger:      s.logger,
		Home:        s.home,
		Coordinator: s.coordinator,
		Brain:       s.brain,
		Retriever:   retriever,
		Chat:        chat.New(pool, retriever, llm),
		Feed:        feedGenerator,
		Topics:      topics.New(pool),
		Insights:    insights.New(pool),
		Reading:     reading.New(pool),
		Knowledge:   knowledge.New(pool),
		Library:     libImporter,
		Scanner:     library.NewScanner(libImporter),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func parseIntensity(s string) orchestrator.Intensity {
	switch s {
	case "aggressive":
		return orchestrator.Aggressive
	case "idle":
		return orchestrator.Idle
	case "paused":
		return orchestrator.Paused
	default:
		return orchestrator.Normal
	}
}

// shutdown performs graceful shutdown of the HTTP server, Postgres pool,
// and Redis connection.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("redis close error", "error", err)
		}
	}
	if s.db != nil {
		s.db.Close()
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withLogging wraps a handler to log requests.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start).String(),
		)
	})
}

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 if Start hasn't finished wiring services yet.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}

// registerCoversHandler serves cover images directly off disk under
// /covers/<book_id>.png. It's registered on the mux directly, rather
// than through an api.Endpoint, because it needs no CLI counterpart and
// no JSON envelope.
func registerCoversHandler(mux *http.ServeMux, s *Server) {
	mux.HandleFunc("GET /covers/{file}", func(w http.ResponseWriter, r *http.Request) {
		if s.home == nil {
			http.NotFound(w, r)
			return
		}
		file := r.PathValue("file")
		path := filepath.Join(s.home.CoversPath(), filepath.Base(file))
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	})
}
