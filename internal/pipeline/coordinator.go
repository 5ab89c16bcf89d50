// Package pipeline wires the stage executors in internal/pipeline/stages
// to internal/jobqueue worker pools and exposes the single public entry
// point new book imports use to kick off processing.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexmercer/bookbrain/internal/home"
	"github.com/alexmercer/bookbrain/internal/jobqueue"
	"github.com/alexmercer/bookbrain/internal/jobstore"
	"github.com/alexmercer/bookbrain/internal/pipeline/stages"
	"github.com/alexmercer/bookbrain/internal/providers"
)

// Config configures a Coordinator's worker pools. Worker counts left at
// zero default to 2 processing, 1 embedding and 1 llm worker; extract/chunk
// are CPU-bound and typically want more workers than the LLM-bound queues.
type Config struct {
	DB       *pgxpool.Pool
	Registry *providers.Registry
	Home     *home.Dir
	Store    *jobstore.Store
	Queue    *jobqueue.Client
	Logger   *slog.Logger

	ProcessingWorkers int
	EmbeddingWorkers  int
	LLMWorkers        int
}

// Coordinator owns the worker pools that drain each jobqueue queue and
// run the stage executor matching a claimed job's stage.
type Coordinator struct {
	dispatch *jobqueue.Dispatcher
	pools    []*jobqueue.WorkerPool
	logger   *slog.Logger
}

// New builds a Coordinator and its worker pools, one per pipeline queue,
// each routing claimed jobs to the stage executor for their stage.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dispatch := jobqueue.NewDispatcher(cfg.Store, cfg.Queue)
	deps := stages.Deps{
		DB:       cfg.DB,
		Registry: cfg.Registry,
		Home:     cfg.Home,
		Dispatch: dispatch,
		Logger:   logger,
	}

	handlers := map[string]jobqueue.Handler{
		jobstore.StageExtract:  func(ctx context.Context, job *jobstore.Job) error { return stages.Extract(ctx, deps, job) },
		jobstore.StageChunk:    func(ctx context.Context, job *jobstore.Job) error { return stages.Chunk(ctx, deps, job) },
		jobstore.StageEmbed:    func(ctx context.Context, job *jobstore.Job) error { return stages.Embed(ctx, deps, job) },
		jobstore.StageInsights: func(ctx context.Context, job *jobstore.Job) error { return stages.Insights(ctx, deps, job) },
		jobstore.StageEnrich:   func(ctx context.Context, job *jobstore.Job) error { return stages.Enrich(ctx, deps, job) },
	}

	// A WorkerPool's queue can carry more than one stage (extract and
	// chunk both route to "processing"; insights and enrich both route
	// to "llm"), so every pool shares the same dispatching handler and
	// routes on each claimed job's own Stage rather than a fixed one.
	route := dispatchHandler(handlers)

	c := &Coordinator{dispatch: dispatch, logger: logger}

	c.pools = append(c.pools, jobqueue.NewWorkerPool(jobqueue.Config{
		Name: "processing", Queue: jobqueue.QueueProcessing,
		WorkerCount: orDefault(cfg.ProcessingWorkers, 2),
		Client:      cfg.Queue, Store: cfg.Store, Logger: logger,
		Handler: route,
	}))
	c.pools = append(c.pools, jobqueue.NewWorkerPool(jobqueue.Config{
		Name: "embedding", Queue: jobqueue.QueueEmbedding,
		WorkerCount: orDefault(cfg.EmbeddingWorkers, 1),
		Client:      cfg.Queue, Store: cfg.Store, Logger: logger,
		Handler: route,
	}))
	c.pools = append(c.pools, jobqueue.NewWorkerPool(jobqueue.Config{
		Name: "llm", Queue: jobqueue.QueueLLM,
		WorkerCount: orDefault(cfg.LLMWorkers, 1),
		Client:      cfg.Queue, Store: cfg.Store, Logger: logger,
		Handler: route,
	}))

	return c
}

// dispatchHandler builds a jobqueue.Handler that runs whichever stage
// executor matches the claimed job's own stage.
func dispatchHandler(handlers map[string]jobqueue.Handler) jobqueue.Handler {
	return func(ctx context.Context, job *jobstore.Job) error {
		h, ok := handlers[job.Stage]
		if !ok {
			return fmt.Errorf("no handler registered for stage %q", job.Stage)
		}
		return h(ctx, job)
	}
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// Start runs every worker pool until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	done := make(chan struct{}, len(c.pools))
	for _, p := range c.pools {
		p := p
		go func() {
			p.Start(ctx)
			done <- struct{}{}
		}()
	}
	for range c.pools {
		<-done
	}
}

// ProcessBook enqueues the Extract stage for bookID, kicking off the
// extract→chunk→embed→insights→enrich sequence.
func (c *Coordinator) ProcessBook(ctx context.Context, bookID uuid.UUID) error {
	if _, err := c.dispatch.Enqueue(ctx, bookID, jobstore.StageExtract, nil); err != nil {
		return fmt.Errorf("enqueue extract for book %s: %w", bookID, err)
	}
	return nil
}

// Dispatch exposes the underlying dispatcher so callers outside the
// pipeline package (the orchestrator's refine_insights/enrich_book
// rules) can enqueue a specific stage directly, rather than always
// restarting from Extract.
func (c *Coordinator) Dispatch() *jobqueue.Dispatcher {
	return c.dispatch
}

// Status reports every worker pool's current depth and in-flight count.
func (c *Coordinator) Status(ctx context.Context) []jobqueue.Status {
	statuses := make([]jobqueue.Status, len(c.pools))
	for i, p := range c.pools {
		statuses[i] = p.Status(ctx)
	}
	return statuses
}
