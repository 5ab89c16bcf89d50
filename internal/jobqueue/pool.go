package jobqueue

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alexmercer/bookbrain/internal/jobstore"
)

// pollTimeout is how long a worker blocks on BLPOP before re-checking
// ctx.Done(). Short enough that shutdown is responsive, long enough that
// workers aren't busy-looping against Redis.
const pollTimeout = 5 * time.Second

// Handler runs a claimed job row to completion. A returned error marks the
// job failed (and retried later, up to its max attempts); nil marks it
// completed.
type Handler func(ctx context.Context, job *jobstore.Job) error

// Status reports a worker pool's current state.
type Status struct {
	Queue      string `json:"queue"`
	Workers    int    `json:"workers"`
	InFlight   int    `json:"in_flight"`
	QueueDepth int64  `json:"queue_depth"`
}

// WorkerPool drains one named queue with a bounded number of worker
// goroutines, claiming the corresponding jobstore row before running the
// handler so at-most-one-worker-per-job holds even if a task is ever
// delivered twice (e.g. after a crash mid-BLPOP redelivery). A queue may
// carry tasks for more than one stage (extract and chunk both route to
// "processing"), so the pool claims using each popped task's own stage,
// not a single stage fixed at construction.
type WorkerPool struct {
	name        string
	queue       string
	workerCount int

	client  *Client
	store   *jobstore.Store
	handler Handler
	logger  *slog.Logger

	inFlight atomic.Int32
}

// Config configures a new WorkerPool.
type Config struct {
	Name        string
	Queue       string // jobqueue queue this pool drains
	WorkerCount int
	Client      *Client
	Store       *jobstore.Store
	Handler     Handler
	Logger      *slog.Logger
}

// NewWorkerPool builds a pool from cfg, applying defaults for omitted fields.
func NewWorkerPool(cfg Config) *WorkerPool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}

	return &WorkerPool{
		name:        cfg.Name,
		queue:       cfg.Queue,
		workerCount: workerCount,
		client:      cfg.Client,
		store:       cfg.Store,
		handler:     cfg.Handler,
		logger:      logger.With("pool", cfg.Name, "queue", cfg.Queue, "workers", workerCount),
	}
}

// Start runs workerCount worker goroutines until ctx is cancelled.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("worker pool starting")
	for i := 0; i < p.workerCount; i++ {
		go p.worker(ctx, i)
	}
	<-ctx.Done()
	p.logger.Info("worker pool stopping")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	log := p.logger.With("worker_id", id)
	for {
		if ctx.Err() != nil {
			return
		}

		task, err := p.client.Pop(ctx, p.queue, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("pop failed", "error", err)
			continue
		}
		if task == nil {
			continue // poll timeout, no task waiting
		}

		job, err := p.store.Claim(ctx, task.Stage)
		if err != nil {
			log.Error("claim failed", "job_id", task.JobID, "error", err)
			continue
		}
		if job == nil {
			// Another worker (or a duplicate delivery) already claimed the
			// one claimable row for this stage; nothing to do.
			continue
		}

		p.inFlight.Add(1)
		runErr := p.handler(ctx, job)
		p.inFlight.Add(-1)

		if runErr != nil {
			log.Warn("job failed", "job_id", job.ID, "error", runErr)
			if err := p.store.MarkFailed(ctx, job.ID, runErr); err != nil {
				log.Error("mark failed errored", "job_id", job.ID, "error", err)
			}
			continue
		}
		if err := p.store.MarkCompleted(ctx, job.ID); err != nil {
			log.Error("mark completed errored", "job_id", job.ID, "error", err)
		}
	}
}

// Status reports the pool's current depth and in-flight count.
func (p *WorkerPool) Status(ctx context.Context) Status {
	depth, err := p.client.Depth(ctx, p.queue)
	if err != nil {
		p.logger.Warn("depth check failed", "error", err)
	}
	return Status{
		Queue:      p.queue,
		Workers:    p.workerCount,
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: depth,
	}
}
