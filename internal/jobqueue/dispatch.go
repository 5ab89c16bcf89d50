package jobqueue

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alexmercer/bookbrain/internal/jobstore"
)

// queueForStage maps a jobstore stage onto the queue that serves it.
// extract/chunk are CPU-bound, embed calls the embedding provider, and
// insights/enrich both call the LLM provider.
func queueForStage(stage string) string {
	switch stage {
	case jobstore.StageExtract, jobstore.StageChunk:
		return QueueProcessing
	case jobstore.StageEmbed:
		return QueueEmbedding
	case jobstore.StageInsights, jobstore.StageEnrich:
		return QueueLLM
	default:
		return QueueProcessing
	}
}

// Dispatcher enqueues a jobstore row and pushes its task onto the queue
// that corresponds to its stage, so a waiting worker pool picks it up
// without polling.
type Dispatcher struct {
	store  *jobstore.Store
	client *Client
}

// NewDispatcher pairs a job store with a queue client.
func NewDispatcher(store *jobstore.Store, client *Client) *Dispatcher {
	return &Dispatcher{store: store, client: client}
}

// Enqueue latches the (book, stage) job row to pending and pushes its task
// onto the queue. If the row is already running, the push still fires (a
// duplicate delivery: the popping worker's Claim skips that running row and
// takes the oldest other claimable row of the same stage, or does nothing
// if there is none), but store.Enqueue itself never spawns a
// second row a worker could claim concurrently with the one already running.
func (d *Dispatcher) Enqueue(ctx context.Context, bookID uuid.UUID, stage string, payload any) (*jobstore.Job, error) {
	job, err := d.store.Enqueue(ctx, bookID, stage, payload)
	if err != nil {
		return nil, err
	}
	task := Task{JobID: job.ID, BookID: bookID, Stage: stage}
	if err := d.client.Push(ctx, queueForStage(stage), task); err != nil {
		return nil, fmt.Errorf("push task for job %s: %w", job.ID, err)
	}
	return job, nil
}
