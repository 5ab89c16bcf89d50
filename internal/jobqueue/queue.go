// Package jobqueue dispatches pipeline stage work across worker processes
// using Redis lists as named queues (one per stage group: processing,
// embedding, llm). Rather than balancing work across in-process worker pools with a
// local channel, this balances extract/chunk/embed/insights/enrich work
// across any number of worker processes via RPUSH/BLPOP, so queue state
// survives a worker restart and multiple processes can share the same
// queue.
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue names, one per pipeline stage group. Stages with similar resource
// profiles share a queue: extract/chunk are CPU-bound and run on
// "processing", embed calls the embedding provider, insights/enrich call
// the LLM provider.
const (
	QueueProcessing = "processing"
	QueueEmbedding  = "embedding"
	QueueLLM        = "llm"
)

func keyFor(queue string) string {
	return "bookbrain:queue:" + queue
}

// Task is one unit of dispatched work: enough to look up and re-run a
// jobstore row without carrying its full payload through Redis twice.
type Task struct {
	JobID  uuid.UUID `json:"job_id"`
	BookID uuid.UUID `json:"book_id"`
	Stage  string    `json:"stage"`
}

// Client wraps a Redis connection for pushing and blocking-popping tasks.
type Client struct {
	rdb *redis.Client
}

// New wraps an existing Redis client.
func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Push enqueues a task onto the named queue.
func (c *Client) Push(ctx context.Context, queue string, task Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := c.rdb.RPush(ctx, keyFor(queue), raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", queue, err)
	}
	return nil
}

// Pop blocks up to timeout waiting for a task on the named queue. Returns
// (nil, nil) on timeout with no task available.
func (c *Client) Pop(ctx context.Context, queue string, timeout time.Duration) (*Task, error) {
	res, err := c.rdb.BLPop(ctx, timeout, keyFor(queue)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blpop %s: %w", queue, err)
	}
	// BLPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("blpop %s: unexpected reply shape %v", queue, res)
	}
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

// Depth reports how many tasks are waiting on the named queue.
func (c *Client) Depth(ctx context.Context, queue string) (int64, error) {
	n, err := c.rdb.LLen(ctx, keyFor(queue)).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", queue, err)
	}
	return n, nil
}
