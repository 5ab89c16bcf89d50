package jobstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// openTestPool connects to DATABASE_URL (or skips) so these tests can run
// against a real Postgres + pgvector instance in CI, without requiring one
// for a plain `go test ./...` on a laptop.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping jobstore integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func insertTestBook(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO books (title) VALUES ($1) RETURNING id`, "Test Book").Scan(&id)
	if err != nil {
		t.Fatalf("insert book: %v", err)
	}
	return id
}

func TestStore_ClaimIsAtMostOnce(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()
	bookID := insertTestBook(t, pool)

	if _, err := store.Enqueue(ctx, bookID, StageExtract, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	results := make(chan *Job, 4)
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			job, err := store.Claim(ctx, StageExtract)
			results <- job
			errs <- err
		}()
	}

	var claimed int
	for i := 0; i < 4; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("claim: %v", err)
		}
		if job := <-results; job != nil {
			claimed++
		}
	}
	if claimed != 1 {
		t.Errorf("got %d successful claims, want exactly 1 (at-most-one-running-job-per-stage)", claimed)
	}

	n, err := store.RunningCountForBook(ctx, bookID)
	if err != nil {
		t.Fatalf("running count: %v", err)
	}
	if n != 1 {
		t.Errorf("running count = %d, want 1", n)
	}
}

func TestStore_FailedJobRetriesUntilMaxAttempts(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()
	bookID := insertTestBook(t, pool)

	job, err := store.Enqueue(ctx, bookID, StageChunk, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	for i := 0; i < job.MaxAttempts-1; i++ {
		claimed, err := store.Claim(ctx, StageChunk)
		if err != nil || claimed == nil {
			t.Fatalf("claim attempt %d: job=%v err=%v", i, claimed, err)
		}
		if err := store.MarkFailed(ctx, claimed.ID, errors.New("boom")); err != nil {
			t.Fatalf("mark failed: %v", err)
		}
		refreshed, err := store.Get(ctx, job.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if refreshed.Status != StatusPending {
			t.Errorf("attempt %d: status = %s, want pending (retries remain)", i, refreshed.Status)
		}
	}

	// final attempt exhausts max_attempts and should terminally fail.
	claimed, err := store.Claim(ctx, StageChunk)
	if err != nil || claimed == nil {
		t.Fatalf("final claim: job=%v err=%v", claimed, err)
	}
	if err := store.MarkFailed(ctx, claimed.ID, errors.New("boom again")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	final, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != StatusFailed {
		t.Errorf("status = %s, want failed after exhausting attempts", final.Status)
	}

	noMore, err := store.Claim(ctx, StageChunk)
	if err != nil {
		t.Fatalf("claim after exhaustion: %v", err)
	}
	if noMore != nil {
		t.Errorf("expected no claimable job after exhaustion, got %+v", noMore)
	}
}

func TestStore_CompleteRemovesFromPool(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()
	bookID := insertTestBook(t, pool)

	if _, err := store.Enqueue(ctx, bookID, StageEmbed, nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	job, err := store.Claim(ctx, StageEmbed)
	if err != nil || job == nil {
		t.Fatalf("claim: job=%v err=%v", job, err)
	}
	if err := store.MarkCompleted(ctx, job.ID); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	again, err := store.Claim(ctx, StageEmbed)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if again != nil {
		t.Errorf("expected no claimable job after completion, got %+v", again)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.CompletedAt == nil || fetched.CompletedAt.After(time.Now()) {
		t.Errorf("completed_at not set properly: %+v", fetched.CompletedAt)
	}
}

func TestStore_ListActiveExcludesCompleted(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()
	bookID := insertTestBook(t, pool)

	pending, err := store.Enqueue(ctx, bookID, StageExtract, nil)
	if err != nil {
		t.Fatalf("enqueue pending: %v", err)
	}

	running, err := store.Enqueue(ctx, bookID, StageChunk, nil)
	if err != nil {
		t.Fatalf("enqueue running: %v", err)
	}
	if _, err := store.Claim(ctx, StageChunk); err != nil {
		t.Fatalf("claim running: %v", err)
	}

	done, err := store.Enqueue(ctx, bookID, StageEmbed, nil)
	if err != nil {
		t.Fatalf("enqueue done: %v", err)
	}
	claimedDone, err := store.Claim(ctx, StageEmbed)
	if err != nil || claimedDone == nil {
		t.Fatalf("claim done: job=%v err=%v", claimedDone, err)
	}
	if err := store.MarkCompleted(ctx, claimedDone.ID); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}

	seen := make(map[uuid.UUID]bool)
	for _, j := range active {
		seen[j.ID] = true
	}
	if !seen[pending.ID] {
		t.Error("expected the pending job to appear in ListActive")
	}
	if !seen[running.ID] {
		t.Error("expected the running job to appear in ListActive")
	}
	if seen[done.ID] {
		t.Error("expected the completed job to be excluded from ListActive")
	}
}

func TestStore_EnqueueIsLatchedByBookAndStage(t *testing.T) {
	pool := openTestPool(t)
	store := New(pool)
	ctx := context.Background()
	bookID := insertTestBook(t, pool)

	first, err := store.Enqueue(ctx, bookID, StageExtract, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	second, err := store.Enqueue(ctx, bookID, StageExtract, nil)
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-enqueuing a pending (book, stage) created a new row: %s != %s", second.ID, first.ID)
	}

	claimed, err := store.Claim(ctx, StageExtract)
	if err != nil || claimed == nil {
		t.Fatalf("claim: job=%v err=%v", claimed, err)
	}
	if claimed.ID != first.ID {
		t.Fatalf("claimed wrong row: %s != %s", claimed.ID, first.ID)
	}

	// Enqueuing again while the row is running must not spawn a second row
	// a concurrent worker could also claim.
	duringRun, err := store.Enqueue(ctx, bookID, StageExtract, nil)
	if err != nil {
		t.Fatalf("enqueue during run: %v", err)
	}
	if duringRun.ID != first.ID {
		t.Errorf("enqueuing a running (book, stage) created a new row: %s != %s", duringRun.ID, first.ID)
	}
	if duringRun.Status != StatusRunning {
		t.Errorf("enqueue during run returned status %s, want running (row left untouched)", duringRun.Status)
	}

	noneElse, err := store.Claim(ctx, StageExtract)
	if err != nil {
		t.Fatalf("claim after duplicate enqueue: %v", err)
	}
	if noneElse != nil {
		t.Errorf("expected no second claimable row for (book, stage), got %+v", noneElse)
	}
}
