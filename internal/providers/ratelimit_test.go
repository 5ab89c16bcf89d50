package providers

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiterDefaultsWhenNonPositive(t *testing.T) {
	r := NewRateLimiter(0)
	if r.requestsPerMinute != 150 {
		t.Errorf("requestsPerMinute = %d, want 150", r.requestsPerMinute)
	}
}

func TestTryConsumeDrainsAndRefillsBucket(t *testing.T) {
	r := NewRateLimiter(60) // one token/second
	r.tokens = 1
	r.lastUpdate = time.Now()

	if !r.TryConsume() {
		t.Fatal("expected the first consume to succeed with a full token")
	}
	if r.TryConsume() {
		t.Fatal("expected the second immediate consume to fail with no tokens left")
	}

	// simulate the passage of one second by backdating lastUpdate
	r.mu.Lock()
	r.lastUpdate = r.lastUpdate.Add(-1 * time.Second)
	r.mu.Unlock()

	if !r.TryConsume() {
		t.Error("expected a token to have refilled after one second at 60/min")
	}
}

func TestTryConsumeCapsTokensAtLimit(t *testing.T) {
	r := NewRateLimiter(10)
	r.mu.Lock()
	r.lastUpdate = time.Now().Add(-1 * time.Hour) // huge elapsed time
	r.mu.Unlock()

	r.refill()
	if r.tokens != 10 {
		t.Errorf("tokens = %v, want capped at 10", r.tokens)
	}
}

func TestRecord429DrainsTokensWithRetryAfter(t *testing.T) {
	r := NewRateLimiter(60)
	r.tokens = 5
	r.Record429(2 * time.Second)
	if r.tokens != 0 {
		t.Errorf("tokens after Record429 with retryAfter = %v, want 0", r.tokens)
	}
	if r.last429Time.IsZero() {
		t.Error("expected last429Time to be recorded")
	}
}

func TestRecord429WithoutRetryAfterKeepsTokens(t *testing.T) {
	r := NewRateLimiter(60)
	r.tokens = 5
	r.Record429(0)
	if r.tokens != 5 {
		t.Errorf("tokens after Record429 without retryAfter = %v, want unchanged 5", r.tokens)
	}
}

func TestStatusReportsUtilization(t *testing.T) {
	r := NewRateLimiter(100)
	r.tokens = 25
	status := r.Status()
	if status.TokensLimit != 100 {
		t.Errorf("TokensLimit = %d, want 100", status.TokensLimit)
	}
	if status.Utilization < 0.74 || status.Utilization > 0.76 {
		t.Errorf("Utilization = %v, want ~0.75", status.Utilization)
	}
}

func TestWaitReturnsImmediatelyWhenTokenAvailable(t *testing.T) {
	r := NewRateLimiter(60)
	r.tokens = 1
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait returned error with a token available: %v", err)
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	r := NewRateLimiter(1) // one token/minute: effectively never refills in time
	r.tokens = 0
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); err == nil {
		t.Fatal("expected Wait to return an error once the context is cancelled")
	}
}
