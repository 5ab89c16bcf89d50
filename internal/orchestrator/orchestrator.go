// Package orchestrator runs the periodic priority scan that decides the
// single next action for the system as a whole: which book to process,
// resume, refine, or enrich, or whether to regenerate the feed. It is the
// only thing that ever re-drives a stuck or completed book; stage
// executors never retry themselves.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexmercer/bookbrain/internal/pipeline"
)

// pgxNoRows is the sentinel pgx.QueryRow returns when a scan finds no
// matching row; every rule treats it as "this rule doesn't fire", not
// an error.
var pgxNoRows = pgx.ErrNoRows

// FeedGenerator regenerates feed items when the unread count runs low.
// Satisfied by *internal/feed.Generator; an interface here keeps the
// orchestrator from depending on the feed package's LLM/template details.
type FeedGenerator interface {
	Generate(ctx context.Context) error
}

// Intensity controls tick frequency. Paused suppresses all dispatch.
type Intensity int

const (
	Aggressive Intensity = iota
	Normal
	Idle
	Paused
)

func (i Intensity) interval() time.Duration {
	switch i {
	case Aggressive:
		return 60 * time.Second
	case Idle:
		return 1800 * time.Second
	case Paused:
		return 0 // Start falls back to a 300s ticker and skips Tick while Paused.
	default:
		return 300 * time.Second
	}
}

// intermediateStatuses are the Book.processing_status values a stuck
// book can be found in; anything further along already has a pending
// job row driving it, or is terminal.
var intermediateStatuses = []string{"extracting", "chunking", "embedding"}

// Brain is the orchestrator's periodic priority scanner.
type Brain struct {
	db            *pgxpool.Pool
	coordinator   *pipeline.Coordinator
	feedGenerator FeedGenerator
	logger        *slog.Logger
	intensity     Intensity
}

// New builds a Brain. The default intensity is Normal (300s ticks).
// feedGenerator may be nil; the generate_feed rule then never fires.
func New(db *pgxpool.Pool, coordinator *pipeline.Coordinator, feedGenerator FeedGenerator, logger *slog.Logger) *Brain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Brain{db: db, coordinator: coordinator, feedGenerator: feedGenerator, logger: logger, intensity: Normal}
}

// SetIntensity changes the intensity. The ticker interval is read once
// when Start begins, so a new interval takes effect on the next Start
// call; the Paused check reads the field on every tick. The field is not
// synchronized: a call made while Start is running races with it.
func (b *Brain) SetIntensity(i Intensity) {
	b.intensity = i
}

// Start runs the tick loop until ctx is cancelled. Paused intensity
// suppresses all dispatch but the loop keeps polling so a later
// SetIntensity-then-restart isn't required to resume.
func (b *Brain) Start(ctx context.Context) {
	interval := b.intensity.interval()
	if interval <= 0 {
		interval = 300 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.logger.Info("orchestrator starting", "intensity", b.intensity, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("orchestrator stopping")
			return
		case <-ticker.C:
			if b.intensity == Paused {
				continue
			}
			if err := b.Tick(ctx); err != nil {
				b.logger.Error("tick failed", "error", err)
			}
		}
	}
}

// Tick runs one priority scan and dispatches at most one action. It
// returns nil when no rule fired (a no-op tick is not an error).
func (b *Brain) Tick(ctx context.Context) error {
	for _, rule := range rules {
		dispatched, err := rule.run(ctx, b)
		if err != nil {
			return err
		}
		if dispatched {
			return nil
		}
	}
	return nil
}

// rule is one priority level of the scan; rules are tried in slice
// order (lowest-numbered rule wins) and run returns whether it dispatched.
type rule struct {
	name string
	run  func(ctx context.Context, b *Brain) (bool, error)
}

var rules = []rule{
	{"process_pending_book", processPendingBook},
	{"resume_stuck_book", resumeStuckBook},
	{"refine_insights", refineInsights},
	{"generate_feed", generateFeed},
	{"enrich_book", enrichBook},
}

func (i Intensity) String() string {
	switch i {
	case Aggressive:
		return "aggressive"
	case Idle:
		return "idle"
	case Paused:
		return "paused"
	default:
		return "normal"
	}
}

