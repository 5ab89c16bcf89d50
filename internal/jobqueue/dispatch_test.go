package jobqueue

import (
	"testing"

	"github.com/alexmercer/bookbrain/internal/jobstore"
)

func TestQueueForStageRoutesByResourceProfile(t *testing.T) {
	cases := map[string]string{
		jobstore.StageExtract:  QueueProcessing,
		jobstore.StageChunk:    QueueProcessing,
		jobstore.StageEmbed:    QueueEmbedding,
		jobstore.StageInsights: QueueLLM,
		jobstore.StageEnrich:   QueueLLM,
		"unknown-stage":        QueueProcessing,
	}
	for stage, want := range cases {
		if got := queueForStage(stage); got != want {
			t.Errorf("queueForStage(%q) = %q, want %q", stage, got, want)
		}
	}
}
