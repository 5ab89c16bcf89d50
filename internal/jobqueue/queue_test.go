package jobqueue

import "testing"

func TestKeyForNamespacesQueueNames(t *testing.T) {
	cases := map[string]string{
		QueueProcessing: "bookbrain:queue:processing",
		QueueEmbedding:  "bookbrain:queue:embedding",
		QueueLLM:        "bookbrain:queue:llm",
	}
	for queue, want := range cases {
		if got := keyFor(queue); got != want {
			t.Errorf("keyFor(%q) = %q, want %q", queue, got, want)
		}
	}
}
