package chat

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/alexmercer/bookbrain/internal/retrieval"
)

func TestBuildContextEmptyChunks(t *testing.T) {
	if got := buildContext(nil); got != "No relevant content found." {
		t.Errorf("buildContext(nil) = %q, want fallback text", got)
	}
}

func TestBuildContextJoinsChunksWithCitations(t *testing.T) {
	chunks := []retrieval.Chunk{
		{BookTitle: "Deep Work", Page: 42, Content: "Focus is a skill."},
		{BookTitle: "Atomic Habits", Page: 7, Content: "Small gains compound."},
	}
	got := buildContext(chunks)
	if !strings.Contains(got, "[Deep Work - p.42]") {
		t.Errorf("missing first citation in %q", got)
	}
	if !strings.Contains(got, "[Atomic Habits - p.7]") {
		t.Errorf("missing second citation in %q", got)
	}
	if !strings.Contains(got, "---") {
		t.Errorf("expected chunks to be separated by a divider, got %q", got)
	}
}

func TestBuildSourcesTruncatesLongSnippets(t *testing.T) {
	long := strings.Repeat("a", snippetLen+50)
	id := uuid.New()
	chunks := []retrieval.Chunk{{ChunkID: id, BookTitle: "T", Page: 1, Content: long}}

	sources := buildSources(chunks)
	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(sources))
	}
	if len(sources[0].Snippet) != snippetLen {
		t.Errorf("len(Snippet) = %d, want %d", len(sources[0].Snippet), snippetLen)
	}
	if sources[0].ChunkID != id || sources[0].PageNumber != 1 {
		t.Errorf("unexpected source metadata: %+v", sources[0])
	}
}

func TestBuildSourcesKeepsShortSnippetsWhole(t *testing.T) {
	chunks := []retrieval.Chunk{{Content: "short"}}
	sources := buildSources(chunks)
	if sources[0].Snippet != "short" {
		t.Errorf("Snippet = %q, want %q", sources[0].Snippet, "short")
	}
}

func TestRenderTemplateSubstitutesPlaceholders(t *testing.T) {
	tmpl := "Context:\n{context}\n\nQuestion: {question}"
	got := renderTemplate(tmpl, "some context", "what now?")
	want := "Context:\nsome context\n\nQuestion: what now?"
	if got != want {
		t.Errorf("renderTemplate() = %q, want %q", got, want)
	}
}

func TestSourcesOrEmptyNeverReturnsNil(t *testing.T) {
	if got := sourcesOrEmpty(nil); got == nil || len(got) != 0 {
		t.Errorf("sourcesOrEmpty(nil) = %v, want empty non-nil slice", got)
	}
	in := []Source{{BookTitle: "x"}}
	if got := sourcesOrEmpty(in); len(got) != 1 {
		t.Errorf("sourcesOrEmpty should pass through a non-nil slice unchanged")
	}
}
