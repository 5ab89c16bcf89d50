package chunker

import (
	"strings"
	"testing"
)

func TestChunkText(t *testing.T) {
	t.Run("empty text produces no chunks", func(t *testing.T) {
		if got := ChunkText("   \n\n  ", 1, 0, DefaultOptions()); got != nil {
			t.Errorf("got %d chunks, want 0", len(got))
		}
	})

	t.Run("short text fits in a single chunk", func(t *testing.T) {
		text := "para one.\n\npara two."
		chunks := ChunkText(text, 1, 0, DefaultOptions())
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1", len(chunks))
		}
		if chunks[0].Index != 0 || chunks[0].Page != 1 {
			t.Errorf("chunk metadata = %+v", chunks[0])
		}
		if !strings.Contains(chunks[0].Content, "para one.") || !strings.Contains(chunks[0].Content, "para two.") {
			t.Errorf("chunk content missing paragraphs: %q", chunks[0].Content)
		}
	})

	t.Run("overflow splits into multiple chunks with overlap", func(t *testing.T) {
		opts := Options{ChunkSize: 5, ChunkOverlap: 3}
		// Each paragraph is exactly 3 words, so 2 paragraphs (6 words) overflow 5.
		text := "one two three\n\nfour five six\n\nseven eight nine"
		chunks := ChunkText(text, 1, 0, opts)
		if len(chunks) < 2 {
			t.Fatalf("got %d chunks, want at least 2", len(chunks))
		}
		// chunk indices must be dense and 0-based.
		for i, c := range chunks {
			if c.Index != i {
				t.Errorf("chunk %d has index %d, want dense 0-based", i, c.Index)
			}
		}
		// the second chunk should carry the first chunk's tail paragraph,
		// which fits the 3-token overlap budget.
		if !strings.Contains(chunks[1].Content, "one two three") {
			t.Errorf("expected overlap seed in second chunk, got %q", chunks[1].Content)
		}
	})

	t.Run("never splits a paragraph itself", func(t *testing.T) {
		opts := Options{ChunkSize: 1, ChunkOverlap: 0}
		text := "one two three four"
		chunks := ChunkText(text, 1, 0, opts)
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1 (single paragraph never splits)", len(chunks))
		}
		if chunks[0].Content != text {
			t.Errorf("got %q, want %q", chunks[0].Content, text)
		}
	})
}

func TestChunkPages(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: "alpha beta"},
		{Number: 2, Text: "gamma delta"},
	}
	chunks := ChunkPages(pages, DefaultOptions())
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d index = %d, want dense 0-based sequence across pages", i, c.Index)
		}
	}
	if chunks[0].Page != 1 || chunks[1].Page != 2 {
		t.Errorf("page numbers not preserved: %+v", chunks)
	}
}
