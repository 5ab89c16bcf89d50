// Package chunker splits extracted book text into overlapping, roughly
// token-bounded chunks for embedding and retrieval. It is paragraph-aware:
// it never splits mid-paragraph, and it seeds each new chunk with the tail
// of the previous one so nearby chunks share context.
package chunker

import (
	"regexp"
	"strings"
)

// Chunk is one unit of chunked text, dense and 0-based within a book.
type Chunk struct {
	Index      int
	Content    string
	Page       int
	TokenCount int
}

// Options configures chunk boundaries.
type Options struct {
	// ChunkSize is the approximate token budget per chunk (estimated as
	// whitespace-separated word count, not a real tokenizer).
	ChunkSize int
	// ChunkOverlap is the approximate token budget carried from the tail
	// of one chunk into the head of the next.
	ChunkOverlap int
}

// DefaultOptions matches the defaults used throughout the pipeline.
func DefaultOptions() Options {
	return Options{ChunkSize: 512, ChunkOverlap: 64}
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// estimateTokens approximates token count as whitespace word count. This
// intentionally avoids a real tokenizer: it only needs to be consistent
// between chunking and the size budget it's measured against.
func estimateTokens(text string) int {
	return len(strings.Fields(text))
}

// ChunkText splits a single page (or other contiguous unit) of text into
// chunks, continuing chunk indices from startIndex so multi-page callers
// can keep a dense, book-wide numbering via ChunkPages.
func ChunkText(text string, page int, startIndex int, opts Options) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var paragraphs []string
	for _, p := range paragraphSplit.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []Chunk
	var current []string
	currentTokens := 0
	idx := startIndex

	flush := func(tokenCount int) {
		content := strings.Join(current, "\n\n")
		chunks = append(chunks, Chunk{
			Index:      idx,
			Content:    content,
			Page:       page,
			TokenCount: tokenCount,
		})
		idx++
	}

	for _, para := range paragraphs {
		paraTokens := estimateTokens(para)

		if currentTokens+paraTokens > opts.ChunkSize && len(current) > 0 {
			flush(currentTokens)

			// Seed the next chunk with as much of the current chunk's tail
			// as fits within the overlap budget, walking backward so the
			// kept paragraphs stay in original order.
			var overlap []string
			overlapTokens := 0
			for i := len(current) - 1; i >= 0; i-- {
				t := estimateTokens(current[i])
				if overlapTokens+t > opts.ChunkOverlap {
					break
				}
				overlap = append([]string{current[i]}, overlap...)
				overlapTokens += t
			}
			current = overlap
			currentTokens = overlapTokens
		}

		current = append(current, para)
		currentTokens += paraTokens
	}

	if len(current) > 0 {
		flush(currentTokens)
	}

	return chunks
}

// Page is one page of extracted text to be chunked, in book order.
type Page struct {
	Number int
	Text   string
}

// ChunkPages chunks a whole book's pages, producing a single dense,
// 0-based chunk_index sequence across page boundaries.
func ChunkPages(pages []Page, opts Options) []Chunk {
	var all []Chunk
	idx := 0
	for _, p := range pages {
		pageChunks := ChunkText(p.Text, p.Number, idx, opts)
		all = append(all, pageChunks...)
		idx += len(pageChunks)
	}
	return all
}
