// Package providers defines the opaque external-capability clients the
// pipeline and chat layers depend on: chat/completion, embedding, and
// metadata lookup. Concrete implementations live alongside this file;
// callers only ever see the interfaces.
package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the primary interface for chat/completion requests.
type LLMClient interface {
	// Chat sends a single non-streaming completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Stream sends a completion request and emits content deltas on delta
	// as they arrive. The returned ChatResult reflects the final assembled
	// response once the stream completes.
	Stream(ctx context.Context, req *ChatRequest, delta func(string)) (*ChatResult, error)

	// Name returns the client identifier (e.g. "openrouter").
	Name() string
}

// EmbeddingClient produces dense vector embeddings for text.
type EmbeddingClient interface {
	// Embed returns one embedding vector per input string, order preserved.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the vector width this client produces.
	Dimensions() int

	Name() string
}

// MetadataClient looks up external bibliographic metadata and cover art
// for a book, given whatever identifying info is available (title/author/
// ISBN). Best-effort: a miss is not an error.
type MetadataClient interface {
	Lookup(ctx context.Context, req MetadataLookup) (*MetadataResult, error)
	FetchCover(ctx context.Context, url string) ([]byte, error)
	Name() string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat requests structured JSON output.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_schema" or "json_object"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Timeout        time.Duration   `json:"-"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	RequestID      string          `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	CostUSD       float64       `json:"cost_usd"`
	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// MetadataLookup describes what's known about a book before lookup.
type MetadataLookup struct {
	Title  string
	Author string
	ISBN   string
}

// MetadataResult is what an external catalog returned about a book.
type MetadataResult struct {
	Title       string
	Author      string
	Description string
	ISBN        string
	Publisher   string
	PublishedAt string
	PageCount   int
	Rating      float64
	CoverURL    string
	Tags        []string
}
