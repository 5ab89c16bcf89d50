package providers

import (
	"context"
	"sync/atomic"
)

// MockLLM is a deterministic LLMClient for tests.
type MockLLM struct {
	ResponseText string
	JSONMode     bool
	calls        atomic.Int64
}

func NewMockLLM(responseText string) *MockLLM {
	return &MockLLM{ResponseText: responseText}
}

func (m *MockLLM) Name() string { return "mock" }

func (m *MockLLM) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	m.calls.Add(1)
	return &ChatResult{
		Content:   m.ResponseText,
		Provider:  "mock",
		ModelUsed: req.Model,
		Success:   true,
		RequestID: req.RequestID,
	}, nil
}

func (m *MockLLM) Stream(ctx context.Context, req *ChatRequest, delta func(string)) (*ChatResult, error) {
	m.calls.Add(1)
	delta(m.ResponseText)
	return &ChatResult{Content: m.ResponseText, Provider: "mock", ModelUsed: req.Model, Success: true}, nil
}

func (m *MockLLM) Calls() int64 { return m.calls.Load() }

// MockEmbedder is a deterministic EmbeddingClient for tests: produces a
// fixed-width vector seeded from the input string length modulo 97, so
// vectors are reproducible; texts whose lengths agree modulo 97 get the
// same vector.
type MockEmbedder struct {
	Dims int
}

func NewMockEmbedder(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &MockEmbedder{Dims: dims}
}

func (m *MockEmbedder) Name() string    { return "mock" }
func (m *MockEmbedder) Dimensions() int { return m.Dims }

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, m.Dims)
		seed := float32(len(t)%97 + 1)
		for j := range vec {
			vec[j] = seed / float32(j+1)
		}
		out[i] = vec
	}
	return out, nil
}

// MockMetadata is a deterministic MetadataClient for tests.
type MockMetadata struct {
	Result *MetadataResult
}

func (m *MockMetadata) Name() string { return "mock" }

func (m *MockMetadata) Lookup(ctx context.Context, req MetadataLookup) (*MetadataResult, error) {
	return m.Result, nil
}

func (m *MockMetadata) FetchCover(ctx context.Context, url string) ([]byte, error) {
	return []byte("fake-cover-bytes"), nil
}
