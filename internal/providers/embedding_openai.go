package providers

import (
	"context"
	"fmt"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEmbeddingConfig configures an OpenAIEmbeddingClient.
type OpenAIEmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	RPS        float64
}

// OpenAIEmbeddingClient is an EmbeddingClient backed by the OpenAI
// embeddings wire protocol.
type OpenAIEmbeddingClient struct {
	sdk        sdk.Client
	model      string
	dimensions int
	limiter    *RateLimiter
	name       string
}

// NewOpenAIEmbeddingClient builds an embedding client against cfg.BaseURL.
func NewOpenAIEmbeddingClient(name string, cfg OpenAIEmbeddingConfig) *OpenAIEmbeddingClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 60
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 384
	}
	return &OpenAIEmbeddingClient{
		sdk:        sdk.NewClient(opts...),
		model:      cfg.Model,
		dimensions: dims,
		limiter:    NewRateLimiter(int(rps * 60)),
		name:       name,
	}
}

func (c *OpenAIEmbeddingClient) Name() string    { return c.name }
func (c *OpenAIEmbeddingClient) Dimensions() int { return c.dimensions }

// Embed returns one embedding vector per input string, order preserved.
func (c *OpenAIEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := sdk.EmbeddingNewParams{
		Model: c.model,
		Input: sdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	if c.dimensions > 0 {
		params.Dimensions = sdk.Int(int64(c.dimensions))
	}

	resp, err := c.sdk.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		if int(d.Index) < len(out) {
			out[d.Index] = vec
		}
	}
	return out, nil
}
