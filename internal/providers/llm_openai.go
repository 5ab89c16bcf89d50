package providers

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIChatConfig configures an OpenAIChatClient. BaseURL lets the client
// point at any OpenAI-wire-compatible endpoint (OpenRouter in production).
type OpenAIChatConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	RPS          float64
}

// OpenAIChatClient is an LLMClient backed by the OpenAI chat completions
// wire protocol, pointed at an OpenAI-compatible endpoint.
type OpenAIChatClient struct {
	sdk          sdk.Client
	defaultModel string
	limiter      *RateLimiter
	name         string
}

// NewOpenAIChatClient builds a chat client against cfg.BaseURL (OpenRouter
// by default when cfg.BaseURL is set to its API).
func NewOpenAIChatClient(name string, cfg OpenAIChatConfig) *OpenAIChatClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 60
	}
	return &OpenAIChatClient{
		sdk:          sdk.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
		limiter:      NewRateLimiter(int(rps * 60)),
		name:         name,
	}
}

func (c *OpenAIChatClient) Name() string { return c.name }

func (c *OpenAIChatClient) model(req *ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.defaultModel
}

func adaptMessages(msgs []Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, sdk.SystemMessage(m.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}

// Chat sends a single non-streaming completion request.
func (c *OpenAIChatClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	params := sdk.ChatCompletionNewParams{
		Model:    c.model(req),
		Messages: adaptMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(req.MaxTokens))
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &sdk.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	comp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return &ChatResult{Provider: c.name, Success: false, ErrorMessage: err.Error(), RequestID: req.RequestID}, fmt.Errorf("openai chat completion: %w", err)
	}

	res := &ChatResult{
		Provider:      c.name,
		ModelUsed:     params.Model,
		RequestID:     req.RequestID,
		Success:       true,
		ExecutionTime: time.Since(start),
	}
	if len(comp.Choices) > 0 {
		res.Content = comp.Choices[0].Message.Content
	}
	res.PromptTokens = int(comp.Usage.PromptTokens)
	res.CompletionTokens = int(comp.Usage.CompletionTokens)
	res.TotalTokens = int(comp.Usage.TotalTokens)
	return res, nil
}

// Stream sends a completion request and emits content deltas as they arrive.
func (c *OpenAIChatClient) Stream(ctx context.Context, req *ChatRequest, delta func(string)) (*ChatResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	params := sdk.ChatCompletionNewParams{
		Model:    c.model(req),
		Messages: adaptMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var content string
	var promptTokens, completionTokens, totalTokens int
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		d := chunk.Choices[0].Delta.Content
		if d != "" {
			content += d
			delta(d)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai chat stream: %w", err)
	}

	return &ChatResult{
		Provider:         c.name,
		ModelUsed:        params.Model,
		RequestID:        req.RequestID,
		Success:          true,
		Content:          content,
		ExecutionTime:    time.Since(start),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
	}, nil
}
