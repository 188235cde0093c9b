package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/summary-boot/schema"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaClient runs completions against a local or self-hosted ollama
// instance. Useful for tests and offline summarization.
type OllamaClient struct {
	client *api.Client
	model  string
}

func NewOllamaClient(model string) *OllamaClient {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Fatal("Failed to create ollama client", zap.Error(err))
		return nil
	}

	return &OllamaClient{client: client, model: model}
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	s := settings{
		model:       c.model,
		temperature: 0.3,
		maxTokens:   4096,
	}
	for _, opt := range opts {
		opt(&s)
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  s.model,
		Prompt: prompt,
		System: s.system,
		Stream: &stream,
		Options: map[string]any{
			"temperature": s.temperature,
			"num_predict": s.maxTokens,
		},
	}

	var out string
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out += resp.Response
		return nil
	})
	if err != nil {
		return "", classifyOllamaError(err)
	}

	return out, nil
}

func classifyOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return schema.WrapFailure(schema.RateLimited, err, "ollama rate limited")
		case statusErr.StatusCode >= 500:
			return schema.WrapFailure(schema.ServiceUnavailable, err, "ollama unavailable")
		default:
			return schema.WrapFailure(schema.InvalidRequest, err, "ollama rejected request")
		}
	}
	return classifyTransportError(err)
}
