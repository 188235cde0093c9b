package llm

import (
	"context"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/summary-boot/schema"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	retryInitialInterval = 1 * time.Second
	retryMaxInterval     = 60 * time.Second
	maxAttempts          = 3
)

// retryingClient decorates a CompletionClient with exponential backoff and
// jitter. Only transient failure kinds are retried; everything else surfaces
// immediately. Each call owns its own backoff state, so concurrent chunk
// retries never block one another.
type retryingClient struct {
	inner           CompletionClient
	initialInterval time.Duration
}

// WithRetry wraps client with the adapter's retry policy: at most three
// attempts, exponential backoff with jitter, retrying only RateLimited,
// ServiceUnavailable and Timeout.
func WithRetry(client CompletionClient) CompletionClient {
	return &retryingClient{inner: client, initialInterval: retryInitialInterval}
}

func (c *retryingClient) GetModel() string {
	return c.inner.GetModel()
}

func (c *retryingClient) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = retryMaxInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx)

	attempt := 0
	operation := func() (string, error) {
		attempt++
		out, err := c.inner.Complete(ctx, prompt, opts...)
		if err != nil {
			kind := schema.KindOf(err)
			if !kind.Retryable() {
				return "", backoff.Permanent(err)
			}
			logger.Error("Completion call failed, retrying",
				zap.String("kind", string(kind)),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return "", err
		}
		return out, nil
	}

	return backoff.RetryWithData(operation, policy)
}
