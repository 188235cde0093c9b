// Package llm wraps external text-completion capabilities behind a single
// narrow interface with classified failures and bounded retries. It is the
// pipeline's only point of contact with the network.
package llm

import "context"

// CompletionClient is the completion capability: a prompt goes in, generated
// text or a classified failure comes out. Implementations are stateless and
// safe to invoke concurrently for independent chunks.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, opts ...Option) (string, error)

	GetModel() string
}

// OCRClient extracts text from an image. OCR confidence is opaque here; an
// unreadable image simply yields an empty string.
type OCRClient interface {
	RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error)
}

type settings struct {
	model       string
	temperature float64
	maxTokens   int
	system      string
}

// Option tunes a single completion call.
type Option func(*settings)

func WithTemperature(temp float64) Option {
	return func(s *settings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) Option {
	return func(s *settings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) Option {
	return func(s *settings) { s.system = prompt }
}

func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}
