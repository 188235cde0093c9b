package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/summary-boot/schema"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewGeminiClient(model string) *GeminiClient {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		// Providers are designed for dependency injection.
		// If the API key is not set, we log a fatal error.
		logger.Fatal("GEMINI_API_KEY environment variable is not set")
		return nil
	}

	return &GeminiClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    geminiBaseURL,
		model:      model,
	}
}

func (c *GeminiClient) GetModel() string {
	return c.model
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	s := settings{
		model:       c.model,
		temperature: 0.3,
		maxTokens:   4096,
	}
	for _, opt := range opts {
		opt(&s)
	}

	parts := []geminiPart{{Text: prompt}}
	return c.generate(ctx, s, parts)
}

// RecognizeText sends an image to the multimodal endpoint and returns the
// transcribed text. Unreadable images come back as an empty string, not an
// error.
func (c *GeminiClient) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error) {
	s := settings{model: c.model, maxTokens: 8192}

	parts := []geminiPart{
		{Text: "Transcribe all readable text from this image verbatim. Return only the text, with no commentary. If nothing is readable, return nothing."},
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return c.generate(ctx, s, parts)
}

func (c *GeminiClient) generate(ctx context.Context, s settings, parts []geminiPart) (string, error) {
	request := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: s.maxTokens,
			Temperature:     s.temperature,
		},
	}
	if s.system != "" {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: s.system}}}
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", schema.WrapFailure(schema.InvalidRequest, err, "marshaling request")
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, s.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", schema.WrapFailure(schema.InvalidRequest, err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", schema.WrapFailure(schema.ServiceUnavailable, err, "reading response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", schema.WrapFailure(schema.MalformedResponse, err, "unmarshaling response")
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", schema.NewFailure(schema.MalformedResponse, "no candidates in response")
	}

	return response.Candidates[0].Content.Parts[0].Text, nil
}

// classifyStatus maps the service's HTTP status codes onto the failure
// taxonomy so the retry layer knows what is worth repeating.
func classifyStatus(status int, body []byte) error {
	msg := fmt.Sprintf("API request failed with status %d: %s", status, string(body))
	switch {
	case status == http.StatusTooManyRequests:
		return schema.NewFailure(schema.RateLimited, "%s", msg)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return schema.NewFailure(schema.Timeout, "%s", msg)
	case status >= 500:
		return schema.NewFailure(schema.ServiceUnavailable, "%s", msg)
	default:
		return schema.NewFailure(schema.InvalidRequest, "%s", msg)
	}
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return schema.WrapFailure(schema.Timeout, err, "request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return schema.WrapFailure(schema.Cancelled, err, "request cancelled")
	}
	return schema.WrapFailure(schema.ServiceUnavailable, err, "request failed")
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// geminiResponse represents the response from the generateContent API
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}
