package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SaiNageswarS/summary-boot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeminiClient(serverURL string) *GeminiClient {
	return &GeminiClient{
		apiKey:     "test-key",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    serverURL,
		model:      "gemini-1.5-flash",
	}
}

func geminiReply(text string) geminiResponse {
	return geminiResponse{
		Candidates: []geminiCandidate{
			{Content: geminiContent{Parts: []geminiPart{{Text: text}}}},
		},
	}
}

func TestGeminiComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "Summarize this.", req.Contents[0].Parts[0].Text)
		assert.Equal(t, "system text", req.SystemInstruction.Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply("A summary."))
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	out, err := client.Complete(context.Background(), "Summarize this.", WithSystemPrompt("system text"))

	require.NoError(t, err)
	assert.Equal(t, "A summary.", out)
}

func TestGeminiCompleteRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.RateLimited))
}

func TestGeminiCompleteServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ServiceUnavailable))
}

func TestGeminiCompleteInvalidRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.InvalidRequest))
}

func TestGeminiCompleteNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.MalformedResponse))
}

func TestGeminiRecognizeText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		parts := req.Contents[0].Parts
		require.Len(t, parts, 2)
		assert.Contains(t, parts[0].Text, "Transcribe")
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "image/png", parts[1].InlineData.MimeType)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply("Scanned page text."))
	}))
	defer server.Close()

	client := testGeminiClient(server.URL)
	out, err := client.RecognizeText(context.Background(), []byte{1, 2, 3}, "image/png")

	require.NoError(t, err)
	assert.Equal(t, "Scanned page text.", out)
}
