// Package summarizer runs the map step: one completion call per chunk,
// parsed against a fixed structured shape.
package summarizer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/summary-boot/llm"
	"github.com/SaiNageswarS/summary-boot/prompts"
	"github.com/SaiNageswarS/summary-boot/schema"
	"go.uber.org/zap"
)

// fallbackMinWords is the smallest prose fragment worth salvaging from a
// malformed completion.
const fallbackMinWords = 5

type ChunkSummarizer struct {
	client llm.CompletionClient
	mode   schema.AnalysisMode
}

func New(client llm.CompletionClient, mode schema.AnalysisMode) *ChunkSummarizer {
	return &ChunkSummarizer{client: client, mode: mode}
}

// Summarize builds the deterministic prompt for the chunk, invokes the
// completion capability, and parses the structured reply. A malformed reply
// that still contains usable prose degrades to a summary-only fallback
// result with Fallback set; otherwise the chunk fails with
// MalformedResponse.
func (s *ChunkSummarizer) Summarize(ctx context.Context, chunk schema.Chunk) (schema.ChunkResult, error) {
	systemPrompt, userPrompt, err := prompts.RenderChunkSummaryPrompt(s.mode, chunk.Text)
	if err != nil {
		return schema.ChunkResult{}, schema.WrapFailure(schema.InvalidRequest, err, "rendering chunk prompt")
	}

	response, err := s.client.Complete(ctx, userPrompt,
		llm.WithSystemPrompt(systemPrompt),
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(2048),
	)
	if err != nil {
		return schema.ChunkResult{}, err
	}

	result, err := parseChunkReply(chunk.Index, response)
	if err != nil {
		if fallback, ok := recoverFallbackSummary(response); ok {
			logger.Error("Malformed chunk reply, salvaging prose as summary fragment",
				zap.Int("chunk", chunk.Index))
			return schema.ChunkResult{Index: chunk.Index, Summary: fallback, Fallback: true}, nil
		}
		return schema.ChunkResult{}, err
	}

	return result, nil
}

// chunkReply is the shape the prompt templates instruct the model to emit.
type chunkReply struct {
	Summary      string              `json:"summary"`
	KeyPoints    []string            `json:"key_points"`
	Entities     map[string][]string `json:"entities,omitempty"`
	DocumentType string              `json:"document_type,omitempty"`
	Sentiment    string              `json:"sentiment,omitempty"`
}

func parseChunkReply(index int, response string) (schema.ChunkResult, error) {
	// Models wrap JSON in prose or fences often enough that we scope the
	// parse to the outermost brace pair.
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || startIdx >= endIdx {
		return schema.ChunkResult{}, schema.NewFailure(schema.MalformedResponse, "no JSON object in chunk reply")
	}

	var reply chunkReply
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &reply); err != nil {
		return schema.ChunkResult{}, schema.WrapFailure(schema.MalformedResponse, err, "unmarshaling chunk reply")
	}

	if strings.TrimSpace(reply.Summary) == "" {
		return schema.ChunkResult{}, schema.NewFailure(schema.MalformedResponse, "chunk reply has empty summary")
	}

	return schema.ChunkResult{
		Index:        index,
		Summary:      strings.TrimSpace(reply.Summary),
		KeyPoints:    reply.KeyPoints,
		Entities:     reply.Entities,
		DocumentType: strings.TrimSpace(reply.DocumentType),
		Sentiment:    strings.ToLower(strings.TrimSpace(reply.Sentiment)),
	}, nil
}

// recoverFallbackSummary tries to salvage a summary-shaped substring from a
// reply that failed structured parsing. Fences and brace noise are stripped;
// whatever prose remains must be at least fallbackMinWords long.
func recoverFallbackSummary(response string) (string, bool) {
	cleaned := response
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.Trim(cleaned, "{}\n\t ")
	cleaned = strings.TrimSpace(cleaned)

	if len(strings.Fields(cleaned)) < fallbackMinWords {
		return "", false
	}
	return cleaned, true
}
