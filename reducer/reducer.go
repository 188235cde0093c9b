// Package reducer merges ordered per-chunk results into one bounded,
// deterministic pipeline result. Everything here is order-stable: results
// are sorted by chunk index before any merge so output never depends on
// completion order.
package reducer

import (
	"context"
	"sort"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/summary-boot/llm"
	"github.com/SaiNageswarS/summary-boot/prompts"
	"github.com/SaiNageswarS/summary-boot/schema"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// MaxKeyPoints caps the merged key-point list. Earlier chunks win on
// overflow since documents usually front-load important terms.
const MaxKeyPoints = 10

type Reducer struct {
	client llm.CompletionClient
}

// New creates a Reducer. The client is only invoked for the second-level
// condensation call when the merged summary exceeds its budget.
func New(client llm.CompletionClient) *Reducer {
	return &Reducer{client: client}
}

// Reduce merges chunk results into the final PipelineResult. originalWords
// is the word count of the pre-chunking plain text; overlapChars bounds the
// duplicate-stripping window when overlapping chunking was used.
func (r *Reducer) Reduce(ctx context.Context, results []schema.ChunkResult, maxWords, originalWords, overlapChars int) (schema.PipelineResult, error) {
	if len(results) == 0 {
		return schema.PipelineResult{}, schema.NewFailure(schema.AllChunksFailed, "no chunk results to reduce")
	}
	if maxWords <= 0 {
		maxWords = schema.DefaultMaxSummaryWords
	}

	sorted := append([]schema.ChunkResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	summary, err := r.mergeSummary(ctx, sorted, maxWords, overlapChars)
	if err != nil {
		return schema.PipelineResult{}, err
	}

	out := schema.PipelineResult{
		Summary:   summary,
		KeyPoints: mergeKeyPoints(sorted),
		Entities:  mergeEntities(sorted),
		WordCount: schema.WordCount{
			Original: originalWords,
			Summary:  countWords(summary),
		},
	}
	out.DocumentType = majorityVote(sorted, func(c schema.ChunkResult) string { return c.DocumentType })
	out.Sentiment = majorityVote(sorted, func(c schema.ChunkResult) string { return c.Sentiment })

	return out, nil
}

// mergeSummary concatenates fragments in index order and brings the result
// under the word budget: a condensation call when several chunks
// contributed, sentence-boundary truncation otherwise (and as the fallback
// when the condensation call itself fails).
func (r *Reducer) mergeSummary(ctx context.Context, sorted []schema.ChunkResult, maxWords, overlapChars int) (string, error) {
	fragments := make([]string, 0, len(sorted))
	for _, res := range sorted {
		frag := strings.TrimSpace(res.Summary)
		if frag == "" {
			continue
		}
		if overlapChars > 0 && len(fragments) > 0 {
			frag = stripOverlap(fragments[len(fragments)-1], frag, overlapChars)
		}
		if frag != "" {
			fragments = append(fragments, frag)
		}
	}

	merged := strings.Join(fragments, " ")
	if countWords(merged) <= maxWords {
		return merged, nil
	}

	if len(sorted) == 1 {
		return truncateAtSentence(merged, maxWords), nil
	}

	condensed, err := r.condense(ctx, merged, maxWords)
	if err != nil {
		if schema.IsKind(err, schema.Cancelled) {
			return "", err
		}
		logger.Error("Condensation call failed, truncating at sentence boundary", zap.Error(err))
		return truncateAtSentence(merged, maxWords), nil
	}

	// The model aims at the budget but does not guarantee it.
	if countWords(condensed) > maxWords {
		condensed = truncateAtSentence(condensed, maxWords)
	}
	return condensed, nil
}

func (r *Reducer) condense(ctx context.Context, text string, maxWords int) (string, error) {
	systemPrompt, userPrompt, err := prompts.RenderCondensePrompt(text, maxWords)
	if err != nil {
		return "", schema.WrapFailure(schema.InvalidRequest, err, "rendering condense prompt")
	}

	response, err := r.client.Complete(ctx, userPrompt,
		llm.WithSystemPrompt(systemPrompt),
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(2048),
	)
	if err != nil {
		return "", err
	}

	condensed := strings.TrimSpace(response)
	if condensed == "" {
		return "", schema.NewFailure(schema.MalformedResponse, "condensation returned no text")
	}
	return condensed, nil
}

// stripOverlap removes the duplicated region an overlapping chunker
// introduces: the longest exact suffix of prev (up to overlapChars) that
// frag starts with. Paraphrased overlap does not match and passes through.
func stripOverlap(prev, frag string, overlapChars int) string {
	limit := min(overlapChars, min(len(prev), len(frag)))
	for n := limit; n > 0; n-- {
		if strings.HasPrefix(frag, prev[len(prev)-n:]) {
			return strings.TrimSpace(frag[n:])
		}
	}
	return frag
}

// mergeKeyPoints deduplicates by case-insensitive whitespace-normalized
// match, preserving first-seen order across chunks, capped at MaxKeyPoints.
func mergeKeyPoints(sorted []schema.ChunkResult) []string {
	var all []string
	for _, res := range sorted {
		for _, kp := range res.KeyPoints {
			if strings.TrimSpace(kp) != "" {
				all = append(all, strings.TrimSpace(kp))
			}
		}
	}

	deduped := lo.UniqBy(all, normalizeKey)
	if len(deduped) > MaxKeyPoints {
		deduped = deduped[:MaxKeyPoints]
	}
	return deduped
}

// mergeEntities unions values per category in insertion order, deduplicating
// by exact string match.
func mergeEntities(sorted []schema.ChunkResult) map[string][]string {
	merged := make(map[string][]string)
	for _, res := range sorted {
		for category, values := range res.Entities {
			merged[category] = append(merged[category], values...)
		}
	}
	if len(merged) == 0 {
		return nil
	}

	for category, values := range merged {
		merged[category] = lo.Uniq(values)
	}
	return merged
}

// majorityVote picks the most frequent non-empty value across chunks, ties
// broken by the earliest chunk that reported the value. Returns "" when no
// chunk reported one, so the field is omitted rather than defaulted.
func majorityVote(sorted []schema.ChunkResult, pick func(schema.ChunkResult) string) string {
	type tally struct {
		count     int
		firstSeen int
		value     string
	}
	votes := make(map[string]*tally)

	for pos, res := range sorted {
		value := strings.TrimSpace(pick(res))
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if t, ok := votes[key]; ok {
			t.count++
		} else {
			votes[key] = &tally{count: 1, firstSeen: pos, value: value}
		}
	}

	var winner *tally
	for _, t := range votes {
		if winner == nil || t.count > winner.count ||
			(t.count == winner.count && t.firstSeen < winner.firstSeen) {
			winner = t
		}
	}
	if winner == nil {
		return ""
	}
	return winner.value
}

// truncateAtSentence cuts text at the last sentence boundary that fits the
// word budget. When even the first sentence is over budget the cut falls on
// the word limit itself.
func truncateAtSentence(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}

	clipped := strings.Join(words[:maxWords], " ")
	if idx := lastSentenceEnd(clipped); idx > 0 {
		return clipped[:idx]
	}
	return clipped
}

func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return -1
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
