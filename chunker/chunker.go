// Package chunker splits plain text into bounded, boundary-aligned chunks
// for independent summarization.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/SaiNageswarS/summary-boot/schema"
)

const (
	// DefaultMaxChunkChars keeps each chunk comfortably within what a
	// completion call can process in one prompt.
	DefaultMaxChunkChars = 5000

	// lookbackRatio is the fraction of the budget scanned backwards for a
	// sentence or paragraph boundary before falling back to a hard split.
	lookbackRatio = 0.10
)

// Split cuts text into ordered chunks of at most maxChars characters each.
// Each split point backs up to the nearest sentence or paragraph boundary
// within the lookback window; when several candidates exist the one closest
// to the budget wins, so chunks stay as full as possible. With overlapChars
// > 0 every chunk after the first repeats the trailing overlapChars of its
// predecessor verbatim. A split never lands inside a multi-byte rune.
//
// Concatenating zero-overlap chunk spans in index order reproduces text
// exactly.
func Split(text string, maxChars, overlapChars int) ([]schema.Chunk, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	if strings.TrimSpace(text) == "" {
		return nil, schema.NewFailure(schema.EmptyDocument, "no text to chunk")
	}
	if overlapChars < 0 || overlapChars >= maxChars {
		overlapChars = 0
	}

	if len(text) <= maxChars {
		return []schema.Chunk{{Index: 0, Text: text}}, nil
	}

	var out []schema.Chunk
	pos := 0
	for pos < len(text) {
		remaining := text[pos:]

		prefix := ""
		budget := maxChars
		if overlapChars > 0 && len(out) > 0 {
			prev := out[len(out)-1].Text
			start := len(prev) - overlapChars
			if start < 0 {
				start = 0
			}
			// Never start the overlap inside a multi-byte rune.
			for start < len(prev) && !utf8.RuneStart(prev[start]) {
				start++
			}
			prefix = prev[start:]
			budget = maxChars - len(prefix)
		}

		if len(remaining) <= budget {
			out = append(out, schema.Chunk{Index: len(out), Text: prefix + remaining})
			break
		}

		cut := splitPoint(remaining, budget)
		out = append(out, schema.Chunk{Index: len(out), Text: prefix + remaining[:cut]})
		pos += cut
	}

	return out, nil
}

// splitPoint returns the cut position for the next chunk: the boundary
// closest to budget within the lookback window, or budget itself when no
// boundary exists there.
func splitPoint(text string, budget int) int {
	window := int(float64(budget) * lookbackRatio)
	if window < 1 {
		window = 1
	}
	start := budget - window
	if start < 0 {
		start = 0
	}

	// Scan backwards from the budget so the latest boundary wins.
	for i := budget - 1; i >= start; i-- {
		switch text[i] {
		case '\n':
			return i + 1
		case '.':
			// A period only ends a sentence when followed by whitespace or
			// the budget edge, which keeps decimals like 3.14 intact.
			if i+1 >= budget || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				return i + 1
			}
		}
	}

	// Hard split: back up so the cut does not sever a multi-byte rune.
	cut := budget
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		return budget
	}
	return cut
}
