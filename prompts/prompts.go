package prompts

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/SaiNageswarS/summary-boot/schema"
)

//go:embed templates/*
var templatesFS embed.FS

// ChunkMaxWords bounds each per-chunk summary fragment so the concatenated
// fragments stay in the same order of magnitude as the requested final
// length.
const ChunkMaxWords = 150

// RenderChunkSummaryPrompt renders the map-step prompt for one chunk using
// embedded Go templates. The mode selects between the plain and the
// legal-with-entities response contracts.
func RenderChunkSummaryPrompt(mode schema.AnalysisMode, chunkText string) (systemPrompt, userPrompt string, err error) {
	name := "chunk_summary_plain"
	if mode == schema.ModeLegal {
		name = "chunk_summary_legal"
	}

	data := struct {
		ChunkText string
		MaxWords  int
	}{
		ChunkText: chunkText,
		MaxWords:  ChunkMaxWords,
	}

	systemPrompt, err = render(name+"_system.md", data)
	if err != nil {
		return "", "", err
	}

	userPrompt, err = render(name+"_user.md", data)
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}

// RenderCondensePrompt renders the second-level reduction prompt that asks
// the completion capability to shrink a merged summary to the target length.
func RenderCondensePrompt(text string, maxWords int) (systemPrompt, userPrompt string, err error) {
	data := struct {
		Text     string
		MaxWords int
	}{
		Text:     text,
		MaxWords: maxWords,
	}

	systemPrompt, err = render("condense_system.md", data)
	if err != nil {
		return "", "", err
	}

	userPrompt, err = render("condense_user.md", data)
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}

func render(name string, data any) (string, error) {
	content, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
