// Package pipeline sequences decode, chunk, fan-out summarization and
// reduction into one run with uniform failure classification.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/summary-boot/chunker"
	"github.com/SaiNageswarS/summary-boot/docext"
	"github.com/SaiNageswarS/summary-boot/llm"
	"github.com/SaiNageswarS/summary-boot/reducer"
	"github.com/SaiNageswarS/summary-boot/schema"
	"github.com/SaiNageswarS/summary-boot/summarizer"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxConcurrency bounds in-flight completion calls so fan-out
// respects the external service's quota; excess chunks queue behind the
// semaphore.
const DefaultMaxConcurrency = 4

// Config holds construction-time settings for a Pipeline.
type Config struct {
	// Client is the completion capability. It is wrapped with the adapter
	// retry policy during construction.
	Client llm.CompletionClient

	// OCR handles image documents and text-layer-free PDFs. Optional.
	OCR llm.OCRClient

	MaxChunkChars  int
	OverlapChars   int
	MaxConcurrency int
	Reporter       ProgressReporter
}

// Pipeline is the orchestrator. One instance is safe for concurrent runs;
// each run owns all of its intermediate state.
type Pipeline struct {
	cfg      Config
	client   llm.CompletionClient
	decoder  *docext.Decoder
	reduce   *reducer.Reducer
	validate *validator.Validate
}

func New(cfg Config) *Pipeline {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = chunker.DefaultMaxChunkChars
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Reporter == nil {
		cfg.Reporter = &NoOpProgressReporter{}
	}

	client := llm.WithRetry(cfg.Client)
	return &Pipeline{
		cfg:      cfg,
		client:   client,
		decoder:  docext.New(cfg.OCR),
		reduce:   reducer.New(client),
		validate: validator.New(),
	}
}

// Run executes Received → Decoded → Chunked → Summarizing → Reducing →
// Completed. Chunk-level failures are absorbed into warnings while at least
// one chunk succeeds; decode and chunk failures, AllChunksFailed, and
// cancellation are terminal and return no partial result.
func (p *Pipeline) Run(ctx context.Context, req schema.SummarizeRequest) (*schema.PipelineResult, error) {
	runID := uuid.NewString()

	if err := p.validate.Struct(req); err != nil {
		return nil, schema.WrapFailure(schema.InvalidRequest, err, "invalid summarize request")
	}

	maxWords := req.MaxSummaryWords
	if maxWords <= 0 {
		maxWords = schema.DefaultMaxSummaryWords
	}
	mode := req.Mode
	if mode == "" {
		mode = schema.ModePlain
	}

	p.cfg.Reporter.Send(NewStageEvent(StageReceived, "document received"))
	logger.Info("Pipeline run started",
		zap.String("runId", runID),
		zap.String("mode", string(mode)),
		zap.Int("maxWords", maxWords))

	plain, err := p.decode(ctx, req)
	if err != nil {
		return nil, p.fail(runID, err)
	}
	p.cfg.Reporter.Send(NewStageEvent(StageDecoded, fmt.Sprintf("extracted %d characters", len(plain.Text))))

	chunks, err := chunker.Split(plain.Text, p.cfg.MaxChunkChars, p.cfg.OverlapChars)
	if err != nil {
		return nil, p.fail(runID, err)
	}
	p.cfg.Reporter.Send(NewStageEvent(StageChunked, fmt.Sprintf("%d chunks", len(chunks))))

	p.cfg.Reporter.Send(NewStageEvent(StageSummarizing, "summarizing chunks"))
	results, warnings, err := p.summarizeAll(ctx, chunks, mode)
	if err != nil {
		return nil, p.fail(runID, err)
	}

	p.cfg.Reporter.Send(NewStageEvent(StageReducing, "merging chunk results"))
	originalWords := len(strings.Fields(plain.Text))
	result, err := p.reduce.Reduce(ctx, results, maxWords, originalWords, p.cfg.OverlapChars)
	if err != nil {
		return nil, p.fail(runID, err)
	}
	result.Warnings = warnings

	p.cfg.Reporter.Send(NewStageEvent(StageCompleted, "pipeline completed"))
	logger.Info("Pipeline run completed",
		zap.String("runId", runID),
		zap.Int("chunks", len(chunks)),
		zap.Int("failedChunks", len(warnings)),
		zap.Int("summaryWords", result.WordCount.Summary))

	return &result, nil
}

func (p *Pipeline) decode(ctx context.Context, req schema.SummarizeRequest) (schema.PlainText, error) {
	if req.Document != nil {
		return p.decoder.Decode(ctx, *req.Document)
	}
	if strings.TrimSpace(req.Text) == "" {
		return schema.PlainText{}, schema.NewFailure(schema.EmptyDocument, "text input is empty")
	}
	return schema.PlainText{
		Text:         req.Text,
		SourceFormat: schema.FormatTxt,
		SourceBytes:  len(req.Text),
	}, nil
}

// summarizeAll fans out one summarization task per chunk, bounded by the
// in-flight semaphore, and waits for every outcome before returning. Each
// chunk owns its own result; nothing is shared between tasks.
func (p *Pipeline) summarizeAll(ctx context.Context, chunks []schema.Chunk, mode schema.AnalysisMode) ([]schema.ChunkResult, []schema.Warning, error) {
	summ := summarizer.New(p.client, mode)
	sem := make(chan struct{}, p.cfg.MaxConcurrency)

	futures := make([]<-chan async.Result[schema.ChunkResult], len(chunks))
	for i, chunk := range chunks {
		futures[i] = async.Go(func() (schema.ChunkResult, error) {
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				return schema.ChunkResult{}, schema.WrapFailure(schema.Cancelled, err, "chunk %d abandoned", chunk.Index)
			}
			return summ.Summarize(ctx, chunk)
		})
	}

	var results []schema.ChunkResult
	var warnings []schema.Warning
	for i, future := range futures {
		res, err := async.Await(future)
		if err != nil {
			kind := schema.KindOf(err)
			if kind == schema.Cancelled {
				return nil, nil, schema.WrapFailure(schema.Cancelled, err, "pipeline cancelled")
			}
			logger.Error("Chunk summarization failed",
				zap.Int("chunk", chunks[i].Index),
				zap.String("kind", string(kind)),
				zap.Error(err))
			warnings = append(warnings, schema.Warning{ChunkIndex: chunks[i].Index, FailureKind: kind})
			continue
		}
		if res.Fallback {
			// Salvaged prose still counts as a partial failure in the report.
			warnings = append(warnings, schema.Warning{ChunkIndex: res.Index, FailureKind: schema.MalformedResponse})
		}
		results = append(results, res)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, schema.WrapFailure(schema.Cancelled, err, "pipeline cancelled")
	}
	if len(results) == 0 {
		return nil, nil, schema.NewFailure(schema.AllChunksFailed, "all %d chunks failed", len(chunks))
	}

	sort.Slice(warnings, func(i, j int) bool { return warnings[i].ChunkIndex < warnings[j].ChunkIndex })
	return results, warnings, nil
}

func (p *Pipeline) fail(runID string, err error) error {
	p.cfg.Reporter.Send(NewStageEvent(StageFailed, err.Error()))
	logger.Error("Pipeline run failed",
		zap.String("runId", runID),
		zap.String("kind", string(schema.KindOf(err))),
		zap.Error(err))
	return err
}
