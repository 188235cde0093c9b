package schema

// Format identifies the declared or sniffed document format.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatDocx  Format = "docx"
	FormatTxt   Format = "txt"
	FormatRtf   Format = "rtf"
	FormatImage Format = "image"
)

// AnalysisMode selects the prompt template and expected response shape.
type AnalysisMode string

const (
	ModePlain AnalysisMode = "plain"
	ModeLegal AnalysisMode = "legal"
)

// Document is a raw payload plus its format tag. Immutable once received;
// owned by the format decoder for the duration of decoding.
type Document struct {
	Data   []byte
	Format Format // empty means sniff from magic bytes
}

// PlainText is the decoder output: extracted text plus diagnostics about
// where it came from.
type PlainText struct {
	Text         string
	SourceFormat Format
	SourceBytes  int // original payload length, for extraction-ratio diagnostics
}

// Chunk is a bounded contiguous span of plain text, processed independently.
// Index is the chunk's position in document order.
type Chunk struct {
	Index int
	Text  string
}

// ChunkResult is the map-step output for one chunk.
type ChunkResult struct {
	Index        int
	Summary      string
	KeyPoints    []string
	Entities     map[string][]string // entity category -> values, legal mode only
	DocumentType string              // per-chunk guess, legal mode only
	Sentiment    string              // per-chunk guess, legal mode only

	// Fallback marks a result recovered from a malformed completion: the
	// summary is raw prose and key points/entities are absent.
	Fallback bool
}

// WordCount pairs the pre-chunking and post-reduction word counts.
type WordCount struct {
	Original int `json:"original"`
	Summary  int `json:"summary"`
}

// Warning records a non-fatal per-chunk failure that the pipeline absorbed.
type Warning struct {
	ChunkIndex  int         `json:"chunk_index"`
	FailureKind FailureKind `json:"failure_kind"`
}

// PipelineResult is the externally visible artifact. Built once by the
// reducer and never mutated afterward.
type PipelineResult struct {
	Summary      string              `json:"summary"`
	KeyPoints    []string            `json:"key_points"`
	WordCount    WordCount           `json:"word_count"`
	Entities     map[string][]string `json:"entities,omitempty"`
	DocumentType string              `json:"document_type,omitempty"`
	Sentiment    string              `json:"sentiment,omitempty"`
	Warnings     []Warning           `json:"warnings,omitempty"`
}

// SummarizeRequest is the pipeline input. Exactly one of Document or Text
// must be set.
type SummarizeRequest struct {
	Document        *Document    `validate:"required_without=Text"`
	Text            string       `validate:"required_without=Document"`
	MaxSummaryWords int          `validate:"omitempty,gt=0"`
	Mode            AnalysisMode `validate:"omitempty,oneof=plain legal"`
}

// DefaultMaxSummaryWords bounds the final summary when the caller does not
// ask for a specific length.
const DefaultMaxSummaryWords = 500
