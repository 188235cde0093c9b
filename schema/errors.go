package schema

import (
	"errors"
	"fmt"
)

// FailureKind classifies every error the pipeline can produce. Input-stage
// kinds are fatal; transient kinds are retried per-call; the remaining kinds
// are recorded per chunk or terminate the run.
type FailureKind string

const (
	// Input stage, fatal, never retried.
	UnsupportedFormat FailureKind = "unsupported_format"
	CorruptInput      FailureKind = "corrupt_input"
	EmptyDocument     FailureKind = "empty_document"

	// Completion calls, transient, retried with bounded backoff.
	RateLimited        FailureKind = "rate_limited"
	ServiceUnavailable FailureKind = "service_unavailable"
	Timeout            FailureKind = "timeout"

	// Completion calls, permanent, surfaced immediately.
	InvalidRequest    FailureKind = "invalid_request"
	MalformedResponse FailureKind = "malformed_response"

	// Pipeline level.
	AllChunksFailed FailureKind = "all_chunks_failed"
	Cancelled       FailureKind = "cancelled"
)

// Retryable reports whether a completion call failing with this kind may be
// retried.
func (k FailureKind) Retryable() bool {
	switch k {
	case RateLimited, ServiceUnavailable, Timeout:
		return true
	}
	return false
}

// Failure is a classified pipeline error. It wraps the underlying cause so
// errors.Is/As keep working through the classification.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

// NewFailure builds a classified failure without a cause.
func NewFailure(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapFailure classifies an underlying error.
func WrapFailure(kind FailureKind, cause error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the failure kind from err, unwrapping as needed. Unknown
// errors classify as ServiceUnavailable so callers treat them as transient.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ServiceUnavailable
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind FailureKind) bool {
	return KindOf(err) == kind
}
