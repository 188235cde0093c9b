package pipeline

import (
	"time"
)

// Stage is a pipeline lifecycle state.
type Stage string

const (
	StageReceived    Stage = "received"
	StageDecoded     Stage = "decoded"
	StageChunked     Stage = "chunked"
	StageSummarizing Stage = "summarizing"
	StageReducing    Stage = "reducing"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

// StageEvent is a progress update emitted on every state transition.
type StageEvent struct {
	Stage     Stage  `json:"stage"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ProgressReporter is an interface for reporting pipeline execution progress
type ProgressReporter interface {
	// Send sends a progress update
	Send(event *StageEvent) error
}

// NoOpProgressReporter implements ProgressReporter with no-op operations
type NoOpProgressReporter struct{}

// Send does nothing
func (r *NoOpProgressReporter) Send(event *StageEvent) error {
	// No-op
	return nil
}

// NewStageEvent creates a progress event for a state transition
func NewStageEvent(stage Stage, message string) *StageEvent {
	return &StageEvent{
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
}
