package domain

import (
	"context"
	"time"
)

// StepStatus is the phase a step event reports.
type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
)

// StepEvent is emitted before and after every pipeline step. Events for a
// single session are produced sequentially, so delivery in production order
// preserves per-session ordering.
type StepEvent struct {
	SessionID string     `json:"session_id"`
	Step      string     `json:"step"`
	Status    StepStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	// Output carries the step's artifact on success. Start and failure
	// events leave it nil.
	Output any    `json:"output,omitempty"`
	Err    string `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for driver observability. Any field may
// be nil. Hooks run synchronously on the session's goroutine and should not
// block.
type LifecycleHooks struct {
	OnStepStart  func(context.Context, *StepEvent)
	OnStepEnd    func(context.Context, *StepEvent)
	OnSessionEnd func(context.Context, *SessionState)
}
