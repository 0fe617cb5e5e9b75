package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus describes where a session is in its lifecycle.
type SessionStatus string

const (
	StatusRunning SessionStatus = "running"
	// StatusCompleted means every step was attempted. Individual steps may
	// still have failed; check StepErrors.
	StatusCompleted SessionStatus = "completed"
	// StatusAborted means classification failed with no fallback and the
	// remaining steps never ran.
	StatusAborted SessionStatus = "aborted"
	// StatusCancelled means the caller cancelled between steps.
	StatusCancelled SessionStatus = "cancelled"
)

// SessionState is the single mutable aggregate threaded through the
// pipeline. Each step reads the fields it depends on and writes exactly one
// output field; once set, an output is never silently overwritten.
type SessionState struct {
	SessionID string         `json:"session_id"`
	Topic     string         `json:"topic"`
	Profile   StudentProfile `json:"student_profile"`

	Classification *Classification  `json:"classification,omitempty"`
	LessonPlan     *LessonPlan      `json:"lesson_plan,omitempty"`
	Resources      ResourceSet      `json:"resources,omitempty"`
	Practice       *PracticeSet     `json:"practice,omitempty"`
	AssessmentPlan *AssessmentPlan  `json:"assessment_plan,omitempty"`
	Summary        *ProgressSummary `json:"progress_summary,omitempty"`

	StepsRun      []string                 `json:"steps_run"`
	StepErrors    []StepError              `json:"step_errors"`
	StepDurations map[string]time.Duration `json:"step_durations"`

	Status     SessionStatus `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitzero"`

	// Sealed carries the encrypted payload when persistence middleware
	// seals states at rest. In a sealed state every field other than the
	// identifiers, status and timestamps is empty.
	Sealed string `json:"sealed,omitempty"`
}

// NewSessionState creates the initial state for a session with only the
// input populated. The session ID is generated here and is unique per
// session.
func NewSessionState(topic string, profile StudentProfile) *SessionState {
	return &SessionState{
		SessionID:     uuid.NewString(),
		Topic:         topic,
		Profile:       profile,
		StepsRun:      []string{},
		StepErrors:    []StepError{},
		StepDurations: make(map[string]time.Duration),
		Status:        StatusRunning,
		StartedAt:     time.Now().UTC(),
	}
}

// RecordStep marks a step as successfully run and stores its duration.
func (s *SessionState) RecordStep(name string, d time.Duration) {
	s.StepsRun = append(s.StepsRun, name)
	s.StepDurations[name] = d
}

// RecordFailure records a step failure and its duration. The step's output
// field is expected to hold a degraded default afterwards.
func (s *SessionState) RecordFailure(name string, err error, d time.Duration) {
	s.StepErrors = append(s.StepErrors, StepError{Step: name, Message: err.Error()})
	s.StepDurations[name] = d
}

// Failed reports whether the named step recorded an error.
func (s *SessionState) Failed(name string) bool {
	for _, e := range s.StepErrors {
		if e.Step == name {
			return true
		}
	}
	return false
}

// Subject returns the classified subject, or the general label when
// classification has not produced one.
func (s *SessionState) Subject() Subject {
	if s.Classification == nil {
		return SubjectGeneral
	}
	return s.Classification.Subject
}

// TeachingLevel returns the level teaching content should target. A
// profile above beginner always wins: the student told us where they
// are, and a plainly worded topic must not drag them back down. Only a
// beginner profile defers to the classifier's detection, so a beginner
// asking about an advanced topic still gets stretched.
func (s *SessionState) TeachingLevel() Level {
	if s.Profile.Level != "" && s.Profile.Level != LevelBeginner {
		return s.Profile.Level
	}
	if s.Classification != nil && s.Classification.Level != "" {
		return s.Classification.Level
	}
	return s.Profile.Level
}

// Finish stamps the terminal status and completion time.
func (s *SessionState) Finish(status SessionStatus) {
	s.Status = status
	s.FinishedAt = time.Now().UTC()
}

// Duration returns elapsed wall time, using the finish stamp when terminal.
func (s *SessionState) Duration() time.Duration {
	if !s.FinishedAt.IsZero() {
		return s.FinishedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}
