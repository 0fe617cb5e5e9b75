package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFatalAbort is returned when the classification step fails and no
// fallback classifier is available. Without a subject there is nothing left
// to teach, so the session terminates before the remaining steps run.
var ErrFatalAbort = errors.New("classification failed with no fallback available")

// ErrNoProvider is returned by model-backed paths when no model provider is
// configured.
var ErrNoProvider = errors.New("no model provider configured")

// ValidationError reports malformed input rejected at the boundary, before
// the pipeline starts.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StepError records the failure of a single pipeline step. The step's output
// is substituted with a degraded default and the pipeline continues, so a
// StepError never escapes the driver.
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}
