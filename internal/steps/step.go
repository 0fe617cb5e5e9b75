// Package steps implements the six pipeline steps of a tutoring session:
// subject classification, lesson planning, resource retrieval, practice
// generation, assessment planning and progress summarization.
//
// Every step follows the same contract: Run reads the session fields it
// depends on, calls the model provider or retriever where one is
// configured, and writes exactly one output field. Each step also carries a
// rule-based path so a session degrades instead of failing when the
// provider is unreachable; Degrade writes a valid default artifact after
// the driver has recorded a failure, so downstream steps never read a
// missing field.
package steps

import (
	"context"
	"io"
	"log/slog"

	"github.com/espalier-ai/espalier/internal/cache"
	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// Step names, in pipeline order.
const (
	StepClassify  = "classify"
	StepPlan      = "plan"
	StepRetrieve  = "retrieve"
	StepPractice  = "practice"
	StepAssess    = "assess"
	StepSummarize = "summarize"
)

// Names returns the step names in execution order.
func Names() []string {
	return []string{StepClassify, StepPlan, StepRetrieve, StepPractice, StepAssess, StepSummarize}
}

// Step is one stage of the pipeline.
type Step interface {
	Name() string

	// Run produces the step's artifact and writes it into state.
	Run(ctx context.Context, state *domain.SessionState) error

	// Degrade writes a valid empty/default artifact into state. The driver
	// calls it after Run fails so later steps can still read the field.
	Degrade(state *domain.SessionState)
}

// Dependencies carries the shared collaborators steps draw from. Provider,
// Retriever and Cache may all be nil; steps fall back to their rule-based
// paths or direct computation.
type Dependencies struct {
	Provider  ports.ModelProvider
	Retriever ports.Retriever
	Cache     *cache.ReadThrough
	Logger    *slog.Logger
}

func (d Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

// cached runs compute through the shared artifact cache when one is
// configured, fingerprinting on exactly (kind, topic, level, style).
func cached[T any](ctx context.Context, d Dependencies, kind string, state *domain.SessionState, compute func(ctx context.Context) (T, error)) (T, error) {
	key := cache.Fingerprint(kind, state.Topic, state.TeachingLevel(), state.Profile.Style)
	v, hit, err := cache.GetOrCompute(ctx, d.Cache, kind, key, compute)
	if hit {
		d.logger().Debug("cache hit", "step", kind, "session_id", state.SessionID)
	}
	return v, err
}

// durations used in generated content
const defaultLessonDuration = "30-60 minutes"

func problemTime(diff domain.Difficulty) string {
	switch diff {
	case domain.DifficultyHard:
		return "15-20 minutes"
	case domain.DifficultyMedium:
		return "10-15 minutes"
	default:
		return "5-10 minutes"
	}
}
