// Package pipeline runs the tutoring steps in order and owns the failure
// policy: a failing step is recorded, its output degraded, and the session
// continues. The only exceptions are a fatal classification failure, which
// aborts the session, and caller cancellation between steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/espalier-ai/espalier/internal/steps"
	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// DefaultStepTimeout bounds a single step. A step hitting it is an ordinary
// failure, not a session abort.
const DefaultStepTimeout = 30 * time.Second

// Option configures a Driver.
type Option func(*Driver)

// WithNotifier attaches a step event sink.
func WithNotifier(n ports.Notifier) Option {
	return func(d *Driver) { d.notifier = n }
}

// WithHooks attaches lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(d *Driver) { d.hooks = h }
}

// WithStepTimeout overrides the per-step deadline. Zero or negative means
// no per-step deadline.
func WithStepTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.stepTimeout = timeout }
}

// WithProblemCount sets how many practice problems a session generates.
func WithProblemCount(n int) Option {
	return func(d *Driver) { d.problemCount = n }
}

// WithoutClassifierFallback makes classification failures fatal instead of
// degrading to the keyword classifier.
func WithoutClassifierFallback() Option {
	return func(d *Driver) { d.noClassifierFallback = true }
}

// Driver executes the six-step pipeline for one topic and profile per Run
// call. A Driver is safe for concurrent use; all per-session state lives in
// the SessionState it returns.
type Driver struct {
	stepDeps    steps.Dependencies
	notifier    ports.Notifier
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	stepTimeout time.Duration

	problemCount         int
	noClassifierFallback bool

	pipeline []steps.Step
	assessor *steps.Assessor
}

// New builds a Driver over the given step dependencies.
func New(deps steps.Dependencies, opts ...Option) *Driver {
	d := &Driver{
		stepDeps:    deps,
		logger:      deps.Logger,
		stepTimeout: DefaultStepTimeout,
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		d.stepDeps.Logger = d.logger
	}
	for _, opt := range opts {
		opt(d)
	}

	d.assessor = steps.NewAssessor(d.stepDeps)
	d.pipeline = []steps.Step{
		steps.NewClassifier(d.stepDeps, d.noClassifierFallback),
		steps.NewPlanner(d.stepDeps),
		steps.NewResourceFinder(d.stepDeps),
		steps.NewPracticeGenerator(d.stepDeps, d.problemCount),
		d.assessor,
		steps.NewSummarizer(),
	}
	return d
}

// NewSession validates the inputs and builds the initial state without
// running anything. Callers that need the session ID before execution (e.g.
// to stream progress) use this with RunSession; everyone else calls Run.
func (d *Driver) NewSession(topic string, profile domain.StudentProfile) (*domain.SessionState, error) {
	if topic == "" {
		return nil, &domain.ValidationError{Field: "topic", Message: "must not be empty"}
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return domain.NewSessionState(topic, profile), nil
}

// Run executes a full session. The returned state is non-nil whenever the
// inputs validate, including aborted and cancelled sessions; the error is
// non-nil only for invalid input, a fatal abort, or cancellation.
func (d *Driver) Run(ctx context.Context, topic string, profile domain.StudentProfile) (*domain.SessionState, error) {
	state, err := d.NewSession(topic, profile)
	if err != nil {
		return nil, err
	}
	return state, d.RunSession(ctx, state)
}

// RunSession executes the pipeline over a state built by NewSession.
func (d *Driver) RunSession(ctx context.Context, state *domain.SessionState) error {
	log := d.logger.With("session_id", state.SessionID, "topic", state.Topic)
	log.Info("session started", "level", state.Profile.Level, "style", state.Profile.Style)

	for _, step := range d.pipeline {
		if err := ctx.Err(); err != nil {
			log.Warn("session cancelled", "before_step", step.Name())
			state.Finish(domain.StatusCancelled)
			d.sessionEnd(ctx, state)
			return err
		}

		if err := d.runStep(ctx, step, state, log); err != nil {
			// Only classification can be fatal. Everything else was already
			// degraded inside runStep.
			state.Finish(domain.StatusAborted)
			d.sessionEnd(ctx, state)
			return err
		}
	}

	state.Finish(domain.StatusCompleted)
	log.Info("session finished",
		"status", state.Status,
		"failed_steps", len(state.StepErrors),
		"duration", state.Duration(),
	)
	d.sessionEnd(ctx, state)
	return nil
}

// Assess grades a free-text response against an assessment plan. It is
// independent of Run so hosts can grade answers long after the session that
// produced the plan finished.
func (d *Driver) Assess(ctx context.Context, topic, question, response string, plan *domain.AssessmentPlan) domain.Assessment {
	threshold := 0.0
	if plan != nil {
		threshold = plan.MasteryThreshold
	}
	return d.assessor.Grade(ctx, topic, question, response, threshold)
}

// runStep executes one step with the per-step deadline and emits its
// lifecycle events. It returns an error only when the session must abort.
func (d *Driver) runStep(ctx context.Context, step steps.Step, state *domain.SessionState, log *slog.Logger) error {
	name := step.Name()
	d.emit(ctx, domain.StepEvent{
		SessionID: state.SessionID,
		Step:      name,
		Status:    domain.StepStarted,
		Timestamp: time.Now().UTC(),
	}, d.hooks.OnStepStart)

	stepCtx := ctx
	if d.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, d.stepTimeout)
		defer cancel()
	}

	start := time.Now()
	err := step.Run(stepCtx, state)
	elapsed := time.Since(start)

	if err != nil {
		state.RecordFailure(name, err, elapsed)
		d.emit(ctx, domain.StepEvent{
			SessionID: state.SessionID,
			Step:      name,
			Status:    domain.StepFailed,
			Timestamp: time.Now().UTC(),
			Err:       err.Error(),
		}, d.hooks.OnStepEnd)

		if errors.Is(err, domain.ErrFatalAbort) {
			log.Error("step failed fatally", "step", name, "err", err)
			return fmt.Errorf("step %s: %w", name, err)
		}

		log.Warn("step failed, continuing degraded", "step", name, "err", err, "duration", elapsed)
		step.Degrade(state)
		return nil
	}

	state.RecordStep(name, elapsed)
	log.Debug("step succeeded", "step", name, "duration", elapsed)
	d.emit(ctx, domain.StepEvent{
		SessionID: state.SessionID,
		Step:      name,
		Status:    domain.StepSucceeded,
		Timestamp: time.Now().UTC(),
		Output:    stepOutput(name, state),
	}, d.hooks.OnStepEnd)
	return nil
}

func (d *Driver) emit(ctx context.Context, event domain.StepEvent, hook func(context.Context, *domain.StepEvent)) {
	if d.notifier != nil {
		d.notifier.Publish(ctx, event)
	}
	if hook != nil {
		hook(ctx, &event)
	}
}

func (d *Driver) sessionEnd(ctx context.Context, state *domain.SessionState) {
	if d.hooks.OnSessionEnd != nil {
		d.hooks.OnSessionEnd(ctx, state)
	}
}

// stepOutput picks the artifact a step just wrote, for success events.
func stepOutput(name string, state *domain.SessionState) any {
	switch name {
	case steps.StepClassify:
		return state.Classification
	case steps.StepPlan:
		return state.LessonPlan
	case steps.StepRetrieve:
		return state.Resources
	case steps.StepPractice:
		return state.Practice
	case steps.StepAssess:
		return state.AssessmentPlan
	case steps.StepSummarize:
		return state.Summary
	default:
		return nil
	}
}
