package espalier

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/espalier-ai/espalier/internal/cache"
	"github.com/espalier-ai/espalier/internal/pipeline"
	"github.com/espalier-ai/espalier/internal/steps"
	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// Version identifies the library and CLI release.
const Version = "0.1.0"

// DefaultCacheTTL is how long generated artifacts stay reusable when a cache
// backend is configured and no explicit TTL is given.
const DefaultCacheTTL = time.Hour

// Tutor is the high-level entry point for the library. It wraps the internal
// pipeline driver and provides a simplified API for consumers. A Tutor is
// safe for concurrent use.
type Tutor struct {
	driver *pipeline.Driver

	provider     ports.ModelProvider
	retriever    ports.Retriever
	cacheBackend ports.ArtifactCache
	cacheTTL     time.Duration
	cachePolicy  *cache.ReadThrough
	onCacheHit   func(kind string)
	onCacheMiss  func(kind string)
	logger       *slog.Logger
	driverOpts   []pipeline.Option
}

// Option defines a functional option for configuring the Tutor.
type Option func(*Tutor)

// WithProvider plugs in a language model. Without one every step runs its
// rule-based fallback.
func WithProvider(p ports.ModelProvider) Option {
	return func(t *Tutor) { t.provider = p }
}

// WithRetriever plugs in a learning resource search backend. Without one the
// resource step returns an empty set.
func WithRetriever(r ports.Retriever) Option {
	return func(t *Tutor) { t.retriever = r }
}

// WithCache enables artifact caching on the given backend. A zero or
// negative ttl falls back to DefaultCacheTTL.
func WithCache(backend ports.ArtifactCache, ttl time.Duration) Option {
	return func(t *Tutor) {
		t.cacheBackend = backend
		t.cacheTTL = ttl
	}
}

// WithCacheMetrics registers callbacks invoked with the step kind on every
// cache hit and miss. Either callback may be nil.
func WithCacheMetrics(onHit, onMiss func(kind string)) Option {
	return func(t *Tutor) {
		t.onCacheHit = onHit
		t.onCacheMiss = onMiss
	}
}

// WithNotifier attaches a step event sink, e.g. an SSE stream manager.
func WithNotifier(n ports.Notifier) Option {
	return func(t *Tutor) { t.driverOpts = append(t.driverOpts, pipeline.WithNotifier(n)) }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(t *Tutor) { t.driverOpts = append(t.driverOpts, pipeline.WithHooks(h)) }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tutor) { t.logger = logger }
}

// WithStepTimeout overrides the per-step deadline.
func WithStepTimeout(d time.Duration) Option {
	return func(t *Tutor) { t.driverOpts = append(t.driverOpts, pipeline.WithStepTimeout(d)) }
}

// WithProblemCount sets how many practice problems a session generates.
func WithProblemCount(n int) Option {
	return func(t *Tutor) { t.driverOpts = append(t.driverOpts, pipeline.WithProblemCount(n)) }
}

// WithoutClassifierFallback makes classification failures abort the session
// instead of degrading to keyword classification.
func WithoutClassifierFallback() Option {
	return func(t *Tutor) { t.driverOpts = append(t.driverOpts, pipeline.WithoutClassifierFallback()) }
}

// New initializes a Tutor. All options may be omitted; the zero
// configuration runs fully offline on rule-based fallbacks with no caching.
func New(opts ...Option) *Tutor {
	t := &Tutor{cacheTTL: DefaultCacheTTL}
	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if t.cacheBackend != nil {
		ttl := t.cacheTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		t.cachePolicy = cache.NewReadThrough(t.cacheBackend, ttl, t.logger)
		t.cachePolicy.OnHit = t.onCacheHit
		t.cachePolicy.OnMiss = t.onCacheMiss
	}

	t.driver = pipeline.New(steps.Dependencies{
		Provider:  t.provider,
		Retriever: t.retriever,
		Cache:     t.cachePolicy,
		Logger:    t.logger,
	}, t.driverOpts...)

	return t
}

// Teach runs a complete tutoring session for the topic. The returned state
// is non-nil whenever the inputs validate, including aborted and cancelled
// sessions.
func (t *Tutor) Teach(ctx context.Context, topic string, profile domain.StudentProfile) (*domain.SessionState, error) {
	return t.driver.Run(ctx, topic, profile)
}

// NewSession validates the inputs and builds the initial session state
// without running anything. Use it with RunSession when the session ID is
// needed before execution, e.g. to subscribe to progress events.
func (t *Tutor) NewSession(topic string, profile domain.StudentProfile) (*domain.SessionState, error) {
	return t.driver.NewSession(topic, profile)
}

// RunSession executes the pipeline over a state built by NewSession.
func (t *Tutor) RunSession(ctx context.Context, state *domain.SessionState) error {
	return t.driver.RunSession(ctx, state)
}

// Assess grades a free-text student response. The plan is optional; when nil
// the default mastery threshold applies.
func (t *Tutor) Assess(ctx context.Context, topic, question, response string, plan *domain.AssessmentPlan) domain.Assessment {
	return t.driver.Assess(ctx, topic, question, response, plan)
}

// Subjects lists the subjects the classifier can assign.
func Subjects() []domain.Subject {
	return domain.Subjects()
}
