package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espalier-ai/espalier/internal/cache"
	"github.com/espalier-ai/espalier/internal/steps"
	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

var testProfile = domain.StudentProfile{
	Name:  "Ada",
	Level: domain.LevelBeginner,
	Style: domain.StyleVisual,
}

// mapCache is a minimal in-memory ArtifactCache for driver tests.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (m *mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func TestDriver_RuleBasedHappyPath(t *testing.T) {
	d := New(steps.Dependencies{})

	state, err := d.Run(context.Background(), "basic algebra", testProfile)
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Empty(t, state.StepErrors)
	assert.Equal(t, steps.Names(), state.StepsRun)
	assert.False(t, state.FinishedAt.IsZero())

	require.NotNil(t, state.Classification)
	assert.Equal(t, domain.SubjectMath, state.Classification.Subject)
	require.NotNil(t, state.LessonPlan)
	assert.NotEmpty(t, state.LessonPlan.Objectives)
	require.NotNil(t, state.Resources)
	require.NotNil(t, state.Practice)
	assert.NotEmpty(t, state.Practice.Problems)
	require.NotNil(t, state.AssessmentPlan)
	require.NotNil(t, state.Summary)
	assert.Equal(t, "good", state.Summary.Completion) // no retriever, so no resources

	for _, name := range steps.Names() {
		assert.Contains(t, state.StepDurations, name)
	}
}

func TestDriver_ProfileLevelSurvivesPlainTopics(t *testing.T) {
	d := New(steps.Dependencies{})

	// "fractions" carries no level indicators, so keyword classification
	// detects beginner. The advanced profile must still get advanced work.
	state, err := d.Run(context.Background(), "fractions", domain.StudentProfile{
		Name:  "Grace",
		Level: domain.LevelAdvanced,
		Style: domain.StyleMixed,
	})
	require.NoError(t, err)
	require.NotNil(t, state.Practice)

	assert.Equal(t, domain.LevelAdvanced, state.TeachingLevel())
	assert.Greater(t, state.Practice.HardFraction(), 0.5)
	for _, p := range state.Practice.Problems {
		assert.NotEqual(t, domain.DifficultyEasy, p.Difficulty)
	}
}

func TestDriver_BeginnerProfileRaisedByDetectedLevel(t *testing.T) {
	d := New(steps.Dependencies{})

	state, err := d.Run(context.Background(), "advanced calculus theory", testProfile)
	require.NoError(t, err)

	assert.Equal(t, domain.LevelAdvanced, state.TeachingLevel())
}

func TestDriver_InputValidation(t *testing.T) {
	d := New(steps.Dependencies{})

	_, err := d.Run(context.Background(), "", testProfile)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "topic", verr.Field)

	_, err = d.Run(context.Background(), "fractions", domain.StudentProfile{Level: "phd", Style: domain.StyleMixed})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "level", verr.Field)
}

func TestDriver_ProviderFailuresDegradeAndComplete(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return "", errors.New("model unreachable")
	})
	d := New(steps.Dependencies{Provider: provider})

	state, err := d.Run(context.Background(), "basic algebra", testProfile)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, state.Status)
	failed := make([]string, 0, len(state.StepErrors))
	for _, se := range state.StepErrors {
		failed = append(failed, se.Step)
	}
	assert.Equal(t, []string{steps.StepClassify, steps.StepPlan, steps.StepPractice}, failed)

	// Degraded substitutes are in place everywhere.
	require.NotNil(t, state.Classification)
	assert.True(t, state.Classification.Fallback)
	require.NotNil(t, state.LessonPlan)
	require.NotNil(t, state.Practice)
	assert.Empty(t, state.Practice.Problems)
	require.NotNil(t, state.Summary)
	assert.Contains(t, state.Summary.Recommendations, "Some steps ran in degraded mode; retrying may produce richer content")
}

func TestDriver_FatalAbortWithoutClassifierFallback(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return "", errors.New("model unreachable")
	})
	d := New(steps.Dependencies{Provider: provider}, WithoutClassifierFallback())

	state, err := d.Run(context.Background(), "basic algebra", testProfile)
	require.ErrorIs(t, err, domain.ErrFatalAbort)
	require.NotNil(t, state)

	assert.Equal(t, domain.StatusAborted, state.Status)
	assert.Nil(t, state.LessonPlan)
	assert.Nil(t, state.Summary)
	require.Len(t, state.StepErrors, 1)
	assert.Equal(t, steps.StepClassify, state.StepErrors[0].Step)
}

func TestDriver_CancellationBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		calls++
		switch calls {
		case 1:
			return `{"subject": "math", "level": "beginner"}`, nil
		default:
			// Cancel mid-plan; the step still succeeds, the boundary check
			// before the next step must stop the session.
			cancel()
			return `{"objectives": ["o1"], "sections": [{"title": "s", "body": "b"}]}`, nil
		}
	})
	d := New(steps.Dependencies{Provider: provider})

	state, err := d.Run(ctx, "basic algebra", testProfile)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, state)

	assert.Equal(t, domain.StatusCancelled, state.Status)
	assert.Equal(t, []string{steps.StepClassify, steps.StepPlan}, state.StepsRun)
	assert.NotNil(t, state.LessonPlan)
	assert.Nil(t, state.Practice)
}

func TestDriver_StepTimeoutIsOrdinaryFailure(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		select {
		case <-time.After(time.Second):
			return "{}", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	d := New(steps.Dependencies{Provider: provider}, WithStepTimeout(10*time.Millisecond))

	state, err := d.Run(context.Background(), "basic algebra", testProfile)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.NotEmpty(t, state.StepErrors)
	for _, se := range state.StepErrors {
		assert.Contains(t, se.Message, context.DeadlineExceeded.Error())
	}
	require.NotNil(t, state.Summary)
}

func TestDriver_EventOrdering(t *testing.T) {
	var mu sync.Mutex
	var events []domain.StepEvent
	notifier := ports.NotifierFunc(func(ctx context.Context, ev domain.StepEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	d := New(steps.Dependencies{}, WithNotifier(notifier))
	state, err := d.Run(context.Background(), "basic algebra", testProfile)
	require.NoError(t, err)

	require.Len(t, events, 2*len(steps.Names()))
	for i, name := range steps.Names() {
		started, ended := events[2*i], events[2*i+1]
		assert.Equal(t, state.SessionID, started.SessionID)
		assert.Equal(t, name, started.Step)
		assert.Equal(t, domain.StepStarted, started.Status)
		assert.Equal(t, name, ended.Step)
		assert.Equal(t, domain.StepSucceeded, ended.Status)
		assert.NotNil(t, ended.Output)
	}
}

func TestDriver_HooksFire(t *testing.T) {
	var starts, ends int
	var final *domain.SessionState
	hooks := domain.LifecycleHooks{
		OnStepStart: func(ctx context.Context, ev *domain.StepEvent) { starts++ },
		OnStepEnd:   func(ctx context.Context, ev *domain.StepEvent) { ends++ },
		OnSessionEnd: func(ctx context.Context, s *domain.SessionState) {
			final = s
		},
	}

	d := New(steps.Dependencies{}, WithHooks(hooks))
	state, err := d.Run(context.Background(), "basic algebra", testProfile)
	require.NoError(t, err)

	assert.Equal(t, len(steps.Names()), starts)
	assert.Equal(t, len(steps.Names()), ends)
	require.NotNil(t, final)
	assert.Equal(t, state.SessionID, final.SessionID)
}

func TestDriver_CacheMakesRepeatRunsCheap(t *testing.T) {
	var calls int
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		calls++
		switch {
		case strings.Contains(prompt, "Classify"):
			return `{"subject": "math", "level": "beginner"}`, nil
		case strings.Contains(prompt, "lesson plan"):
			return `{"estimated_duration": "30 minutes", "objectives": ["o1", "o2"], "sections": [{"title": "s", "body": "b"}]}`, nil
		case strings.Contains(prompt, "practice problems"):
			return `{"problems": [{"question": "q", "hint": "h", "difficulty": "easy", "answer": "a"}]}`, nil
		default:
			return "", fmt.Errorf("unexpected prompt: %s", prompt)
		}
	})

	shared := cache.NewReadThrough(newMapCache(), time.Hour, nil)
	deps := steps.Dependencies{Provider: provider, Cache: shared}

	first, err := New(deps).Run(context.Background(), "Basic Algebra", testProfile)
	require.NoError(t, err)
	callsAfterFirst := calls

	// Same topic modulo case and spacing: plan and practice come from the
	// cache, only classification talks to the model again.
	second, err := New(deps).Run(context.Background(), "  basic algebra ", testProfile)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst+1, calls)
	assert.Equal(t, first.LessonPlan, second.LessonPlan)
	assert.Equal(t, first.Practice, second.Practice)
}

func TestDriver_AssessUsesPlanThreshold(t *testing.T) {
	d := New(steps.Dependencies{})
	plan := &domain.AssessmentPlan{MasteryThreshold: 0.7}

	graded := d.Assess(context.Background(), "fractions", "", "that makes sense, I understand it", plan)
	assert.True(t, graded.Correct)
	assert.Equal(t, 0.7, graded.Score)

	stricter := &domain.AssessmentPlan{MasteryThreshold: 0.8}
	graded = d.Assess(context.Background(), "fractions", "", "that makes sense, I understand it", stricter)
	assert.False(t, graded.Correct)
}
