package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

func newState(topic string, level domain.Level, style domain.Style) *domain.SessionState {
	return domain.NewSessionState(topic, domain.StudentProfile{
		Name:  "Ada",
		Level: level,
		Style: style,
	})
}

func TestClassifyByKeywords(t *testing.T) {
	cases := []struct {
		topic   string
		subject domain.Subject
		level   domain.Level
	}{
		{"basic algebra", domain.SubjectMath, domain.LevelBeginner},
		{"advanced calculus theory", domain.SubjectMath, domain.LevelAdvanced},
		{"how to implement sorting algorithms in python", domain.SubjectProgramming, domain.LevelBeginner},
		{"build a rest api with go", domain.SubjectProgramming, domain.LevelIntermediate},
		{"chemistry fundamentals", domain.SubjectScience, domain.LevelBeginner},
		{"music composition and rhythm", domain.SubjectMusic, domain.LevelBeginner},
		{"knitting socks", domain.SubjectGeneral, domain.LevelBeginner},
	}
	for _, tc := range cases {
		t.Run(tc.topic, func(t *testing.T) {
			cl := classifyByKeywords(tc.topic)
			assert.Equal(t, tc.subject, cl.Subject)
			assert.Equal(t, tc.level, cl.Level)
		})
	}
}

func TestClassifyByKeywords_PhrasingBeatsIndicators(t *testing.T) {
	// "advanced" appears but the "how to" phrasing marks a beginner ask.
	cl := classifyByKeywords("how to get started with advanced statistics")
	assert.Equal(t, domain.LevelBeginner, cl.Level)
}

func TestClassifier_NoProviderUsesKeywords(t *testing.T) {
	state := newState("basic algebra", domain.LevelBeginner, domain.StyleVisual)
	c := NewClassifier(Dependencies{}, false)

	require.NoError(t, c.Run(context.Background(), state))
	require.NotNil(t, state.Classification)
	assert.Equal(t, domain.SubjectMath, state.Classification.Subject)
	assert.True(t, state.Classification.Fallback)
}

func TestClassifier_ModelPath(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return `Here you go: {"subject": "science", "level": "intermediate"}`, nil
	})
	state := newState("photosynthesis", domain.LevelBeginner, domain.StyleMixed)
	c := NewClassifier(Dependencies{Provider: provider}, false)

	require.NoError(t, c.Run(context.Background(), state))
	assert.Equal(t, domain.SubjectScience, state.Classification.Subject)
	assert.Equal(t, domain.LevelIntermediate, state.Classification.Level)
	assert.False(t, state.Classification.Fallback)
}

func TestClassifier_UnknownSubjectFallsBackToGeneral(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return `{"subject": "astrology", "level": "wizard"}`, nil
	})
	state := newState("star signs", domain.LevelIntermediate, domain.StyleMixed)
	c := NewClassifier(Dependencies{Provider: provider}, false)

	require.NoError(t, c.Run(context.Background(), state))
	assert.Equal(t, domain.SubjectGeneral, state.Classification.Subject)
	// Unknown level falls back to the profile's.
	assert.Equal(t, domain.LevelIntermediate, state.Classification.Level)
}

func TestClassifier_ModelFailureDegradesToKeywords(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return "", errors.New("upstream 503")
	})
	state := newState("basic algebra", domain.LevelBeginner, domain.StyleVisual)
	c := NewClassifier(Dependencies{Provider: provider}, false)

	err := c.Run(context.Background(), state)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrFatalAbort))

	c.Degrade(state)
	require.NotNil(t, state.Classification)
	assert.Equal(t, domain.SubjectMath, state.Classification.Subject)
	assert.True(t, state.Classification.Fallback)
}

func TestClassifier_FatalWhenFallbackDisabled(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return "", errors.New("upstream 503")
	})
	state := newState("basic algebra", domain.LevelBeginner, domain.StyleVisual)
	c := NewClassifier(Dependencies{Provider: provider}, true)

	err := c.Run(context.Background(), state)
	require.ErrorIs(t, err, domain.ErrFatalAbort)
}

func TestClassifier_FatalWhenNoProviderAndFallbackDisabled(t *testing.T) {
	state := newState("basic algebra", domain.LevelBeginner, domain.StyleVisual)
	c := NewClassifier(Dependencies{}, true)

	err := c.Run(context.Background(), state)
	require.ErrorIs(t, err, domain.ErrFatalAbort)
	require.ErrorIs(t, err, domain.ErrNoProvider)
}
