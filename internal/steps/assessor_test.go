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

func TestAssessor_PlanThresholdByLevel(t *testing.T) {
	a := NewAssessor(Dependencies{})

	state := newState("fractions", domain.LevelBeginner, domain.StyleMixed)
	require.NoError(t, a.Run(context.Background(), state))
	require.NotNil(t, state.AssessmentPlan)
	assert.Equal(t, 0.7, state.AssessmentPlan.MasteryThreshold)
	assert.Len(t, state.AssessmentPlan.Criteria, 4)

	state = newState("fractions", domain.LevelAdvanced, domain.StyleMixed)
	require.NoError(t, a.Run(context.Background(), state))
	assert.Equal(t, 0.8, state.AssessmentPlan.MasteryThreshold)
}

func TestAssessor_KeywordGrading(t *testing.T) {
	a := NewAssessor(Dependencies{})
	ctx := context.Background()

	positive := a.Grade(ctx, "fractions", "", "That makes sense now, I understand the common denominator part", 0.7)
	assert.True(t, positive.Correct)
	assert.Equal(t, 0.7, positive.Score)
	assert.True(t, positive.Automated)

	confused := a.Grade(ctx, "fractions", "", "I'm still confused about the denominator", 0.7)
	assert.False(t, confused.Correct)
	assert.Equal(t, 0.3, confused.Score)
	assert.True(t, confused.Automated)

	neutral := a.Grade(ctx, "fractions", "", "banana", 0.7)
	assert.False(t, neutral.Correct)
	assert.Equal(t, 0.5, neutral.Score)
	assert.False(t, neutral.Automated)
}

func TestAssessor_ModelGrading(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return `{"correct": true, "score": 0.9, "feedback": "solid", "explanation": "covers both halves"}`, nil
	})
	a := NewAssessor(Dependencies{Provider: provider})

	graded := a.Grade(context.Background(), "fractions", "what is 1/2 + 1/4", "3/4", 0.7)
	assert.True(t, graded.Correct)
	assert.Equal(t, 0.9, graded.Score)
	assert.Equal(t, "solid", graded.Feedback)
	assert.True(t, graded.Automated)
}

func TestAssessor_ModelFailureFallsBackToKeywords(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return "", errors.New("upstream down")
	})
	a := NewAssessor(Dependencies{Provider: provider})

	graded := a.Grade(context.Background(), "fractions", "", "got it, very clear", 0.7)
	assert.True(t, graded.Correct)
	assert.Equal(t, 0.7, graded.Score)
}

func TestAssessor_ScoreClamped(t *testing.T) {
	provider := ports.ProviderFunc(func(ctx context.Context, prompt string, params ports.GenerateParams) (string, error) {
		return `{"correct": true, "score": 7.5, "feedback": "enthusiastic"}`, nil
	})
	a := NewAssessor(Dependencies{Provider: provider})

	graded := a.Grade(context.Background(), "fractions", "", "whatever", 0.7)
	assert.Equal(t, 1.0, graded.Score)
}
