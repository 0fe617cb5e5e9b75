package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espalier-ai/espalier/pkg/domain"
)

func TestSummarizer_FullSession(t *testing.T) {
	state := newState("fractions", domain.LevelIntermediate, domain.StyleMixed)
	state.Classification = &domain.Classification{Subject: domain.SubjectMath, Level: domain.LevelIntermediate}
	state.LessonPlan = templatePlan("fractions", domain.SubjectMath, domain.LevelIntermediate, domain.StyleMixed)
	state.Resources = domain.ResourceSet{"articles": {{Title: "Fractions", URL: "https://example.org"}}}
	state.Practice = &domain.PracticeSet{Topic: "fractions", Level: domain.LevelIntermediate, Problems: []domain.Problem{{ID: "p1"}}}
	state.AssessmentPlan = assessmentPlan("fractions", domain.LevelIntermediate)

	require.NoError(t, NewSummarizer().Run(context.Background(), state))

	sum := state.Summary
	require.NotNil(t, sum)
	assert.Equal(t, "comprehensive", sum.Completion)
	assert.Equal(t, 4, sum.ObjectivesCovered)
	assert.Equal(t, 1, sum.ProblemsGenerated)
	assert.Equal(t, 1, sum.ResourcesFound)
	assert.Equal(t, []string{"Excellent session, all learning content generated successfully"}, sum.Recommendations)
	assert.Len(t, sum.NextSteps, 4)
}

func TestSummarizer_DegradedSessionStillSummarized(t *testing.T) {
	state := newState("fractions", domain.LevelBeginner, domain.StyleMixed)
	state.Classification = &domain.Classification{Subject: domain.SubjectMath, Level: domain.LevelBeginner, Fallback: true}
	state.RecordFailure(StepPlan, errors.New("model down"), 0)
	state.Resources = domain.ResourceSet{}
	state.Practice = &domain.PracticeSet{Topic: "fractions", Level: domain.LevelBeginner, Problems: []domain.Problem{}}
	state.AssessmentPlan = assessmentPlan("fractions", domain.LevelBeginner)

	require.NoError(t, NewSummarizer().Run(context.Background(), state))

	sum := state.Summary
	require.NotNil(t, sum)
	assert.Equal(t, "partial", sum.Completion)
	assert.Zero(t, sum.ObjectivesCovered)
	assert.Contains(t, sum.Recommendations, "Some steps ran in degraded mode; retrying may produce richer content")
	assert.Contains(t, sum.Recommendations, "Try rephrasing the topic for better resource retrieval")
	assert.Contains(t, sum.Recommendations, "Take your time with each concept before moving forward")
}

func TestCompletionStatus(t *testing.T) {
	assert.Equal(t, "comprehensive", completionStatus(3, 2, 5, true))
	assert.Equal(t, "good", completionStatus(3, 0, 5, true))
	assert.Equal(t, "partial", completionStatus(0, 0, 5, true))
	assert.Equal(t, "partial", completionStatus(0, 0, 0, false))
}
