package steps

import (
	"context"
	"fmt"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// Summarizer compiles the final progress summary from whatever the earlier
// steps produced. It reads only session state and never fails, so every
// session that reaches it ends with a summary, degraded steps included.
type Summarizer struct{}

func NewSummarizer() *Summarizer { return &Summarizer{} }

func (s *Summarizer) Name() string { return StepSummarize }

func (s *Summarizer) Run(ctx context.Context, state *domain.SessionState) error {
	state.Summary = buildSummary(state)
	return nil
}

func (s *Summarizer) Degrade(state *domain.SessionState) {
	state.Summary = buildSummary(state)
}

func buildSummary(state *domain.SessionState) *domain.ProgressSummary {
	objectives := 0
	if state.LessonPlan != nil {
		objectives = len(state.LessonPlan.Objectives)
	}
	problems := 0
	if state.Practice != nil {
		problems = len(state.Practice.Problems)
	}
	resources := state.Resources.Total()

	return &domain.ProgressSummary{
		Topic:             state.Topic,
		Subject:           state.Subject(),
		ObjectivesCovered: objectives,
		ProblemsGenerated: problems,
		ResourcesFound:    resources,
		Completion:        completionStatus(objectives, resources, problems, state.AssessmentPlan != nil),
		Recommendations:   recommendations(state, resources),
		NextSteps: []string{
			fmt.Sprintf("Review the lesson plan for %s", state.Topic),
			"Work through the practice problems",
			"Ask questions on any unclear concepts",
			"Complete a self-assessment",
		},
		Duration: fmt.Sprintf("%.2f seconds", state.Duration().Seconds()),
	}
}

func completionStatus(objectives, resources, problems int, assessed bool) string {
	parts := 0
	if objectives > 0 {
		parts++
	}
	if resources > 0 {
		parts++
	}
	if problems > 0 {
		parts++
	}
	if assessed {
		parts++
	}
	switch {
	case parts == 4:
		return "comprehensive"
	case parts >= 3:
		return "good"
	default:
		return "partial"
	}
}

func recommendations(state *domain.SessionState, resources int) []string {
	var recs []string
	if len(state.StepErrors) > 0 {
		recs = append(recs, "Some steps ran in degraded mode; retrying may produce richer content")
	}
	if resources == 0 {
		recs = append(recs, "Try rephrasing the topic for better resource retrieval")
	}
	switch state.TeachingLevel() {
	case domain.LevelBeginner:
		recs = append(recs, "Take your time with each concept before moving forward")
	case domain.LevelAdvanced:
		recs = append(recs, "Explore additional resources for deeper understanding")
	}
	if len(recs) == 0 {
		recs = append(recs, "Excellent session, all learning content generated successfully")
	}
	return recs
}
