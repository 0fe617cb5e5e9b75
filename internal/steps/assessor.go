package steps

import (
	"context"
	"strings"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// Assessor plans how understanding gets measured, and grades free-text
// responses on demand. The plan is assembled locally and never needs the
// model; grading prefers the model and falls back to keyword scoring.
type Assessor struct {
	deps Dependencies
}

func NewAssessor(deps Dependencies) *Assessor {
	return &Assessor{deps: deps}
}

func (a *Assessor) Name() string { return StepAssess }

func (a *Assessor) Run(ctx context.Context, state *domain.SessionState) error {
	state.AssessmentPlan = assessmentPlan(state.Topic, state.TeachingLevel())
	return nil
}

func (a *Assessor) Degrade(state *domain.SessionState) {
	state.AssessmentPlan = assessmentPlan(state.Topic, state.TeachingLevel())
}

func assessmentPlan(topic string, level domain.Level) *domain.AssessmentPlan {
	threshold := 0.8
	if level == domain.LevelBeginner {
		threshold = 0.7
	}
	return &domain.AssessmentPlan{
		Topic: topic,
		Level: level,
		Types: []string{"formative", "practice_based"},
		Criteria: []string{
			"Understanding of key concepts",
			"Ability to apply knowledge",
			"Problem-solving skills",
			"Retention and recall",
		},
		MasteryThreshold: threshold,
	}
}

// Grade scores a student's free-text answer. It never fails: a model error
// drops to keyword scoring, and a response with no recognizable signal
// yields the neutral result with Automated=false.
func (a *Assessor) Grade(ctx context.Context, topic, question, response string, threshold float64) domain.Assessment {
	if threshold <= 0 {
		threshold = 0.7
	}

	if a.deps.Provider != nil {
		if graded, ok := a.modelGrade(ctx, topic, question, response); ok {
			return graded
		}
	}
	return keywordGrade(response, threshold)
}

func (a *Assessor) modelGrade(ctx context.Context, topic, question, response string) (domain.Assessment, bool) {
	raw, err := a.deps.Provider.Generate(ctx, gradePrompt(topic, question, response), ports.GenerateParams{
		System:      systemPrompt,
		Temperature: 0.2,
	})
	if err != nil {
		a.deps.logger().Warn("model grading failed, using keyword scoring", "err", err)
		return domain.Assessment{}, false
	}

	var payload struct {
		Correct     bool
		Score       float64
		Feedback    string
		Explanation string
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		a.deps.logger().Warn("grading response unreadable, using keyword scoring", "err", err)
		return domain.Assessment{}, false
	}
	if payload.Score < 0 {
		payload.Score = 0
	}
	if payload.Score > 1 {
		payload.Score = 1
	}
	return domain.Assessment{
		Correct:     payload.Correct,
		Score:       payload.Score,
		Feedback:    payload.Feedback,
		Explanation: payload.Explanation,
		Automated:   true,
	}, true
}

var (
	positiveIndicators  = []string{"understand", "clear", "makes sense", "got it", "i see"}
	confusionIndicators = []string{"confused", "don't understand", "unclear", "difficult", "hard"}
)

// keywordGrade scores on engagement signals in the response text.
func keywordGrade(response string, threshold float64) domain.Assessment {
	lower := strings.ToLower(response)

	positive := 0
	for _, ind := range positiveIndicators {
		if strings.Contains(lower, ind) {
			positive++
		}
	}
	confused := 0
	for _, ind := range confusionIndicators {
		if strings.Contains(lower, ind) {
			confused++
		}
	}

	switch {
	case positive > confused:
		return domain.Assessment{
			Correct:   0.7 >= threshold,
			Score:     0.7,
			Feedback:  "Shows positive engagement with the material and comprehension of key concepts",
			Automated: true,
		}
	case confused > 0:
		return domain.Assessment{
			Correct:   false,
			Score:     0.3,
			Feedback:  "Needs clearer explanations; a different learning approach may help",
			Automated: true,
		}
	default:
		return domain.Assessment{
			Correct:   false,
			Score:     0.5,
			Feedback:  "Could not judge understanding from this response; try describing the concept in your own words",
			Automated: false,
		}
	}
}
