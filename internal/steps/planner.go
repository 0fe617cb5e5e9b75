package steps

import (
	"context"
	"fmt"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// Planner builds the lesson plan from the classified subject and level.
// With a provider configured it asks the model and decodes the plan; without
// one it assembles a template plan shaped by level, learning style and
// subject. Plans are cached by (topic, level, style).
type Planner struct {
	deps Dependencies
}

func NewPlanner(deps Dependencies) *Planner {
	return &Planner{deps: deps}
}

func (p *Planner) Name() string { return StepPlan }

func (p *Planner) Run(ctx context.Context, state *domain.SessionState) error {
	plan, err := cached(ctx, p.deps, "lesson", state, func(ctx context.Context) (*domain.LessonPlan, error) {
		if p.deps.Provider == nil {
			return templatePlan(state.Topic, state.Subject(), state.TeachingLevel(), state.Profile.Style), nil
		}
		return p.modelPlan(ctx, state)
	})
	if err != nil {
		return fmt.Errorf("plan lesson for %q: %w", state.Topic, err)
	}
	state.LessonPlan = withGoals(plan, state.Profile.Goals)
	return nil
}

// Degrade substitutes the template plan so downstream steps and the final
// summary still see objectives and sections.
func (p *Planner) Degrade(state *domain.SessionState) {
	plan := templatePlan(state.Topic, state.Subject(), state.TeachingLevel(), state.Profile.Style)
	state.LessonPlan = withGoals(plan, state.Profile.Goals)
}

// withGoals appends the student's own goals as objectives. This happens
// after the cache lookup: goals are per student and must never influence a
// cached plan, whose key is only (topic, level, style).
func withGoals(plan *domain.LessonPlan, goals []string) *domain.LessonPlan {
	for _, goal := range goals {
		plan.Objectives = append(plan.Objectives, fmt.Sprintf("Work toward your goal: %s", goal))
	}
	return plan
}

func (p *Planner) modelPlan(ctx context.Context, state *domain.SessionState) (*domain.LessonPlan, error) {
	subject := state.Subject()
	level := state.TeachingLevel()

	raw, err := p.deps.Provider.Generate(ctx, planPrompt(state.Topic, subject, level, state.Profile.Style), ports.GenerateParams{
		System:      systemPrompt,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Duration   string `json:"estimated_duration"`
		Objectives []string
		Sections   []struct {
			Title   string
			Body    string
			Bullets []string
		}
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Objectives) == 0 {
		return nil, fmt.Errorf("plan response has no objectives")
	}

	plan := &domain.LessonPlan{
		Topic:      state.Topic,
		Subject:    subject,
		Level:      level,
		Style:      state.Profile.Style,
		Duration:   payload.Duration,
		Objectives: payload.Objectives,
	}
	if plan.Duration == "" {
		plan.Duration = defaultLessonDuration
	}
	for _, s := range payload.Sections {
		plan.Sections = append(plan.Sections, domain.LessonSection{Title: s.Title, Body: s.Body, Bullets: s.Bullets})
	}
	return plan, nil
}

// templatePlan is the rule-based lesson plan: objectives keyed by level,
// a section flow keyed by learning style, plus one subject-specific section.
func templatePlan(topic string, subject domain.Subject, level domain.Level, style domain.Style) *domain.LessonPlan {
	plan := &domain.LessonPlan{
		Topic:      topic,
		Subject:    subject,
		Level:      level,
		Style:      style,
		Duration:   defaultLessonDuration,
		Objectives: levelObjectives(topic, level),
		Sections:   styleSections(topic, style),
	}
	if extra, ok := subjectSection(topic, subject); ok {
		plan.Sections = append(plan.Sections, extra)
	}
	return plan
}

func levelObjectives(topic string, level domain.Level) []string {
	switch level {
	case domain.LevelIntermediate:
		return []string{
			fmt.Sprintf("Analyze different aspects of %s", topic),
			fmt.Sprintf("Compare and contrast key concepts in %s", topic),
			fmt.Sprintf("Apply %s to practical scenarios", topic),
			"Develop problem-solving skills",
		}
	case domain.LevelAdvanced:
		return []string{
			fmt.Sprintf("Synthesize complex ideas about %s", topic),
			fmt.Sprintf("Evaluate different approaches to %s", topic),
			fmt.Sprintf("Create original solutions using %s", topic),
			"Master advanced applications",
		}
	default:
		return []string{
			fmt.Sprintf("Understand the basic concepts of %s", topic),
			fmt.Sprintf("Identify key terms related to %s", topic),
			fmt.Sprintf("Apply simple examples of %s", topic),
			"Build confidence in the subject area",
		}
	}
}

func styleSections(topic string, style domain.Style) []domain.LessonSection {
	switch style {
	case domain.StyleVisual:
		return []domain.LessonSection{
			{Title: "Warm-up", Body: fmt.Sprintf("Visual overview and mind map of %s (5 min)", topic)},
			{Title: "Introduction", Body: "Concept diagrams and charts (15 min)"},
			{Title: "Main content", Body: "Step-by-step visual examples (25 min)"},
			{Title: "Practice", Body: "Visual problem solving (10 min)"},
			{Title: "Wrap-up", Body: "Summary infographic (5 min)"},
		}
	case domain.StyleAuditory:
		return []domain.LessonSection{
			{Title: "Warm-up", Body: fmt.Sprintf("Spoken introduction to %s (5 min)", topic)},
			{Title: "Introduction", Body: "Guided explanation with discussion prompts (15 min)"},
			{Title: "Main content", Body: "Talk-through of worked examples (25 min)"},
			{Title: "Practice", Body: "Explain the concepts back in your own words (10 min)"},
			{Title: "Wrap-up", Body: "Verbal recap and questions (5 min)"},
		}
	case domain.StyleKinesthetic:
		return []domain.LessonSection{
			{Title: "Warm-up", Body: fmt.Sprintf("Hands-on teaser exercise for %s (5 min)", topic)},
			{Title: "Introduction", Body: "Learn-by-doing walkthrough (15 min)"},
			{Title: "Main content", Body: "Build something small using the concepts (25 min)"},
			{Title: "Practice", Body: "Independent exercise (10 min)"},
			{Title: "Wrap-up", Body: "Review what you built (5 min)"},
		}
	default:
		return []domain.LessonSection{
			{Title: "Warm-up", Body: "Interactive introduction (5 min)"},
			{Title: "Introduction", Body: "Multi-modal explanation (15 min)"},
			{Title: "Main content", Body: "Varied examples and practice (25 min)"},
			{Title: "Practice", Body: "Choice of activities (10 min)"},
			{Title: "Wrap-up", Body: "Flexible review (5 min)"},
		}
	}
}

func subjectSection(topic string, subject domain.Subject) (domain.LessonSection, bool) {
	switch subject {
	case domain.SubjectMath:
		return domain.LessonSection{
			Title: "Worked calculations",
			Bullets: []string{
				fmt.Sprintf("Walk through two solved problems involving %s", topic),
				"Note where each rule or formula is applied",
				"Redo one of them from scratch without looking",
			},
		}, true
	case domain.SubjectScience:
		return domain.LessonSection{
			Title: "Observe and predict",
			Bullets: []string{
				fmt.Sprintf("Find a real-world situation where %s shows up", topic),
				"Predict what changes when one variable changes",
				"Check the prediction against a reference",
			},
		}, true
	case domain.SubjectProgramming:
		return domain.LessonSection{
			Title: "Code walkthrough",
			Bullets: []string{
				fmt.Sprintf("Read a short program that uses %s", topic),
				"Modify it and observe how the behavior changes",
				"Write your own version from an empty file",
			},
		}, true
	default:
		return domain.LessonSection{}, false
	}
}
