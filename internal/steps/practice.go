package steps

import (
	"context"
	"fmt"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// defaultProblemCount matches the number of exercises a session generates
// unless the caller overrides it.
const defaultProblemCount = 5

// PracticeGenerator produces the practice set. Difficulty scales with the
// teaching level: beginners only see easy problems, intermediate students
// easy and medium, advanced students medium and hard. Model output is
// clamped to the same mix so a chatty model cannot hand an advanced student
// a sheet of easy ones.
//
// Problem IDs are assigned deterministically (p1..pn) so identical inputs
// produce byte-identical sets, which the cache relies on.
type PracticeGenerator struct {
	deps  Dependencies
	count int
}

func NewPracticeGenerator(deps Dependencies, count int) *PracticeGenerator {
	if count <= 0 {
		count = defaultProblemCount
	}
	return &PracticeGenerator{deps: deps, count: count}
}

func (g *PracticeGenerator) Name() string { return StepPractice }

func (g *PracticeGenerator) Run(ctx context.Context, state *domain.SessionState) error {
	set, err := cached(ctx, g.deps, "practice", state, func(ctx context.Context) (*domain.PracticeSet, error) {
		if g.deps.Provider == nil {
			return g.templateSet(state), nil
		}
		return g.modelSet(ctx, state)
	})
	if err != nil {
		return fmt.Errorf("generate practice for %q: %w", state.Topic, err)
	}
	state.Practice = set
	return nil
}

// Degrade leaves an empty practice set.
func (g *PracticeGenerator) Degrade(state *domain.SessionState) {
	state.Practice = &domain.PracticeSet{
		Topic:    state.Topic,
		Level:    state.TeachingLevel(),
		Problems: []domain.Problem{},
	}
}

func (g *PracticeGenerator) modelSet(ctx context.Context, state *domain.SessionState) (*domain.PracticeSet, error) {
	level := state.TeachingLevel()

	raw, err := g.deps.Provider.Generate(ctx, practicePrompt(state.Topic, state.Subject(), level, g.count), ports.GenerateParams{
		System:      systemPrompt,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Problems []struct {
			Question   string
			Hint       string
			Difficulty string
			Answer     string
		}
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Problems) == 0 {
		return nil, fmt.Errorf("practice response has no problems")
	}

	set := &domain.PracticeSet{Topic: state.Topic, Level: level}
	for i, p := range payload.Problems {
		if i >= g.count {
			break
		}
		diff := clampDifficulty(domain.Difficulty(p.Difficulty), level)
		set.Problems = append(set.Problems, domain.Problem{
			ID:            fmt.Sprintf("p%d", i+1),
			Question:      p.Question,
			Hint:          p.Hint,
			Difficulty:    diff,
			Answer:        p.Answer,
			EstimatedTime: problemTime(diff),
		})
	}
	return set, nil
}

func (g *PracticeGenerator) templateSet(state *domain.SessionState) *domain.PracticeSet {
	level := state.TeachingLevel()
	subject := state.Subject()

	set := &domain.PracticeSet{Topic: state.Topic, Level: level}
	for i := 0; i < g.count; i++ {
		diff := difficultyFor(level, i)
		set.Problems = append(set.Problems, domain.Problem{
			ID:            fmt.Sprintf("p%d", i+1),
			Question:      subjectQuestion(subject, state.Topic, i+1, diff),
			Hint:          fmt.Sprintf("Think about the key concepts of %s and work through it step by step", state.Topic),
			Difficulty:    diff,
			Answer:        fmt.Sprintf("Apply the principles of %s covered in the lesson", state.Topic),
			EstimatedTime: problemTime(diff),
		})
	}
	return set
}

// difficultyFor picks the i-th problem's difficulty for a level. The mixes
// keep difficulty monotone across levels: moving up a level never makes the
// set easier.
func difficultyFor(level domain.Level, i int) domain.Difficulty {
	switch level {
	case domain.LevelIntermediate:
		if i%2 == 0 {
			return domain.DifficultyEasy
		}
		return domain.DifficultyMedium
	case domain.LevelAdvanced:
		if i%3 == 0 {
			return domain.DifficultyMedium
		}
		return domain.DifficultyHard
	default:
		return domain.DifficultyEasy
	}
}

// clampDifficulty forces a model-assigned difficulty into the band the
// level allows.
func clampDifficulty(d domain.Difficulty, level domain.Level) domain.Difficulty {
	switch level {
	case domain.LevelBeginner:
		return domain.DifficultyEasy
	case domain.LevelIntermediate:
		if d == domain.DifficultyHard {
			return domain.DifficultyMedium
		}
		if d != domain.DifficultyEasy && d != domain.DifficultyMedium {
			return domain.DifficultyEasy
		}
		return d
	default:
		if d == domain.DifficultyEasy || (d != domain.DifficultyMedium && d != domain.DifficultyHard) {
			return domain.DifficultyMedium
		}
		return d
	}
}

func subjectQuestion(subject domain.Subject, topic string, n int, diff domain.Difficulty) string {
	switch subject {
	case domain.SubjectMath:
		return fmt.Sprintf("Problem %d (%s): work through a calculation that uses %s, showing each step", n, diff, topic)
	case domain.SubjectProgramming:
		return fmt.Sprintf("Exercise %d (%s): write a small program that applies %s, then explain how it works", n, diff, topic)
	case domain.SubjectScience:
		return fmt.Sprintf("Problem %d (%s): describe the mechanism behind %s and predict what happens when conditions change", n, diff, topic)
	default:
		return fmt.Sprintf("Practice problem %d (%s) about %s", n, diff, topic)
	}
}
