package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// subjectKeywords drives the rule-based classifier. Order matters for ties:
// the first subject with the highest hit count wins, so the table is a
// slice, not a map.
var subjectKeywords = []struct {
	subject  domain.Subject
	keywords []string
}{
	{domain.SubjectMath, []string{"math", "mathematics", "algebra", "calculus", "geometry", "statistics"}},
	{domain.SubjectScience, []string{"physics", "chemistry", "biology", "astronomy", "geology"}},
	{domain.SubjectProgramming, []string{"python", "javascript", "go", "coding", "programming", "software", "algorithms"}},
	{domain.SubjectHistory, []string{"history", "historical", "timeline", "civilization", "events", "culture"}},
	{domain.SubjectLanguage, []string{"grammar", "vocabulary", "pronunciation", "linguistics"}},
	{domain.SubjectArt, []string{"drawing", "painting", "design", "creativity", "visual"}},
	{domain.SubjectMusic, []string{"music", "instruments", "composition", "rhythm", "melody"}},
}

var levelIndicators = []struct {
	level      domain.Level
	indicators []string
}{
	{domain.LevelBeginner, []string{"basic", "introduction", "fundamentals", "simple", "easy"}},
	{domain.LevelIntermediate, []string{"intermediate", "moderate", "standard", "typical"}},
	{domain.LevelAdvanced, []string{"advanced", "complex", "expert", "sophisticated", "graduate"}},
}

// Classifier detects the subject and level of the learning request. It is
// the only step whose failure can end a session: everything downstream
// routes on its output, so when the model path fails and the rule-based
// fallback is disabled it reports a fatal error instead of degrading.
type Classifier struct {
	deps Dependencies
	// noFallback disables the rule-based path, turning model failures into
	// fatal ones.
	noFallback bool
}

func NewClassifier(deps Dependencies, noFallback bool) *Classifier {
	return &Classifier{deps: deps, noFallback: noFallback}
}

func (c *Classifier) Name() string { return StepClassify }

func (c *Classifier) Run(ctx context.Context, state *domain.SessionState) error {
	if c.deps.Provider == nil {
		if c.noFallback {
			return fmt.Errorf("%w: %w", domain.ErrFatalAbort, domain.ErrNoProvider)
		}
		cl := classifyByKeywords(state.Topic)
		cl.Fallback = true
		state.Classification = &cl
		return nil
	}

	raw, err := c.deps.Provider.Generate(ctx, classifyPrompt(state.Topic), ports.GenerateParams{
		System:      systemPrompt,
		Temperature: 0.1,
	})
	if err == nil {
		var payload struct {
			Subject string `json:"subject"`
			Level   string `json:"level"`
		}
		err = decodeModelJSON(raw, &payload)
		if err == nil {
			state.Classification = &domain.Classification{
				Subject: normalizeSubject(payload.Subject),
				Level:   normalizeLevel(payload.Level, state.Profile.Level),
			}
			return nil
		}
	}

	if c.noFallback {
		return fmt.Errorf("%w: %w", domain.ErrFatalAbort, err)
	}
	return fmt.Errorf("classify %q: %w", state.Topic, err)
}

// Degrade substitutes the keyword classification after a model failure.
func (c *Classifier) Degrade(state *domain.SessionState) {
	cl := classifyByKeywords(state.Topic)
	cl.Fallback = true
	state.Classification = &cl
}

// classifyByKeywords scores each subject by keyword hits and picks the
// level from indicator words plus phrasing heuristics. It is deterministic
// and never fails.
func classifyByKeywords(topic string) domain.Classification {
	lower := strings.ToLower(topic)

	subject := domain.SubjectGeneral
	best := 0
	for _, entry := range subjectKeywords {
		hits := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > best {
			best = hits
			subject = entry.subject
		}
	}

	level := domain.LevelBeginner
	for _, entry := range levelIndicators {
		if containsAny(lower, entry.indicators) {
			level = entry.level
			break
		}
	}

	// Phrasing beats indicator words: "how to X" is a beginner ask even
	// when X sounds sophisticated.
	switch {
	case containsAny(lower, []string{"how to", "what is", "explain", "basics"}):
		level = domain.LevelBeginner
	case containsAny(lower, []string{"advanced", "deep dive", "complex", "theory"}):
		level = domain.LevelAdvanced
	case containsAny(lower, []string{"implement", "build", "create", "design"}):
		level = domain.LevelIntermediate
	}

	return domain.Classification{Subject: subject, Level: level, Matches: best}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func normalizeSubject(s string) domain.Subject {
	cand := domain.Subject(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range domain.Subjects() {
		if cand == known {
			return cand
		}
	}
	return domain.SubjectGeneral
}

func normalizeLevel(s string, fallback domain.Level) domain.Level {
	cand := domain.Level(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range domain.Levels() {
		if cand == known {
			return cand
		}
	}
	return fallback
}
