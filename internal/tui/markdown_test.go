package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espalier-ai/espalier"
	"github.com/espalier-ai/espalier/pkg/domain"
)

func TestSessionMarkdown_FullSession(t *testing.T) {
	tutor := espalier.New()
	state, err := tutor.Teach(context.Background(), "basic algebra", domain.StudentProfile{
		Level: domain.LevelBeginner,
		Style: domain.StyleVisual,
	})
	require.NoError(t, err)

	md := SessionMarkdown(state)

	assert.Contains(t, md, "# Lesson: basic algebra")
	assert.Contains(t, md, "rule-based classification")
	assert.Contains(t, md, "## Lesson Plan")
	assert.Contains(t, md, "## Practice Problems")
	assert.Contains(t, md, "## Session Summary")
	// No retriever configured, so no resources section.
	assert.NotContains(t, md, "## Resources")
}

func TestSessionMarkdown_PartialState(t *testing.T) {
	state := domain.NewSessionState("fractions", domain.StudentProfile{
		Level: domain.LevelBeginner,
		Style: domain.StyleMixed,
	})
	state.RecordFailure("plan", assert.AnError, 0)

	md := SessionMarkdown(state)

	assert.Contains(t, md, "# Lesson: fractions")
	assert.Contains(t, md, "## Degraded Steps")
	assert.NotContains(t, md, "## Lesson Plan")
}

func TestSessionMarkdown_ResourcesOrderIsStable(t *testing.T) {
	state := domain.NewSessionState("fractions", domain.StudentProfile{
		Level: domain.LevelBeginner,
		Style: domain.StyleMixed,
	})
	state.Resources = domain.ResourceSet{
		"videos":   {{Title: "Fractions visually", URL: "https://example.com/v"}},
		"articles": {{Title: "Fraction basics", URL: "https://example.com/a"}},
		"courses":  {{Title: "Arithmetic course", URL: "https://example.com/c"}},
	}

	md := SessionMarkdown(state)
	for i := 0; i < 20; i++ {
		assert.Equal(t, md, SessionMarkdown(state))
	}

	articles := strings.Index(md, "Fraction basics")
	courses := strings.Index(md, "Arithmetic course")
	videos := strings.Index(md, "Fractions visually")
	require.Greater(t, articles, -1)
	assert.Less(t, articles, courses)
	assert.Less(t, courses, videos)
}

func TestRendererFallsBackOnRawMarkdown(t *testing.T) {
	render := NewRenderer()
	out := render("# hello")
	assert.NotEmpty(t, out)
}
