package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// SessionMarkdown formats a finished session as a markdown document. It
// tolerates missing artifacts, since degraded and aborted sessions carry
// only part of the content.
func SessionMarkdown(state *domain.SessionState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Lesson: %s\n\n", state.Topic)
	if c := state.Classification; c != nil {
		fmt.Fprintf(&b, "**Subject:** %s · **Level:** %s", c.Subject, c.Level)
		if c.Fallback {
			b.WriteString(" _(rule-based classification)_")
		}
		b.WriteString("\n\n")
	}

	writePlan(&b, state.LessonPlan)
	writeResources(&b, state.Resources)
	writePractice(&b, state.Practice)
	writeSummary(&b, state.Summary)

	if len(state.StepErrors) > 0 {
		b.WriteString("## Degraded Steps\n\n")
		for _, e := range state.StepErrors {
			fmt.Fprintf(&b, "- `%s`: %s\n", e.Step, e.Message)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writePlan(b *strings.Builder, plan *domain.LessonPlan) {
	if plan == nil {
		return
	}
	b.WriteString("## Lesson Plan\n\n")
	if plan.Duration != "" {
		fmt.Fprintf(b, "Estimated duration: %s\n\n", plan.Duration)
	}
	if len(plan.Objectives) > 0 {
		b.WriteString("### Objectives\n\n")
		for _, obj := range plan.Objectives {
			fmt.Fprintf(b, "- %s\n", obj)
		}
		b.WriteString("\n")
	}
	for _, section := range plan.Sections {
		fmt.Fprintf(b, "### %s\n\n", section.Title)
		if section.Body != "" {
			fmt.Fprintf(b, "%s\n\n", section.Body)
		}
		for _, bullet := range section.Bullets {
			fmt.Fprintf(b, "- %s\n", bullet)
		}
		if len(section.Bullets) > 0 {
			b.WriteString("\n")
		}
	}
}

func writeResources(b *strings.Builder, set domain.ResourceSet) {
	if set.Total() == 0 {
		return
	}
	b.WriteString("## Resources\n\n")
	kinds := make([]string, 0, len(set))
	for kind := range set {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		for _, r := range set[kind] {
			fmt.Fprintf(b, "- [%s](%s) _(%s)_", r.Title, r.URL, kind)
			if r.Snippet != "" {
				fmt.Fprintf(b, " — %s", r.Snippet)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

func writePractice(b *strings.Builder, practice *domain.PracticeSet) {
	if practice == nil || len(practice.Problems) == 0 {
		return
	}
	b.WriteString("## Practice Problems\n\n")
	for i, p := range practice.Problems {
		fmt.Fprintf(b, "%d. **%s** _(%s", i+1, p.Question, p.Difficulty)
		if p.EstimatedTime != "" {
			fmt.Fprintf(b, ", %s", p.EstimatedTime)
		}
		b.WriteString(")_\n")
		if p.Hint != "" {
			fmt.Fprintf(b, "   - Hint: %s\n", p.Hint)
		}
	}
	b.WriteString("\n")
}

func writeSummary(b *strings.Builder, summary *domain.ProgressSummary) {
	if summary == nil {
		return
	}
	b.WriteString("## Session Summary\n\n")
	fmt.Fprintf(b, "Completion: **%s** · Objectives: %d · Problems: %d · Resources: %d · Took %s\n\n",
		summary.Completion, summary.ObjectivesCovered, summary.ProblemsGenerated,
		summary.ResourcesFound, summary.Duration)
	if len(summary.Recommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for _, r := range summary.Recommendations {
			fmt.Fprintf(b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
	if len(summary.NextSteps) > 0 {
		b.WriteString("### Next Steps\n\n")
		for _, s := range summary.NextSteps {
			fmt.Fprintf(b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
}
