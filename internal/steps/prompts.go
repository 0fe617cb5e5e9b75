package steps

import (
	"fmt"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// Every prompt demands a bare JSON object so responses survive
// decodeModelJSON even when the model wraps them in prose or fences.
const systemPrompt = "You are an experienced tutor. Answer with a single JSON object and nothing else."

func classifyPrompt(topic string) string {
	return fmt.Sprintf(`Classify the learning request below.

Request: %q

Respond with JSON: {"subject": one of %v, "level": one of ["beginner","intermediate","advanced"]}`,
		topic, domain.Subjects())
}

func planPrompt(topic string, subject domain.Subject, level domain.Level, style domain.Style) string {
	return fmt.Sprintf(`Create a lesson plan for a %s-level student who prefers %s learning.

Topic: %q (subject: %s)

Respond with JSON:
{"estimated_duration": "...", "objectives": ["..."], "sections": [{"title": "...", "body": "...", "bullets": ["..."]}]}

Use 3-5 objectives and 4-6 sections. Each section has either a body or bullets.`,
		level, style, topic, subject)
}

func practicePrompt(topic string, subject domain.Subject, level domain.Level, count int) string {
	return fmt.Sprintf(`Write %d practice problems about %q for a %s-level %s student.

Respond with JSON:
{"problems": [{"question": "...", "hint": "...", "difficulty": "easy"|"medium"|"hard", "answer": "..."}]}

Match difficulty to the level: beginners get easy problems, advanced students get mostly medium and hard ones.`,
		count, topic, level, subject)
}

func gradePrompt(topic, question, response string) string {
	return fmt.Sprintf(`Grade a student's answer.

Topic: %q
Question: %q
Student answer: %q

Respond with JSON:
{"correct": true|false, "score": 0.0-1.0, "feedback": "...", "explanation": "..."}`,
		topic, question, response)
}
