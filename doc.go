/*
Package espalier is a resilient AI tutoring engine. It turns a free-text
learning request into a complete lesson: classification, a lesson plan,
curated resources, practice problems, an assessment plan, and a session
summary.

It implements a "Degrade, Don't Die" architecture: every generation step has
a deterministic rule-based fallback, so a session always reaches a useful end
state even when the language model is down, slow, or returning garbage.

# Concept

Espalier treats a tutoring session as a fixed six-step pipeline over a single
SessionState. The engine owns sequencing, failure recovery, caching and
progress events, while your application ("Host") owns the model provider, the
resource retriever and the I/O. This hexagonal split lets the same engine run
inside a CLI, an HTTP server, or fully offline with no provider at all.

# Key Features

  - Graceful Degradation: step failures are recorded and replaced by
    rule-based content; only classification can be made fatal.
  - Pluggable Providers: any OpenAI-compatible model endpoint, any search
    backend, any key-value cache.
  - Artifact Caching: lesson plans, resources and practice sets are cached by
    a fingerprint of topic, level and learning style.
  - Progress Streaming: per-step events for live UIs, plus lifecycle hooks
    for metrics.

# Usage

The zero configuration runs fully offline on rule-based fallbacks:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/espalier-ai/espalier"
		"github.com/espalier-ai/espalier/pkg/domain"
	)

	func main() {
		tutor := espalier.New()

		state, err := tutor.Teach(context.Background(), "basic algebra", domain.StudentProfile{
			Name:  "Ada",
			Level: domain.LevelBeginner,
			Style: domain.StyleVisual,
		})
		if err != nil {
			log.Fatal(err)
		}

		for _, obj := range state.LessonPlan.Objectives {
			fmt.Println("-", obj)
		}
		for _, p := range state.Practice.Problems {
			fmt.Println(p.ID, p.Question)
		}
		fmt.Println(state.Summary.Completion)
	}

Attach a model provider, a retriever and a cache to get generated content
with the same failure guarantees:

	tutor := espalier.New(
		espalier.WithProvider(openai.New(apiKey)),
		espalier.WithRetriever(wikipedia.New()),
		espalier.WithCache(redis.NewCacheFromClient(client), time.Hour),
	)
*/
package espalier
