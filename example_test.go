package espalier_test

import (
	"context"
	"fmt"
	"log"

	"github.com/espalier-ai/espalier"
	"github.com/espalier-ai/espalier/pkg/domain"
)

// The zero configuration runs entirely on rule-based fallbacks, which makes
// it deterministic and network-free.
func ExampleTutor_Teach() {
	tutor := espalier.New()

	state, err := tutor.Teach(context.Background(), "basic algebra", domain.StudentProfile{
		Name:  "Ada",
		Level: domain.LevelBeginner,
		Style: domain.StyleVisual,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(state.Status)
	fmt.Println(state.Subject())
	fmt.Println(len(state.Practice.Problems))
	// Output:
	// completed
	// math
	// 5
}

func ExampleTutor_Assess() {
	tutor := espalier.New()

	graded := tutor.Assess(context.Background(), "fractions", "What is 1/2 + 1/4?", "I got it, the answer is 3/4", nil)

	fmt.Println(graded.Correct)
	fmt.Printf("%.1f\n", graded.Score)
	// Output:
	// true
	// 0.7
}
