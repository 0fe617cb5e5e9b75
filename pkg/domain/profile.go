package domain

import "fmt"

// Level describes how far along a student is in a subject.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists the valid learning levels in ascending order.
func Levels() []Level {
	return []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}
}

// Style describes the student's preferred way of absorbing material.
type Style string

const (
	StyleVisual      Style = "visual"
	StyleAuditory    Style = "auditory"
	StyleKinesthetic Style = "kinesthetic"
	StyleMixed       Style = "mixed"
)

// Styles lists the valid learning styles.
func Styles() []Style {
	return []Style{StyleVisual, StyleAuditory, StyleKinesthetic, StyleMixed}
}

// StudentProfile describes the learner a session is built for.
// It is created by the caller before a session starts and is immutable for
// the duration of that session.
type StudentProfile struct {
	ID    string   `json:"id,omitempty"`
	Name  string   `json:"name"`
	Level Level    `json:"level"`
	Style Style    `json:"learning_style"`
	Goals []string `json:"learning_goals,omitempty"`
}

// Validate checks the enumerated fields. It returns a *ValidationError so
// boundaries can reject malformed profiles before a pipeline ever starts.
func (p StudentProfile) Validate() error {
	switch p.Level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		return &ValidationError{Field: "level", Message: fmt.Sprintf("unknown level %q", p.Level)}
	}
	switch p.Style {
	case StyleVisual, StyleAuditory, StyleKinesthetic, StyleMixed:
	default:
		return &ValidationError{Field: "learning_style", Message: fmt.Sprintf("unknown learning style %q", p.Style)}
	}
	return nil
}
