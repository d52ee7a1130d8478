package domain

import (
	"fmt"
	"time"
)

// Lesson is owned by the lesson subsystem; the review engine only reads it.
type Lesson struct {
	ID              string
	Title           string
	Level           Level
	Category        string
	DurationMinutes int
	Progress        int // percent, 0..100
	Completed       bool
	CompletedAt     *time.Time
}

// ValidateProgress rejects lesson progress outside 0..100.
func ValidateProgress(pct int) error {
	if pct < 0 || pct > 100 {
		return &ValidationError{Errors: []FieldError{{Field: "progress", Message: fmt.Sprintf("must be between 0 and 100, got %d", pct)}}}
	}
	return nil
}

// QuizResult is owned by the quiz subsystem. Score is a percentage.
type QuizResult struct {
	ID             string
	LessonID       string
	Score          float64
	TotalQuestions int
	CompletedAt    time.Time
	TimeSpent      time.Duration
}
