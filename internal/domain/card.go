package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardContent is the learner-facing part of a vocabulary card.
type CardContent struct {
	Headword      string `validate:"required"`
	Pronunciation string
	Definition    string `validate:"required"`
	Example       string
	Level         Level `validate:"required,cefr"`
}

// VocabularyCard is a single word being learned together with its
// scheduling state. Only the scheduler computes new scheduling state.
type VocabularyCard struct {
	ID        string
	LearnerID uuid.UUID
	CardContent

	NextReviewAt   time.Time
	ReviewCount    int
	Difficulty     int
	Streak         int // consecutive non-hard ratings, index into the ladder
	LastReviewedAt *time.Time

	SourceID  *int64
	CreatedAt time.Time
}

// IsDue reports whether the card should be shown at now.
func (c VocabularyCard) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

// ReviewOutcome records one submitted rating. It is append-only.
type ReviewOutcome struct {
	ID         uuid.UUID
	LearnerID  uuid.UUID
	CardID     string
	Rating     Rating
	ReviewedAt time.Time

	PrevDifficulty int
	PrevStreak     int
	NextReviewAt   time.Time
}

// Source is the origin of imported cards, either a local directory or a
// git repository.
type Source struct {
	ID          int64
	Path        string
	Type        SourceType
	LastScanned *time.Time
}

// SourceType distinguishes local deck directories from git repositories.
type SourceType string

const (
	SourceLocal SourceType = "local"
	SourceGit   SourceType = "git"
)
