package progress

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// CardSource is the read side of a learner's card store.
type CardSource interface {
	ListCards(ctx context.Context) iter.Seq2[domain.VocabularyCard, error]
	Outcomes(ctx context.Context, since time.Time) ([]domain.ReviewOutcome, error)
}

// Summary is the learner progress overview.
type Summary struct {
	TotalCards       int
	DueCards         int
	MasteryRate      float64
	CompletedLessons int
	TotalLessons     int
	AverageQuizScore float64
	LevelProgress    map[domain.Level]float64
	CurrentLevel     domain.Level
	StudyStreak      int
	TotalStudyTime   time.Duration
}

// Aggregator computes summaries for one learner.
type Aggregator struct {
	cards     CardSource
	threshold int
}

// NewAggregator binds an aggregator to a card source. A threshold below 1
// uses DefaultMasteryThreshold.
func NewAggregator(cards CardSource, masteryThreshold int) *Aggregator {
	if masteryThreshold < 1 {
		masteryThreshold = DefaultMasteryThreshold
	}
	return &Aggregator{cards: cards, threshold: masteryThreshold}
}

// Summary reads every card and the review history once and combines them
// with the supplied lessons and quiz results.
func (a *Aggregator) Summary(ctx context.Context, now time.Time, lessons []domain.Lesson, results []domain.QuizResult) (Summary, error) {
	var cards []domain.VocabularyCard
	for c, err := range a.cards.ListCards(ctx) {
		if err != nil {
			return Summary{}, fmt.Errorf("summary: list cards: %w", err)
		}
		cards = append(cards, c)
	}

	outcomes, err := a.cards.Outcomes(ctx, time.Time{})
	if err != nil {
		return Summary{}, fmt.Errorf("summary: outcomes: %w", err)
	}

	due := 0
	for _, c := range cards {
		if c.IsDue(now) {
			due++
		}
	}

	return Summary{
		TotalCards:       len(cards),
		DueCards:         due,
		MasteryRate:      MasteryRate(cards, a.threshold),
		CompletedLessons: CompletedLessons(lessons),
		TotalLessons:     len(lessons),
		AverageQuizScore: AverageQuizScore(results),
		LevelProgress:    LevelProgress(lessons),
		CurrentLevel:     CurrentLevel(lessons),
		StudyStreak:      StudyStreak(ActivityLog(outcomes, lessons), now),
		TotalStudyTime:   TotalStudyTime(lessons, results),
	}, nil
}
