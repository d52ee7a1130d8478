// Package srs implements the interval-ladder review scheduler.
//
// A card climbs one rung of the ladder on every "easy" rating, stays on its
// rung for "medium" and falls back to the first rung on "hard". The next
// review is always scheduled from the moment of the review, never from the
// previous due date.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

const day = 24 * time.Hour

// Params holds the parameters of the ladder scheduler.
type Params struct {
	Ladder            []int // review intervals in whole days, indexed by streak
	MinDifficulty     int
	MaxDifficulty     int
	DifficultyStep    int
	InitialDifficulty int
}

// DefaultParams returns the ladder 1, 3, 7, 16, 35, 75 days and a 1..5
// difficulty scale starting at 3.
func DefaultParams() Params {
	return Params{
		Ladder:            []int{1, 3, 7, 16, 35, 75},
		MinDifficulty:     1,
		MaxDifficulty:     5,
		DifficultyStep:    1,
		InitialDifficulty: 3,
	}
}

// Validate checks the ladder is non-empty and strictly increasing and that
// the difficulty bounds are consistent.
func (p Params) Validate() error {
	if len(p.Ladder) == 0 {
		return fmt.Errorf("srs: ladder must not be empty")
	}
	for i, d := range p.Ladder {
		if d <= 0 {
			return fmt.Errorf("srs: ladder[%d] = %d must be positive", i, d)
		}
		if i > 0 && d <= p.Ladder[i-1] {
			return fmt.Errorf("srs: ladder[%d] = %d must be greater than ladder[%d] = %d", i, d, i-1, p.Ladder[i-1])
		}
	}
	if p.MinDifficulty > p.MaxDifficulty {
		return fmt.Errorf("srs: min difficulty %d exceeds max %d", p.MinDifficulty, p.MaxDifficulty)
	}
	if p.InitialDifficulty < p.MinDifficulty || p.InitialDifficulty > p.MaxDifficulty {
		return fmt.Errorf("srs: initial difficulty %d outside [%d, %d]", p.InitialDifficulty, p.MinDifficulty, p.MaxDifficulty)
	}
	if p.DifficultyStep <= 0 {
		return fmt.Errorf("srs: difficulty step %d must be positive", p.DifficultyStep)
	}
	return nil
}

// Scheduler computes review transitions. It holds no mutable state and is
// safe for concurrent use.
type Scheduler struct {
	params Params
}

// NewScheduler validates p and returns a Scheduler using a copy of it.
func NewScheduler(p Params) (*Scheduler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Ladder = append([]int(nil), p.Ladder...)
	return &Scheduler{params: p}, nil
}

// Params returns a copy of the scheduler parameters.
func (s *Scheduler) Params() Params {
	p := s.params
	p.Ladder = append([]int(nil), p.Ladder...)
	return p
}

// NewCard returns a card for content first encountered at now. It is due
// immediately.
func (s *Scheduler) NewCard(id string, content domain.CardContent, now time.Time) domain.VocabularyCard {
	return domain.VocabularyCard{
		ID:           id,
		CardContent:  content,
		NextReviewAt: now,
		Difficulty:   s.params.InitialDifficulty,
		CreatedAt:    now,
	}
}

// Review applies rating to card at now and returns the updated card. The
// input card is not modified.
func (s *Scheduler) Review(card domain.VocabularyCard, rating domain.Rating, now time.Time) (domain.VocabularyCard, error) {
	if !rating.IsValid() {
		return card, &domain.InvalidRatingError{Value: string(rating)}
	}

	c := card
	streak := s.clampStreak(c.Streak)
	difficulty := c.Difficulty

	switch rating {
	case domain.Hard:
		streak = 0
		difficulty += s.params.DifficultyStep
	case domain.Medium:
	case domain.Easy:
		streak = s.clampStreak(streak + 1)
		difficulty -= s.params.DifficultyStep
	}

	base := now
	if base.Before(c.CreatedAt) {
		base = c.CreatedAt
	}
	reviewedAt := now

	c.Streak = streak
	c.Difficulty = s.clampDifficulty(difficulty)
	c.NextReviewAt = base.Add(s.Interval(streak))
	c.ReviewCount++
	c.LastReviewedAt = &reviewedAt
	return c, nil
}

// Preview returns the card that each rating would produce at now.
func (s *Scheduler) Preview(card domain.VocabularyCard, now time.Time) map[domain.Rating]domain.VocabularyCard {
	out := make(map[domain.Rating]domain.VocabularyCard, len(domain.Ratings))
	for _, r := range domain.Ratings {
		c, _ := s.Review(card, r, now)
		out[r] = c
	}
	return out
}

// Interval returns the ladder interval for streak. Out-of-range streaks are
// clamped to the ladder.
func (s *Scheduler) Interval(streak int) time.Duration {
	return time.Duration(s.params.Ladder[s.clampStreak(streak)]) * day
}

// IsMastered reports whether difficulty is at or below threshold.
func IsMastered(card domain.VocabularyCard, threshold int) bool {
	return card.Difficulty <= threshold
}

func (s *Scheduler) clampStreak(streak int) int {
	return max(0, min(streak, len(s.params.Ladder)-1))
}

func (s *Scheduler) clampDifficulty(d int) int {
	return max(s.params.MinDifficulty, min(d, s.params.MaxDifficulty))
}

// DaysUntil converts the time remaining until t into whole days, rounding up
// so a card is never reported due earlier than it is. Past times yield 0 or
// a negative number of whole days overdue.
func DaysUntil(t, now time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return -int(math.Floor(float64(-d) / float64(day)))
	}
	return int(math.Ceil(float64(d) / float64(day)))
}
