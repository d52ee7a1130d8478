package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func mustScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(DefaultParams())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func newCard(s *Scheduler) domain.VocabularyCard {
	return s.NewCard("c1", domain.CardContent{Headword: "hello", Definition: "greeting", Level: domain.LevelA1}, t0)
}

func TestNewSchedulerValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"empty ladder", func(p *Params) { p.Ladder = nil }},
		{"non-positive entry", func(p *Params) { p.Ladder = []int{0, 3} }},
		{"not increasing", func(p *Params) { p.Ladder = []int{1, 3, 3} }},
		{"min above max", func(p *Params) { p.MinDifficulty = 6 }},
		{"initial out of bounds", func(p *Params) { p.InitialDifficulty = 9 }},
		{"zero step", func(p *Params) { p.DifficultyStep = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			if _, err := NewScheduler(p); err == nil {
				t.Errorf("expected NewScheduler to reject %s", tc.name)
			}
		})
	}
}

func TestNewCardIsDueImmediately(t *testing.T) {
	s := mustScheduler(t)
	c := newCard(s)
	if !c.IsDue(t0) {
		t.Error("a new card should be due at creation time")
	}
	if c.ReviewCount != 0 || c.Difficulty != 3 || c.Streak != 0 {
		t.Errorf("unexpected initial state: %+v", c)
	}
}

func TestReviewScenario(t *testing.T) {
	s := mustScheduler(t)
	card := newCard(s)

	t.Run("easy advances the ladder", func(t *testing.T) {
		c, err := s.Review(card, domain.Easy, t0)
		if err != nil {
			t.Fatal(err)
		}
		if want := t0.Add(3 * day); !c.NextReviewAt.Equal(want) {
			t.Errorf("NextReviewAt = %v, want %v", c.NextReviewAt, want)
		}
		if c.ReviewCount != 1 || c.Difficulty != 2 {
			t.Errorf("ReviewCount = %d, Difficulty = %d; want 1, 2", c.ReviewCount, c.Difficulty)
		}
		card = c
	})

	t1 := t0.Add(3 * day)
	t.Run("second easy", func(t *testing.T) {
		c, err := s.Review(card, domain.Easy, t1)
		if err != nil {
			t.Fatal(err)
		}
		if want := t1.Add(7 * day); !c.NextReviewAt.Equal(want) {
			t.Errorf("NextReviewAt = %v, want %v", c.NextReviewAt, want)
		}
		if c.ReviewCount != 2 || c.Difficulty != 1 {
			t.Errorf("ReviewCount = %d, Difficulty = %d; want 2, 1", c.ReviewCount, c.Difficulty)
		}
		card = c
	})

	t2 := t0.Add(10 * day)
	t.Run("hard resets from now", func(t *testing.T) {
		c, err := s.Review(card, domain.Hard, t2)
		if err != nil {
			t.Fatal(err)
		}
		if want := t2.Add(1 * day); !c.NextReviewAt.Equal(want) {
			t.Errorf("NextReviewAt = %v, want %v", c.NextReviewAt, want)
		}
		if c.Streak != 0 || c.ReviewCount != 3 || c.Difficulty != 2 {
			t.Errorf("Streak = %d, ReviewCount = %d, Difficulty = %d; want 0, 3, 2", c.Streak, c.ReviewCount, c.Difficulty)
		}
	})

	early := t0.Add(9 * day)
	t.Run("hard ahead of schedule", func(t *testing.T) {
		if card.IsDue(early) {
			t.Fatal("card should not be due yet")
		}
		c, err := s.Review(card, domain.Hard, early)
		if err != nil {
			t.Fatal(err)
		}
		if want := early.Add(1 * day); !c.NextReviewAt.Equal(want) {
			t.Errorf("NextReviewAt = %v, want %v", c.NextReviewAt, want)
		}
		if c.Streak != 0 || c.ReviewCount != 3 || c.Difficulty != 2 {
			t.Errorf("Streak = %d, ReviewCount = %d, Difficulty = %d; want 0, 3, 2", c.Streak, c.ReviewCount, c.Difficulty)
		}
	})
}

func TestReviewMediumKeepsRung(t *testing.T) {
	s := mustScheduler(t)
	card := newCard(s)
	card.Streak = 2
	card.Difficulty = 4

	c, err := s.Review(card, domain.Medium, t0)
	if err != nil {
		t.Fatal(err)
	}
	if c.Streak != 2 || c.Difficulty != 4 {
		t.Errorf("medium changed streak/difficulty: %d/%d", c.Streak, c.Difficulty)
	}
	if want := t0.Add(7 * day); !c.NextReviewAt.Equal(want) {
		t.Errorf("NextReviewAt = %v, want %v", c.NextReviewAt, want)
	}
}

func TestReviewDoesNotMutateInput(t *testing.T) {
	s := mustScheduler(t)
	card := newCard(s)
	before := card
	if _, err := s.Review(card, domain.Easy, t0); err != nil {
		t.Fatal(err)
	}
	if card.ReviewCount != before.ReviewCount || card.LastReviewedAt != nil {
		t.Error("Review mutated its input")
	}
}

func TestReviewInvalidRating(t *testing.T) {
	s := mustScheduler(t)
	_, err := s.Review(newCard(s), domain.Rating("again"), t0)
	if !errors.Is(err, domain.ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
}

func TestRepeatedHardConvergesToFirstRung(t *testing.T) {
	s := mustScheduler(t)
	card := newCard(s)
	card.Streak = 5
	now := t0
	for i := 0; i < 10; i++ {
		c, err := s.Review(card, domain.Hard, now)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.NextReviewAt.Sub(now); got != 1*day {
			t.Errorf("iteration %d: interval = %v, want 1 day", i, got)
		}
		if c.Difficulty > 5 {
			t.Errorf("iteration %d: difficulty %d exceeds max", i, c.Difficulty)
		}
		if c.ReviewCount != card.ReviewCount+1 || !c.NextReviewAt.After(now) {
			t.Errorf("iteration %d: invariants broken: %+v", i, c)
		}
		card = c
		now = now.Add(12 * time.Hour)
	}
	if card.Difficulty != 5 {
		t.Errorf("difficulty = %d, want clamped at 5", card.Difficulty)
	}
}

func TestRepeatedEasySaturates(t *testing.T) {
	s := mustScheduler(t)
	card := newCard(s)
	now := t0
	var prev time.Duration
	for i := 0; i < 10; i++ {
		c, err := s.Review(card, domain.Easy, now)
		if err != nil {
			t.Fatal(err)
		}
		interval := c.NextReviewAt.Sub(now)
		if interval < prev {
			t.Errorf("iteration %d: interval decreased from %v to %v", i, prev, interval)
		}
		if c.Difficulty < 1 {
			t.Errorf("iteration %d: difficulty %d below min", i, c.Difficulty)
		}
		prev = interval
		card = c
		now = c.NextReviewAt
	}
	if prev != 75*day {
		t.Errorf("final interval = %v, want 75 days", prev)
	}
	if card.Streak != 5 {
		t.Errorf("streak = %d, want clamped at 5", card.Streak)
	}
}

func TestReviewBeforeCreation(t *testing.T) {
	s := mustScheduler(t)
	card := newCard(s)
	earlier := t0.Add(-2 * time.Hour)
	c, err := s.Review(card, domain.Medium, earlier)
	if err != nil {
		t.Fatal(err)
	}
	if c.NextReviewAt.Before(card.CreatedAt) {
		t.Errorf("NextReviewAt %v precedes creation %v", c.NextReviewAt, card.CreatedAt)
	}
}

func TestPreview(t *testing.T) {
	s := mustScheduler(t)
	p := s.Preview(newCard(s), t0)
	if len(p) != 3 {
		t.Fatalf("expected 3 previews, got %d", len(p))
	}
	if !p[domain.Easy].NextReviewAt.Equal(t0.Add(3 * day)) {
		t.Errorf("easy preview = %v", p[domain.Easy].NextReviewAt)
	}
	if !p[domain.Hard].NextReviewAt.Equal(t0.Add(1 * day)) {
		t.Errorf("hard preview = %v", p[domain.Hard].NextReviewAt)
	}
}

func TestDaysUntil(t *testing.T) {
	testCases := []struct {
		name string
		d    time.Duration
		want int
	}{
		{"exactly now", 0, 0},
		{"one hour ahead rounds up", time.Hour, 1},
		{"exactly one day", day, 1},
		{"day and a minute", day + time.Minute, 2},
		{"half a day overdue", -12 * time.Hour, 0},
		{"day and a half overdue", -36 * time.Hour, -1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysUntil(t0.Add(tc.d), t0); got != tc.want {
				t.Errorf("DaysUntil = %d, want %d", got, tc.want)
			}
		})
	}
}
