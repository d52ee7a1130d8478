// Package session walks a learner through one snapshot of due cards.
package session

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// ErrExhausted is returned by Advance when every card has been judged.
var ErrExhausted = errors.New("session: no current card")

// Recorder persists a judgment. *cardstore.Store implements it.
type Recorder interface {
	RecordOutcome(ctx context.Context, cardID string, rating domain.Rating, now time.Time) (domain.VocabularyCard, error)
}

// RatingCounts tallies the judgments made in a session.
type RatingCounts struct {
	Easy   int
	Medium int
	Hard   int
}

// Session is a single pass over a fixed snapshot of cards. A card judged in
// the session is never shown again in it, even if the judgment made it due.
type Session struct {
	rec    Recorder
	cards  []domain.VocabularyCard
	cursor int
	judged map[string]bool
	counts RatingCounts
}

// Start orders a copy of due and returns a new session over it. The hardest
// cards come first, then the most overdue, with the card id as tie-break, so
// the same snapshot always yields the same order.
func Start(rec Recorder, due []domain.VocabularyCard) *Session {
	cards := slices.Clone(due)
	slices.SortStableFunc(cards, func(a, b domain.VocabularyCard) int {
		if c := cmp.Compare(b.Difficulty, a.Difficulty); c != 0 {
			return c
		}
		if c := a.NextReviewAt.Compare(b.NextReviewAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return &Session{
		rec:    rec,
		cards:  cards,
		judged: make(map[string]bool, len(cards)),
	}
}

// Current returns the card awaiting a judgment, or false once exhausted.
func (s *Session) Current() (domain.VocabularyCard, bool) {
	if s.Done() {
		return domain.VocabularyCard{}, false
	}
	return s.cards[s.cursor], true
}

// Advance records rating for the current card and moves to the next one.
// It returns the card as updated by the recorder. On error the cursor stays
// where it was.
func (s *Session) Advance(ctx context.Context, rating domain.Rating, now time.Time) (domain.VocabularyCard, error) {
	cur, ok := s.Current()
	if !ok {
		return domain.VocabularyCard{}, ErrExhausted
	}
	if !rating.IsValid() {
		return domain.VocabularyCard{}, &domain.InvalidRatingError{Value: string(rating)}
	}

	updated, err := s.rec.RecordOutcome(ctx, cur.ID, rating, now)
	if err != nil {
		return domain.VocabularyCard{}, err
	}

	s.judged[cur.ID] = true
	switch rating {
	case domain.Easy:
		s.counts.Easy++
	case domain.Medium:
		s.counts.Medium++
	case domain.Hard:
		s.counts.Hard++
	}
	s.cursor++
	return updated, nil
}

// Progress reports how many cards have been judged out of the snapshot.
func (s *Session) Progress() (completed, total int) {
	return s.cursor, len(s.cards)
}

// Done reports whether every card in the snapshot has been judged.
func (s *Session) Done() bool {
	return s.cursor >= len(s.cards)
}

// Counts returns the per-rating tally so far.
func (s *Session) Counts() RatingCounts {
	return s.counts
}

// Judged reports whether the card was judged in this session.
func (s *Session) Judged(cardID string) bool {
	return s.judged[cardID]
}
