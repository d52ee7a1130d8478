package cardstore

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// Memory is an in-process Repository. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	cards    map[uuid.UUID]map[string]domain.VocabularyCard
	outcomes map[uuid.UUID][]domain.ReviewOutcome
}

// NewMemory returns an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{
		cards:    make(map[uuid.UUID]map[string]domain.VocabularyCard),
		outcomes: make(map[uuid.UUID][]domain.ReviewOutcome),
	}
}

func (m *Memory) InsertCard(_ context.Context, card domain.VocabularyCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID, ok := m.cards[card.LearnerID]
	if !ok {
		byID = make(map[string]domain.VocabularyCard)
		m.cards[card.LearnerID] = byID
	}
	if _, exists := byID[card.ID]; exists {
		return fmt.Errorf("card %s: %w", card.ID, domain.ErrAlreadyExists)
	}
	byID[card.ID] = cloneCard(card)
	return nil
}

func (m *Memory) GetCard(_ context.Context, learnerID uuid.UUID, cardID string) (domain.VocabularyCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cards[learnerID][cardID]
	if !ok {
		return domain.VocabularyCard{}, domain.NewCardNotFound(cardID)
	}
	return cloneCard(c), nil
}

// Cards yields a snapshot of the learner's cards taken when ranging starts.
func (m *Memory) Cards(ctx context.Context, learnerID uuid.UUID) iter.Seq2[domain.VocabularyCard, error] {
	return func(yield func(domain.VocabularyCard, error) bool) {
		for _, c := range m.sorted(learnerID, nil) {
			if err := ctx.Err(); err != nil {
				yield(domain.VocabularyCard{}, err)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (m *Memory) DueCards(_ context.Context, learnerID uuid.UUID, now time.Time) ([]domain.VocabularyCard, error) {
	return m.sorted(learnerID, func(c domain.VocabularyCard) bool { return c.IsDue(now) }), nil
}

func (m *Memory) SaveReview(_ context.Context, card domain.VocabularyCard, outcome domain.ReviewOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := m.cards[card.LearnerID]
	if _, ok := byID[card.ID]; !ok {
		return domain.NewCardNotFound(card.ID)
	}
	byID[card.ID] = cloneCard(card)
	m.outcomes[card.LearnerID] = append(m.outcomes[card.LearnerID], outcome)
	return nil
}

func (m *Memory) Outcomes(_ context.Context, learnerID uuid.UUID, since time.Time) ([]domain.ReviewOutcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ReviewOutcome, 0)
	for _, o := range m.outcomes[learnerID] {
		if !o.ReviewedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Memory) sorted(learnerID uuid.UUID, keep func(domain.VocabularyCard) bool) []domain.VocabularyCard {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.VocabularyCard, 0, len(m.cards[learnerID]))
	for _, c := range m.cards[learnerID] {
		if keep == nil || keep(c) {
			out = append(out, cloneCard(c))
		}
	}
	slices.SortFunc(out, func(a, b domain.VocabularyCard) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func cloneCard(c domain.VocabularyCard) domain.VocabularyCard {
	if c.LastReviewedAt != nil {
		t := *c.LastReviewedAt
		c.LastReviewedAt = &t
	}
	if c.SourceID != nil {
		id := *c.SourceID
		c.SourceID = &id
	}
	return c
}
