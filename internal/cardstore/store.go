// Package cardstore keeps each learner's vocabulary cards and is the only
// writer of their scheduling state.
package cardstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/knol"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

// Manager hands out learner-scoped stores over a shared repository.
// Mutations for one learner are serialized; different learners never
// contend on the same lock.
type Manager struct {
	repo  Repository
	sched *srs.Scheduler
	log   *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewManager creates a Manager. A nil logger falls back to slog.Default.
func NewManager(repo Repository, sched *srs.Scheduler, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		repo:  repo,
		sched: sched,
		log:   log.With("component", "cardstore"),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// Scheduler returns the scheduler used to transition card state.
func (m *Manager) Scheduler() *srs.Scheduler {
	return m.sched
}

// ForLearner returns the store scoped to one learner.
func (m *Manager) ForLearner(learnerID uuid.UUID) *Store {
	return &Store{
		m:         m,
		learnerID: learnerID,
		log:       m.log.With("learner_id", learnerID.String()),
	}
}

func (m *Manager) lock(learnerID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[learnerID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[learnerID] = l
	}
	return l
}

// Store is the card store of a single learner.
type Store struct {
	m         *Manager
	learnerID uuid.UUID
	log       *slog.Logger
}

// LearnerID returns the learner the store is scoped to.
func (s *Store) LearnerID() uuid.UUID {
	return s.learnerID
}

// ListCards lazily yields every card of the learner ordered by id. Each
// range over the sequence reads the repository again.
func (s *Store) ListCards(ctx context.Context) iter.Seq2[domain.VocabularyCard, error] {
	return s.m.repo.Cards(ctx, s.learnerID)
}

// GetCard returns one card or a *domain.NotFoundError.
func (s *Store) GetCard(ctx context.Context, cardID string) (domain.VocabularyCard, error) {
	return s.m.repo.GetCard(ctx, s.learnerID, cardID)
}

// GetDue returns every card with NextReviewAt <= now, ordered by id. An
// empty result means there is nothing to review.
func (s *Store) GetDue(ctx context.Context, now time.Time) ([]domain.VocabularyCard, error) {
	due, err := s.m.repo.DueCards(ctx, s.learnerID, now)
	if err != nil {
		return nil, fmt.Errorf("get due: %w", err)
	}
	if due == nil {
		due = []domain.VocabularyCard{}
	}
	return due, nil
}

// RecordOutcome applies rating to the card at now, persists the new state
// and appends a review outcome. No other card is touched.
func (s *Store) RecordOutcome(ctx context.Context, cardID string, rating domain.Rating, now time.Time) (domain.VocabularyCard, error) {
	if !rating.IsValid() {
		return domain.VocabularyCard{}, &domain.InvalidRatingError{Value: string(rating)}
	}

	l := s.m.lock(s.learnerID)
	l.Lock()
	defer l.Unlock()

	card, err := s.m.repo.GetCard(ctx, s.learnerID, cardID)
	if err != nil {
		return domain.VocabularyCard{}, err
	}

	updated, err := s.m.sched.Review(card, rating, now)
	if err != nil {
		return domain.VocabularyCard{}, err
	}

	outcome := domain.ReviewOutcome{
		ID:             uuid.New(),
		LearnerID:      s.learnerID,
		CardID:         cardID,
		Rating:         rating,
		ReviewedAt:     now,
		PrevDifficulty: card.Difficulty,
		PrevStreak:     card.Streak,
		NextReviewAt:   updated.NextReviewAt,
	}
	if err := s.m.repo.SaveReview(ctx, updated, outcome); err != nil {
		return domain.VocabularyCard{}, fmt.Errorf("record outcome: %w", err)
	}

	s.log.Debug("recorded review",
		"card_id", cardID,
		"rating", rating,
		"streak", updated.Streak,
		"difficulty", updated.Difficulty,
		"next_review_at", updated.NextReviewAt,
	)
	return updated, nil
}

// Introduce creates a card for content first encountered at now. The card id
// is the content hash, so introducing the same word again returns the
// existing card unchanged with created == false.
func (s *Store) Introduce(ctx context.Context, content domain.CardContent, now time.Time) (card domain.VocabularyCard, created bool, err error) {
	if err := content.Validate(); err != nil {
		return domain.VocabularyCard{}, false, err
	}
	id := knol.Hash(content)

	l := s.m.lock(s.learnerID)
	l.Lock()
	defer l.Unlock()

	existing, err := s.m.repo.GetCard(ctx, s.learnerID, id)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.VocabularyCard{}, false, fmt.Errorf("introduce: %w", err)
	}

	card = s.m.sched.NewCard(id, content, now)
	card.LearnerID = s.learnerID
	if err := s.m.repo.InsertCard(ctx, card); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Written by another process sharing the database.
			existing, gerr := s.m.repo.GetCard(ctx, s.learnerID, id)
			if gerr != nil {
				return domain.VocabularyCard{}, false, fmt.Errorf("introduce: %w", gerr)
			}
			return existing, false, nil
		}
		return domain.VocabularyCard{}, false, fmt.Errorf("introduce: %w", err)
	}

	s.log.Debug("introduced card", "card_id", id, "headword", content.Headword)
	return card, true, nil
}

// Outcomes returns the learner's review history since the given time.
func (s *Store) Outcomes(ctx context.Context, since time.Time) ([]domain.ReviewOutcome, error) {
	return s.m.repo.Outcomes(ctx, s.learnerID, since)
}
