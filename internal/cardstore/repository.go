package cardstore

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// Repository is the persistence backend of the card store. *storage.DB and
// *Memory implement it.
type Repository interface {
	// InsertCard returns domain.ErrAlreadyExists if the learner already has
	// a card with the same id.
	InsertCard(ctx context.Context, card domain.VocabularyCard) error
	GetCard(ctx context.Context, learnerID uuid.UUID, cardID string) (domain.VocabularyCard, error)
	Cards(ctx context.Context, learnerID uuid.UUID) iter.Seq2[domain.VocabularyCard, error]
	DueCards(ctx context.Context, learnerID uuid.UUID, now time.Time) ([]domain.VocabularyCard, error)
	// SaveReview stores the card's new state and appends the outcome
	// atomically.
	SaveReview(ctx context.Context, card domain.VocabularyCard, outcome domain.ReviewOutcome) error
	Outcomes(ctx context.Context, learnerID uuid.UUID, since time.Time) ([]domain.ReviewOutcome, error)
}
