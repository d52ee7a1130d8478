package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

var cardColumns = []string{
	"learner_id", "id", "headword", "pronunciation", "definition", "example", "level",
	"next_review_at", "review_count", "difficulty", "streak", "last_reviewed_at",
	"source_id", "created_at",
}

// cardRow is the persisted form of a domain.VocabularyCard.
type cardRow struct {
	LearnerID      string        `db:"learner_id"`
	ID             string        `db:"id"`
	Headword       string        `db:"headword"`
	Pronunciation  string        `db:"pronunciation"`
	Definition     string        `db:"definition"`
	Example        string        `db:"example"`
	Level          string        `db:"level"`
	NextReviewAt   int64         `db:"next_review_at"`
	ReviewCount    int           `db:"review_count"`
	Difficulty     int           `db:"difficulty"`
	Streak         int           `db:"streak"`
	LastReviewedAt sql.NullInt64 `db:"last_reviewed_at"`
	SourceID       sql.NullInt64 `db:"source_id"`
	CreatedAt      int64         `db:"created_at"`
}

func newCardRow(c domain.VocabularyCard) cardRow {
	r := cardRow{
		LearnerID:      c.LearnerID.String(),
		ID:             c.ID,
		Headword:       c.Headword,
		Pronunciation:  c.Pronunciation,
		Definition:     c.Definition,
		Example:        c.Example,
		Level:          string(c.Level),
		NextReviewAt:   toNanos(c.NextReviewAt),
		ReviewCount:    c.ReviewCount,
		Difficulty:     c.Difficulty,
		Streak:         c.Streak,
		LastReviewedAt: toNullNanos(c.LastReviewedAt),
		CreatedAt:      toNanos(c.CreatedAt),
	}
	if c.SourceID != nil {
		r.SourceID = sql.NullInt64{Int64: *c.SourceID, Valid: true}
	}
	return r
}

func (r cardRow) toDomain() (domain.VocabularyCard, error) {
	learnerID, err := uuid.Parse(r.LearnerID)
	if err != nil {
		return domain.VocabularyCard{}, fmt.Errorf("parse learner id %q: %w", r.LearnerID, err)
	}
	c := domain.VocabularyCard{
		ID:        r.ID,
		LearnerID: learnerID,
		CardContent: domain.CardContent{
			Headword:      r.Headword,
			Pronunciation: r.Pronunciation,
			Definition:    r.Definition,
			Example:       r.Example,
			Level:         domain.Level(r.Level),
		},
		NextReviewAt:   fromNanos(r.NextReviewAt),
		ReviewCount:    r.ReviewCount,
		Difficulty:     r.Difficulty,
		Streak:         r.Streak,
		LastReviewedAt: fromNullNanos(r.LastReviewedAt),
		CreatedAt:      fromNanos(r.CreatedAt),
	}
	if r.SourceID.Valid {
		id := r.SourceID.Int64
		c.SourceID = &id
	}
	return c, nil
}

// InsertCard inserts a new card. It returns domain.ErrAlreadyExists if the
// learner already has a card with the same id.
func (db *DB) InsertCard(ctx context.Context, card domain.VocabularyCard) error {
	query, args, err := sq.Insert("cards").
		SetMap(cardRowMap(newCardRow(card))).
		Suffix("ON CONFLICT (learner_id, id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert card: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", card.ID, domain.ErrAlreadyExists)
	}
	return nil
}

func cardRowMap(r cardRow) map[string]any {
	return map[string]any{
		"learner_id":       r.LearnerID,
		"id":               r.ID,
		"headword":         r.Headword,
		"pronunciation":    r.Pronunciation,
		"definition":       r.Definition,
		"example":          r.Example,
		"level":            r.Level,
		"next_review_at":   r.NextReviewAt,
		"review_count":     r.ReviewCount,
		"difficulty":       r.Difficulty,
		"streak":           r.Streak,
		"last_reviewed_at": r.LastReviewedAt,
		"source_id":        r.SourceID,
		"created_at":       r.CreatedAt,
	}
}

// GetCard returns a learner's card, or a *domain.NotFoundError.
func (db *DB) GetCard(ctx context.Context, learnerID uuid.UUID, cardID string) (domain.VocabularyCard, error) {
	query, args, err := sq.Select(cardColumns...).From("cards").
		Where(sq.Eq{"learner_id": learnerID.String(), "id": cardID}).
		ToSql()
	if err != nil {
		return domain.VocabularyCard{}, fmt.Errorf("build get card: %w", err)
	}
	var r cardRow
	if err := db.conn.GetContext(ctx, &r, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VocabularyCard{}, domain.NewCardNotFound(cardID)
		}
		return domain.VocabularyCard{}, fmt.Errorf("failed to find card %s: %w", cardID, err)
	}
	return r.toDomain()
}

// Cards yields every card of the learner ordered by id. Each range reads a
// fresh snapshot and releases the connection before the first yield, so the
// caller may use the database inside the loop.
func (db *DB) Cards(ctx context.Context, learnerID uuid.UUID) iter.Seq2[domain.VocabularyCard, error] {
	return func(yield func(domain.VocabularyCard, error) bool) {
		var rows []cardRow
		err := db.selectAll(ctx, &rows, sq.Select(cardColumns...).From("cards").
			Where(sq.Eq{"learner_id": learnerID.String()}).
			OrderBy("id"))
		if err != nil {
			yield(domain.VocabularyCard{}, fmt.Errorf("failed to list cards: %w", err))
			return
		}
		for _, r := range rows {
			c, err := r.toDomain()
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

// DueCards returns the learner's cards with next_review_at <= now, ordered
// by id.
func (db *DB) DueCards(ctx context.Context, learnerID uuid.UUID, now time.Time) ([]domain.VocabularyCard, error) {
	var rows []cardRow
	err := db.selectAll(ctx, &rows, sq.Select(cardColumns...).From("cards").
		Where(sq.Eq{"learner_id": learnerID.String()}).
		Where(sq.LtOrEq{"next_review_at": toNanos(now)}).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	return cardsFromRows(rows)
}

// CardIDsBySource returns the ids of the learner's cards imported from a source.
func (db *DB) CardIDsBySource(ctx context.Context, learnerID uuid.UUID, sourceID int64) ([]string, error) {
	var ids []string
	err := db.selectAll(ctx, &ids, sq.Select("id").From("cards").
		Where(sq.Eq{"learner_id": learnerID.String(), "source_id": sourceID}).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	return ids, nil
}

// SaveReview updates the card's scheduling state and appends the outcome in
// one transaction.
func (db *DB) SaveReview(ctx context.Context, card domain.VocabularyCard, outcome domain.ReviewOutcome) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		r := newCardRow(card)
		query, args, err := sq.Update("cards").
			Set("next_review_at", r.NextReviewAt).
			Set("review_count", r.ReviewCount).
			Set("difficulty", r.Difficulty).
			Set("streak", r.Streak).
			Set("last_reviewed_at", r.LastReviewedAt).
			Where(sq.Eq{"learner_id": r.LearnerID, "id": r.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update card: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update card state for %s: %w", card.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to update card state for %s: %w", card.ID, err)
		} else if n == 0 {
			return domain.NewCardNotFound(card.ID)
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO review_outcomes (id, learner_id, card_id, rating, reviewed_at, prev_difficulty, prev_streak, next_review_at)
			VALUES (:id, :learner_id, :card_id, :rating, :reviewed_at, :prev_difficulty, :prev_streak, :next_review_at)
		`, newOutcomeRow(outcome))
		if err != nil {
			return fmt.Errorf("failed to append review outcome for %s: %w", card.ID, err)
		}
		return nil
	})
}

func cardsFromRows(rows []cardRow) ([]domain.VocabularyCard, error) {
	cards := make([]domain.VocabularyCard, 0, len(rows))
	for _, r := range rows {
		c, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

type outcomeRow struct {
	ID             string `db:"id"`
	LearnerID      string `db:"learner_id"`
	CardID         string `db:"card_id"`
	Rating         string `db:"rating"`
	ReviewedAt     int64  `db:"reviewed_at"`
	PrevDifficulty int    `db:"prev_difficulty"`
	PrevStreak     int    `db:"prev_streak"`
	NextReviewAt   int64  `db:"next_review_at"`
}

func newOutcomeRow(o domain.ReviewOutcome) outcomeRow {
	return outcomeRow{
		ID:             o.ID.String(),
		LearnerID:      o.LearnerID.String(),
		CardID:         o.CardID,
		Rating:         string(o.Rating),
		ReviewedAt:     toNanos(o.ReviewedAt),
		PrevDifficulty: o.PrevDifficulty,
		PrevStreak:     o.PrevStreak,
		NextReviewAt:   toNanos(o.NextReviewAt),
	}
}

// Outcomes returns the learner's review outcomes recorded at or after since,
// oldest first.
func (db *DB) Outcomes(ctx context.Context, learnerID uuid.UUID, since time.Time) ([]domain.ReviewOutcome, error) {
	b := sq.Select(
		"id", "learner_id", "card_id", "rating", "reviewed_at", "prev_difficulty", "prev_streak", "next_review_at",
	).From("review_outcomes").
		Where(sq.Eq{"learner_id": learnerID.String()}).
		OrderBy("reviewed_at", "id")
	if !since.IsZero() {
		b = b.Where(sq.GtOrEq{"reviewed_at": toNanos(since)})
	}

	var rows []outcomeRow
	err := db.selectAll(ctx, &rows, b)
	if err != nil {
		return nil, fmt.Errorf("failed to get review outcomes: %w", err)
	}

	out := make([]domain.ReviewOutcome, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("parse outcome id %q: %w", r.ID, err)
		}
		out = append(out, domain.ReviewOutcome{
			ID:             id,
			LearnerID:      learnerID,
			CardID:         r.CardID,
			Rating:         domain.Rating(r.Rating),
			ReviewedAt:     fromNanos(r.ReviewedAt),
			PrevDifficulty: r.PrevDifficulty,
			PrevStreak:     r.PrevStreak,
			NextReviewAt:   fromNanos(r.NextReviewAt),
		})
	}
	return out, nil
}
