package cardstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/knol"
	"github.com/conorfennell/vocabdeck/internal/srs"
	"github.com/conorfennell/vocabdeck/internal/storage"
)

var (
	_ Repository = (*Memory)(nil)
	_ Repository = (*storage.DB)(nil)
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func content(word string) domain.CardContent {
	return domain.CardContent{
		Headword:   word,
		Definition: "meaning of " + word,
		Level:      domain.LevelB1,
	}
}

func newManager(t *testing.T, repo Repository) *Manager {
	t.Helper()
	sched, err := srs.NewScheduler(srs.DefaultParams())
	require.NoError(t, err)
	return NewManager(repo, sched, nil)
}

// backends runs fn against the in-memory and the SQLite repository.
func backends(t *testing.T, fn func(t *testing.T, m *Manager)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, newManager(t, NewMemory()))
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "cards.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		fn(t, newManager(t, db))
	})
}

func TestIntroduce(t *testing.T) {
	backends(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		s := m.ForLearner(uuid.New())

		card, created, err := s.Introduce(ctx, content("apple"), t0)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, knol.Hash(content("apple")), card.ID)
		assert.Equal(t, s.LearnerID(), card.LearnerID)
		assert.Equal(t, 0, card.ReviewCount)
		assert.Equal(t, 3, card.Difficulty)
		assert.True(t, card.NextReviewAt.Equal(t0))

		_, err = s.RecordOutcome(ctx, card.ID, domain.Easy, t0)
		require.NoError(t, err)

		again, created, err := s.Introduce(ctx, content("apple"), t0.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 1, again.ReviewCount, "existing scheduling state is kept")
	})
}

func TestIntroduce_InvalidContent(t *testing.T) {
	m := newManager(t, NewMemory())

	_, _, err := m.ForLearner(uuid.New()).Introduce(context.Background(), domain.CardContent{Headword: "x", Level: "Z9"}, t0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetDue(t *testing.T) {
	backends(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		s := m.ForLearner(uuid.New())

		due, err := s.GetDue(ctx, t0)
		require.NoError(t, err)
		assert.NotNil(t, due)
		assert.Empty(t, due)

		for _, w := range []string{"cat", "dog", "eel"} {
			_, _, err := s.Introduce(ctx, content(w), t0)
			require.NoError(t, err)
		}
		dog := knol.Hash(content("dog"))
		_, err = s.RecordOutcome(ctx, dog, domain.Medium, t0)
		require.NoError(t, err)

		first, err := s.GetDue(ctx, t0.Add(time.Hour))
		require.NoError(t, err)
		second, err := s.GetDue(ctx, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, first, second)
		require.Len(t, first, 2)
		assert.Less(t, first[0].ID, first[1].ID)
		for _, c := range first {
			assert.NotEqual(t, dog, c.ID)
		}

		// Due again once the one-day rung has passed.
		later, err := s.GetDue(ctx, t0.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Len(t, later, 3)
	})
}

func TestRecordOutcome(t *testing.T) {
	backends(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		s := m.ForLearner(uuid.New())

		card, _, err := s.Introduce(ctx, content("tree"), t0)
		require.NoError(t, err)
		other, _, err := s.Introduce(ctx, content("leaf"), t0)
		require.NoError(t, err)

		now := t0.Add(time.Minute)
		updated, err := s.RecordOutcome(ctx, card.ID, domain.Easy, now)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Streak)
		assert.Equal(t, 2, updated.Difficulty)
		assert.True(t, updated.NextReviewAt.Equal(now.Add(72*time.Hour)))

		stored, err := s.GetCard(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, stored)

		untouched, err := s.GetCard(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, other, untouched)

		outcomes, err := s.Outcomes(ctx, time.Time{})
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.Equal(t, domain.Easy, outcomes[0].Rating)
		assert.Equal(t, 3, outcomes[0].PrevDifficulty)
		assert.True(t, outcomes[0].ReviewedAt.Equal(now))
	})
}

func TestRecordOutcome_Errors(t *testing.T) {
	backends(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		s := m.ForLearner(uuid.New())

		card, _, err := s.Introduce(ctx, content("sky"), t0)
		require.NoError(t, err)

		_, err = s.RecordOutcome(ctx, card.ID, domain.Rating("great"), t0)
		var ire *domain.InvalidRatingError
		require.ErrorAs(t, err, &ire)
		assert.Equal(t, "great", ire.Value)

		_, err = s.RecordOutcome(ctx, "missing", domain.Easy, t0)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		// Neither failure changed anything.
		stored, err := s.GetCard(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.ReviewCount)
		outcomes, err := s.Outcomes(ctx, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, outcomes)
	})
}

func TestLearnerIsolation(t *testing.T) {
	backends(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		alice := m.ForLearner(uuid.New())
		bob := m.ForLearner(uuid.New())

		card, _, err := alice.Introduce(ctx, content("moon"), t0)
		require.NoError(t, err)

		_, err = bob.RecordOutcome(ctx, card.ID, domain.Easy, t0)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		due, err := bob.GetDue(ctx, t0)
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestListCards(t *testing.T) {
	backends(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		s := m.ForLearner(uuid.New())

		for _, w := range []string{"a", "b", "c"} {
			_, _, err := s.Introduce(ctx, content(w), t0)
			require.NoError(t, err)
		}

		count := func() int {
			n := 0
			for _, err := range s.ListCards(ctx) {
				require.NoError(t, err)
				n++
			}
			return n
		}
		assert.Equal(t, 3, count())
		assert.Equal(t, 3, count(), "sequence is restartable")
	})
}

func TestRecordOutcome_WhileListing(t *testing.T) {
	backends(t, func(t *testing.T, m *Manager) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s := m.ForLearner(uuid.New())

		for _, w := range []string{"a", "b"} {
			_, _, err := s.Introduce(ctx, content(w), t0)
			require.NoError(t, err)
		}

		rated := 0
		for c, err := range s.ListCards(ctx) {
			require.NoError(t, err)
			_, err = s.RecordOutcome(ctx, c.ID, domain.Easy, t0)
			require.NoError(t, err)
			rated++
		}
		assert.Equal(t, 2, rated)

		due, err := s.GetDue(ctx, t0)
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestRecordOutcome_ConcurrentSameLearner(t *testing.T) {
	backends(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		learner := uuid.New()

		card, _, err := m.ForLearner(learner).Introduce(ctx, content("river"), t0)
		require.NoError(t, err)

		const n = 20
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := m.ForLearner(learner).RecordOutcome(ctx, card.ID, domain.Medium, t0.Add(time.Duration(i)*time.Second))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := m.ForLearner(learner).GetCard(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, n, stored.ReviewCount, "no lost updates")

		outcomes, err := m.ForLearner(learner).Outcomes(ctx, time.Time{})
		require.NoError(t, err)
		assert.Len(t, outcomes, n)
	})
}
