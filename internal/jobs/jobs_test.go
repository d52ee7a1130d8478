package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/vocabdeck/internal/domain"
	decksync "github.com/conorfennell/vocabdeck/internal/sync"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDue struct {
	id    uuid.UUID
	cards []domain.VocabularyCard
	err   error
}

func (f fakeDue) LearnerID() uuid.UUID { return f.id }

func (f fakeDue) GetDue(context.Context, time.Time) ([]domain.VocabularyCard, error) {
	return f.cards, f.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	counts []int
}

func (f *fakeNotifier) NotifyDue(_ context.Context, _ uuid.UUID, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, count)
	return nil
}

func (f *fakeNotifier) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.counts...)
}

type fakeSyncer struct {
	runs chan struct{}
}

func (f fakeSyncer) Run(context.Context) (decksync.Report, error) {
	select {
	case f.runs <- struct{}{}:
	default:
	}
	return decksync.Report{}, nil
}

func TestRemindDue(t *testing.T) {
	r := New(discard(), time.UTC)
	defer r.Stop()

	tests := []struct {
		name string
		src  fakeDue
		want []int
	}{
		{"notifies with count", fakeDue{id: uuid.New(), cards: make([]domain.VocabularyCard, 3)}, []int{3}},
		{"nothing due is silent", fakeDue{id: uuid.New()}, nil},
		{"store error is silent", fakeDue{id: uuid.New(), err: errors.New("db down")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{}
			r.remindDue(tt.src, n)
			assert.Equal(t, tt.want, n.calls())
		})
	}
}

func TestRunner_SchedulesJobs(t *testing.T) {
	r := New(discard(), time.UTC)

	syncer := fakeSyncer{runs: make(chan struct{}, 1)}
	n := &fakeNotifier{}
	require.NoError(t, r.AddSync(time.Hour, syncer))
	require.NoError(t, r.AddDueReminder(time.Hour, fakeDue{id: uuid.New(), cards: make([]domain.VocabularyCard, 2)}, n))

	r.Start()
	defer r.Stop()

	select {
	case <-syncer.runs:
	case <-time.After(5 * time.Second):
		t.Fatal("sync job did not run")
	}
	assert.Eventually(t, func() bool { return len(n.calls()) == 1 }, 5*time.Second, 10*time.Millisecond)
}
