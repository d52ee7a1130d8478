// Package jobs runs the periodic background work of the daemon: deck sync
// and due-card reminders.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/domain"
	decksync "github.com/conorfennell/vocabdeck/internal/sync"
)

// Syncer reconciles deck sources. *sync.Syncer implements it.
type Syncer interface {
	Run(ctx context.Context) (decksync.Report, error)
}

// DueSource reports a learner's due cards. *cardstore.Store implements it.
type DueSource interface {
	LearnerID() uuid.UUID
	GetDue(ctx context.Context, now time.Time) ([]domain.VocabularyCard, error)
}

// Notifier delivers due reminders.
type Notifier interface {
	NotifyDue(ctx context.Context, learnerID uuid.UUID, count int) error
}

// LogNotifier reports due cards through the logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) NotifyDue(ctx context.Context, learnerID uuid.UUID, count int) error {
	n.Log.InfoContext(ctx, "cards due for review", "learner_id", learnerID.String(), "count", count)
	return nil
}

// Runner schedules jobs on a gocron scheduler.
type Runner struct {
	scheduler *gocron.Scheduler
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	now       func() time.Time
}

// New creates a Runner whose jobs run in loc.
func New(log *slog.Logger, loc *time.Location) *Runner {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		scheduler: s,
		log:       log.With("component", "jobs"),
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}
}

// AddSync runs s every interval, starting immediately.
func (r *Runner) AddSync(interval time.Duration, s Syncer) error {
	if _, err := r.scheduler.Every(interval).Do(r.runSync, s); err != nil {
		return fmt.Errorf("schedule sync: %w", err)
	}
	return nil
}

// AddDueReminder checks src every interval and notifies when cards are due.
func (r *Runner) AddDueReminder(interval time.Duration, src DueSource, n Notifier) error {
	if _, err := r.scheduler.Every(interval).Do(r.remindDue, src, n); err != nil {
		return fmt.Errorf("schedule due reminder: %w", err)
	}
	return nil
}

// Start begins running all scheduled jobs without blocking.
func (r *Runner) Start() {
	r.scheduler.StartAsync()
}

// Stop cancels running jobs and stops the scheduler.
func (r *Runner) Stop() {
	r.cancel()
	r.scheduler.Stop()
}

func (r *Runner) runSync(s Syncer) {
	rep, err := s.Run(r.ctx)
	if err != nil {
		r.log.Error("scheduled sync failed", "error", err)
		return
	}
	r.log.Debug("scheduled sync finished", "introduced", rep.Introduced, "errors", rep.Errors)
}

func (r *Runner) remindDue(src DueSource, n Notifier) {
	due, err := src.GetDue(r.ctx, r.now())
	if err != nil {
		r.log.Error("failed to get due cards", "learner_id", src.LearnerID().String(), "error", err)
		return
	}
	if len(due) == 0 {
		return
	}
	if err := n.NotifyDue(r.ctx, src.LearnerID(), len(due)); err != nil {
		r.log.Error("failed to send due reminder", "learner_id", src.LearnerID().String(), "error", err)
	}
}
