// Package app wires the review engine's components from a configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/vocabdeck/internal/cardstore"
	"github.com/conorfennell/vocabdeck/internal/config"
	"github.com/conorfennell/vocabdeck/internal/jobs"
	"github.com/conorfennell/vocabdeck/internal/progress"
	"github.com/conorfennell/vocabdeck/internal/session"
	"github.com/conorfennell/vocabdeck/internal/srs"
	"github.com/conorfennell/vocabdeck/internal/storage"
	decksync "github.com/conorfennell/vocabdeck/internal/sync"
)

// App holds the wired dependencies for the configured learner.
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	DB       *storage.DB
	Cards    *cardstore.Manager
	Store    *cardstore.Store
	Sync     *decksync.Syncer
	Progress *progress.Aggregator

	loc *time.Location
	now func() time.Time
}

// New opens the database and wires every component.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	sched, err := srs.NewScheduler(cfg.SRSParams())
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	db, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	cards := cardstore.NewManager(db, sched, log)
	store := cards.ForLearner(cfg.LearnerID())

	log.Debug("app wired", "db", cfg.DB, "learner_id", cfg.Learner)
	return &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Cards:    cards,
		Store:    store,
		Sync:     decksync.New(db, store, cfg.ReposDir, log),
		Progress: progress.NewAggregator(store, cfg.MasteryThreshold),
		loc:      cfg.Location(),
		now:      time.Now,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// Now returns the current time in the configured time zone.
func (a *App) Now() time.Time {
	return a.now().In(a.loc)
}

// StartReview snapshots the due cards and starts a session over them.
func (a *App) StartReview(ctx context.Context) (*session.Session, error) {
	due, err := a.Store.GetDue(ctx, a.Now())
	if err != nil {
		return nil, err
	}
	return session.Start(a.Store, due), nil
}

// Summary computes the learner's progress overview.
func (a *App) Summary(ctx context.Context) (progress.Summary, error) {
	learner := a.Config.LearnerID()
	lessons, err := a.DB.ListLessons(ctx, learner)
	if err != nil {
		return progress.Summary{}, err
	}
	results, err := a.DB.ListQuizResults(ctx, learner)
	if err != nil {
		return progress.Summary{}, err
	}
	return a.Progress.Summary(ctx, a.Now(), lessons, results)
}

// RunDaemon runs periodic sync and due reminders until ctx is done.
func (a *App) RunDaemon(ctx context.Context) error {
	r := jobs.New(a.Log, a.loc)
	if err := r.AddSync(a.Config.SyncInterval, a.Sync); err != nil {
		return err
	}
	if err := r.AddDueReminder(a.Config.RemindInterval, a.Store, jobs.LogNotifier{Log: a.Log}); err != nil {
		return err
	}

	r.Start()
	a.Log.Info("daemon started",
		"sync_interval", a.Config.SyncInterval,
		"remind_interval", a.Config.RemindInterval,
	)
	<-ctx.Done()
	r.Stop()
	a.Log.Info("daemon stopped")
	return nil
}
