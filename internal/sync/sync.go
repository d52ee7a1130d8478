// Package sync imports vocabulary decks from registered sources into a
// learner's card store.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/conorfennell/vocabdeck/internal/cardstore"
	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/gitsource"
	"github.com/conorfennell/vocabdeck/internal/parser"
	"github.com/conorfennell/vocabdeck/internal/storage"
)

// Report summarizes one reconciliation.
type Report struct {
	Sources    int
	Parsed     int
	Introduced int
	Invalid    int
	Retired    int
	Errors     int
}

func (r *Report) add(o Report) {
	r.Sources += o.Sources
	r.Parsed += o.Parsed
	r.Introduced += o.Introduced
	r.Invalid += o.Invalid
	r.Retired += o.Retired
	r.Errors += o.Errors
}

// Syncer reconciles deck sources with one learner's cards.
type Syncer struct {
	db       *storage.DB
	store    *cardstore.Store
	reposDir string
	log      *slog.Logger
	now      func() time.Time
}

// New creates a Syncer. Git sources are checked out under reposDir.
func New(db *storage.DB, store *cardstore.Store, reposDir string, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		db:       db,
		store:    store,
		reposDir: reposDir,
		log:      log.With("component", "sync", "learner_id", store.LearnerID().String()),
		now:      time.Now,
	}
}

// AddSource registers a local directory or a git URL as a deck source.
func (s *Syncer) AddSource(ctx context.Context, path string) (domain.Source, error) {
	typ := domain.SourceLocal
	if gitsource.IsRemote(path) {
		typ = domain.SourceGit
		if _, err := gitsource.LocalPath(s.reposDir, path); err != nil {
			return domain.Source{}, fmt.Errorf("add source: %w", err)
		}
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return domain.Source{}, fmt.Errorf("add source: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return domain.Source{}, fmt.Errorf("add source: %w", err)
		}
		if !info.IsDir() {
			return domain.Source{}, fmt.Errorf("add source: %s is not a directory", abs)
		}
		path = abs
	}

	id, err := s.db.InsertSource(ctx, path, typ)
	if err != nil {
		return domain.Source{}, fmt.Errorf("add source: %w", err)
	}
	s.log.Info("source added", "source_id", id, "type", typ, "path", path)
	return domain.Source{ID: id, Path: path, Type: typ}, nil
}

// Run reconciles every registered source. A source that fails is logged and
// counted; the others still run.
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	s.log.Info("starting sync for all sources")
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("sync: %w", err)
	}

	var total Report
	if len(sources) == 0 {
		s.log.Info("no sources configured, add one with the add-source command")
		return total, nil
	}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rep, err := s.syncSource(ctx, source)
		total.add(rep)
		total.Sources++
		if err != nil {
			total.Errors++
			s.log.Error("failed to sync source", "source_id", source.ID, "path", source.Path, "error", err)
		}
	}

	s.log.Info("sync complete",
		"sources", total.Sources,
		"parsed", total.Parsed,
		"introduced", total.Introduced,
		"invalid", total.Invalid,
		"retired", total.Retired,
		"errors", total.Errors,
	)
	return total, nil
}

func (s *Syncer) syncSource(ctx context.Context, source domain.Source) (Report, error) {
	s.log.Info("syncing source", "source_id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	if source.Type == domain.SourceGit {
		localPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			return Report{}, err
		}
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return Report{}, fmt.Errorf("create repos directory: %w", err)
		}
		if err := gitsource.Sync(ctx, s.log, source.Path, localPath); err != nil {
			return Report{}, err
		}
		dir = localPath
	}

	return s.reconcile(ctx, source, dir)
}

// reconcile introduces every valid card found under dir. Cards previously
// imported from the source but no longer present are retired: they keep
// their history and scheduling and are only reported.
func (s *Syncer) reconcile(ctx context.Context, source domain.Source, dir string) (Report, error) {
	var rep Report
	now := s.now()
	found := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.IsDeckFile(path) {
			return nil
		}

		contents, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			rep.Errors++
			s.log.Warn("failed to parse deck", "path", path, "error", parseErr)
			return nil
		}

		for _, content := range contents {
			rep.Parsed++
			card, created, err := s.store.Introduce(ctx, content, now)
			if err != nil {
				if errors.Is(err, domain.ErrValidation) {
					rep.Invalid++
					s.log.Warn("skipping invalid card", "path", path, "headword", content.Headword, "error", err)
					continue
				}
				return err
			}
			found[card.ID] = true
			if created {
				rep.Introduced++
				s.log.Info("new card introduced", "card_id", card.ID, "headword", content.Headword)
			}
			if err := s.db.SetCardSource(ctx, s.store.LearnerID(), card.ID, source.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if walkErr != nil {
		return rep, fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	known, err := s.db.CardIDsBySource(ctx, s.store.LearnerID(), source.ID)
	if err != nil {
		return rep, err
	}
	for _, id := range known {
		if !found[id] {
			rep.Retired++
			s.log.Info("orphaned card retired", "card_id", id, "source_id", source.ID)
		}
	}

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID, now); err != nil {
		s.log.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	s.log.Info("reconciliation complete",
		"path", dir,
		"parsed", rep.Parsed,
		"introduced", rep.Introduced,
		"invalid", rep.Invalid,
		"retired", rep.Retired,
	)
	return rep, nil
}
