package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

type sourceRow struct {
	ID          int64         `db:"id"`
	Path        string        `db:"path"`
	Type        string        `db:"type"`
	LastScanned sql.NullInt64 `db:"last_scanned"`
}

func (r sourceRow) toDomain() domain.Source {
	return domain.Source{
		ID:          r.ID,
		Path:        r.Path,
		Type:        domain.SourceType(r.Type),
		LastScanned: fromNullNanos(r.LastScanned),
	}
}

// InsertSource registers a deck source and returns its ID. A path that is
// already registered yields domain.ErrAlreadyExists.
func (db *DB) InsertSource(ctx context.Context, path string, typ domain.SourceType) (int64, error) {
	query, args, err := sq.Insert("sources").
		Columns("path", "type").
		Values(path, string(typ)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert source: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("source %s: %w", path, domain.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (domain.Source, error) {
	query, args, err := sq.Select("id", "path", "type", "last_scanned").
		From("sources").
		Where(sq.Eq{"path": path}).
		ToSql()
	if err != nil {
		return domain.Source{}, fmt.Errorf("build find source: %w", err)
	}
	var r sourceRow
	if err := db.conn.GetContext(ctx, &r, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Source{}, &domain.NotFoundError{Kind: "source", ID: path}
		}
		return domain.Source{}, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return r.toDomain(), nil
}

// GetAllSources retrieves all stored sources ordered by id.
func (db *DB) GetAllSources(ctx context.Context) ([]domain.Source, error) {
	var rows []sourceRow
	err := db.selectAll(ctx, &rows, sq.Select("id", "path", "type", "last_scanned").
		From("sources").
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	sources := make([]domain.Source, 0, len(rows))
	for _, r := range rows {
		sources = append(sources, r.toDomain())
	}
	return sources, nil
}

// UpdateSourceLastScanned sets the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error {
	query, args, err := sq.Update("sources").
		Set("last_scanned", toNanos(at)).
		Where(sq.Eq{"id": sourceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update source: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.NotFoundError{Kind: "source", ID: strconv.FormatInt(sourceID, 10)}
	}
	return nil
}

// SetCardSource records which source a card was imported from.
func (db *DB) SetCardSource(ctx context.Context, learnerID uuid.UUID, cardID string, sourceID int64) error {
	query, args, err := sq.Update("cards").
		Set("source_id", sourceID).
		Where(sq.Eq{"learner_id": learnerID.String(), "id": cardID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set card source: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set source for card %s: %w", cardID, err)
	}
	return nil
}
