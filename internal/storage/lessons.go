package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

type lessonRow struct {
	ID              string        `db:"id"`
	Title           string        `db:"title"`
	Level           string        `db:"level"`
	Category        string        `db:"category"`
	DurationMinutes int           `db:"duration_minutes"`
	Progress        int           `db:"progress"`
	Completed       bool          `db:"completed"`
	CompletedAt     sql.NullInt64 `db:"completed_at"`
}

// UpsertLesson creates the lesson or updates its descriptive fields. Empty
// fields keep their stored value, and recorded progress is never touched.
func (db *DB) UpsertLesson(ctx context.Context, learnerID uuid.UUID, l domain.Lesson) error {
	query, args, err := sq.Insert("lessons").
		Columns("learner_id", "id", "title", "level", "category", "duration_minutes", "progress", "completed", "completed_at").
		Values(learnerID.String(), l.ID, l.Title, string(l.Level), l.Category, l.DurationMinutes,
			l.Progress, l.Completed, toNullNanos(l.CompletedAt)).
		Suffix(`ON CONFLICT (learner_id, id) DO UPDATE SET
			title = COALESCE(NULLIF(excluded.title, ''), lessons.title),
			level = excluded.level,
			category = COALESCE(NULLIF(excluded.category, ''), lessons.category),
			duration_minutes = CASE WHEN excluded.duration_minutes > 0 THEN excluded.duration_minutes ELSE lessons.duration_minutes END`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert lesson: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert lesson %s: %w", l.ID, err)
	}
	return nil
}

// SetLessonProgress records progress for a lesson. Reaching 100 marks the
// lesson completed at the given time; a completed lesson stays completed.
func (db *DB) SetLessonProgress(ctx context.Context, learnerID uuid.UUID, lessonID string, progress int, at time.Time) error {
	if err := domain.ValidateProgress(progress); err != nil {
		return fmt.Errorf("lesson %s: %w", lessonID, err)
	}
	b := sq.Update("lessons").
		Set("progress", progress).
		Where(sq.Eq{"learner_id": learnerID.String(), "id": lessonID})
	if progress == 100 {
		b = b.Set("completed", true).
			Set("completed_at", sq.Expr("COALESCE(completed_at, ?)", toNanos(at)))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build set lesson progress: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set progress for lesson %s: %w", lessonID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.NotFoundError{Kind: "lesson", ID: lessonID}
	}
	return nil
}

// CompleteLesson marks a lesson completed with full progress.
func (db *DB) CompleteLesson(ctx context.Context, learnerID uuid.UUID, lessonID string, at time.Time) error {
	return db.SetLessonProgress(ctx, learnerID, lessonID, 100, at)
}

// ListLessons returns the learner's lessons ordered by level then id.
func (db *DB) ListLessons(ctx context.Context, learnerID uuid.UUID) ([]domain.Lesson, error) {
	var rows []lessonRow
	err := db.selectAll(ctx, &rows, sq.Select(
		"id", "title", "level", "category", "duration_minutes", "progress", "completed", "completed_at",
	).From("lessons").
		Where(sq.Eq{"learner_id": learnerID.String()}).
		OrderBy("level", "id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	lessons := make([]domain.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, domain.Lesson{
			ID:              r.ID,
			Title:           r.Title,
			Level:           domain.Level(r.Level),
			Category:        r.Category,
			DurationMinutes: r.DurationMinutes,
			Progress:        r.Progress,
			Completed:       r.Completed,
			CompletedAt:     fromNullNanos(r.CompletedAt),
		})
	}
	return lessons, nil
}

type quizRow struct {
	ID             string  `db:"id"`
	LessonID       string  `db:"lesson_id"`
	Score          float64 `db:"score"`
	TotalQuestions int     `db:"total_questions"`
	CompletedAt    int64   `db:"completed_at"`
	TimeSpentMS    int64   `db:"time_spent_ms"`
}

// AddQuizResult appends a quiz result. An empty ID is replaced by a new UUID.
func (db *DB) AddQuizResult(ctx context.Context, learnerID uuid.UUID, r domain.QuizResult) (domain.QuizResult, error) {
	if r.Score < 0 || r.Score > 100 {
		return domain.QuizResult{}, fmt.Errorf("quiz score %v: %w", r.Score, domain.ErrValidation)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	query, args, err := sq.Insert("quiz_results").
		Columns("id", "learner_id", "lesson_id", "score", "total_questions", "completed_at", "time_spent_ms").
		Values(r.ID, learnerID.String(), r.LessonID, r.Score, r.TotalQuestions,
			toNanos(r.CompletedAt), r.TimeSpent.Milliseconds()).
		ToSql()
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("build insert quiz result: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return domain.QuizResult{}, fmt.Errorf("failed to insert quiz result for lesson %s: %w", r.LessonID, err)
	}
	return r, nil
}

// ListQuizResults returns the learner's quiz results, oldest first.
func (db *DB) ListQuizResults(ctx context.Context, learnerID uuid.UUID) ([]domain.QuizResult, error) {
	var rows []quizRow
	err := db.selectAll(ctx, &rows, sq.Select(
		"id", "lesson_id", "score", "total_questions", "completed_at", "time_spent_ms",
	).From("quiz_results").
		Where(sq.Eq{"learner_id": learnerID.String()}).
		OrderBy("completed_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	results := make([]domain.QuizResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, domain.QuizResult{
			ID:             r.ID,
			LessonID:       r.LessonID,
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
			CompletedAt:    fromNanos(r.CompletedAt),
			TimeSpent:      time.Duration(r.TimeSpentMS) * time.Millisecond,
		})
	}
	return results, nil
}
