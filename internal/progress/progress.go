// Package progress derives learner-facing aggregates from cards, review
// history, lessons and quiz results. It never writes.
package progress

import (
	"time"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

// DefaultMasteryThreshold is the highest difficulty at which a card counts
// as mastered.
const DefaultMasteryThreshold = 2

// MasteryRate returns the percentage of cards whose difficulty is at or
// below threshold. It is 0 when there are no cards.
func MasteryRate(cards []domain.VocabularyCard, threshold int) float64 {
	if len(cards) == 0 {
		return 0
	}
	mastered := 0
	for _, c := range cards {
		if srs.IsMastered(c, threshold) {
			mastered++
		}
	}
	return float64(mastered) / float64(len(cards)) * 100
}

// AverageQuizScore returns the mean score of results, 0 when empty.
func AverageQuizScore(results []domain.QuizResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}

// LevelProgress returns, for every CEFR level, the percentage of that
// level's lessons that are completed. Levels without lessons report 0.
func LevelProgress(lessons []domain.Lesson) map[domain.Level]float64 {
	total := make(map[domain.Level]int, len(domain.Levels))
	done := make(map[domain.Level]int, len(domain.Levels))
	for _, l := range lessons {
		total[l.Level]++
		if l.Completed {
			done[l.Level]++
		}
	}

	out := make(map[domain.Level]float64, len(domain.Levels))
	for _, lvl := range domain.Levels {
		if total[lvl] == 0 {
			out[lvl] = 0
			continue
		}
		out[lvl] = float64(done[lvl]) / float64(total[lvl]) * 100
	}
	return out
}

// CompletedLessons counts completed lessons.
func CompletedLessons(lessons []domain.Lesson) int {
	n := 0
	for _, l := range lessons {
		if l.Completed {
			n++
		}
	}
	return n
}

// CurrentLevel returns the lowest level that still has an unfinished lesson.
// With no lessons the learner is at A1; with everything finished, at the
// highest level that has lessons.
func CurrentLevel(lessons []domain.Lesson) domain.Level {
	highest := domain.LevelA1
	for _, lvl := range domain.Levels {
		for _, l := range lessons {
			if l.Level != lvl {
				continue
			}
			if !l.Completed {
				return lvl
			}
			highest = lvl
		}
	}
	return highest
}

// TotalStudyTime sums the duration of completed lessons and the time spent
// on quizzes.
func TotalStudyTime(lessons []domain.Lesson, results []domain.QuizResult) time.Duration {
	var d time.Duration
	for _, l := range lessons {
		if l.Completed {
			d += time.Duration(l.DurationMinutes) * time.Minute
		}
	}
	for _, r := range results {
		d += r.TimeSpent
	}
	return d
}

// ActivityLog collects the instants at which the learner studied: every
// review and every lesson completion.
func ActivityLog(outcomes []domain.ReviewOutcome, lessons []domain.Lesson) []time.Time {
	out := make([]time.Time, 0, len(outcomes)+len(lessons))
	for _, o := range outcomes {
		out = append(out, o.ReviewedAt)
	}
	for _, l := range lessons {
		if l.CompletedAt != nil {
			out = append(out, *l.CompletedAt)
		}
	}
	return out
}

// StudyStreak counts consecutive calendar days, in today's location, with at
// least one activity, ending today. When today has no activity yet the chain
// may end yesterday instead, so the streak does not drop to 0 before the
// learner has had a chance to study.
func StudyStreak(activity []time.Time, today time.Time) int {
	loc := today.Location()
	days := make(map[civilDate]bool, len(activity))
	for _, t := range activity {
		days[dateOf(t.In(loc))] = true
	}

	day := dateOf(today)
	if !days[day] {
		day = day.prev()
		if !days[day] {
			return 0
		}
	}

	streak := 0
	for days[day] {
		streak++
		day = day.prev()
	}
	return streak
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{y, m, d}
}

func (d civilDate) prev() civilDate {
	return dateOf(time.Date(d.year, d.month, d.day-1, 12, 0, 0, 0, time.UTC))
}
