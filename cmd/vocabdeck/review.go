package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/conorfennell/vocabdeck/internal/app"
	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/progress"
	"github.com/conorfennell/vocabdeck/internal/session"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

// review runs an interactive session over the cards due now. Typing "q"
// stops early; the cards already rated stay recorded.
func review(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	s, err := a.StartReview(ctx)
	if err != nil {
		return err
	}
	if s.Done() {
		fmt.Fprintln(out, "nothing to review")
		return nil
	}

	scanner := bufio.NewScanner(in)
	readLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		card, ok := s.Current()
		if !ok {
			break
		}
		done, total := s.Progress()
		fmt.Fprintf(out, "\n[%d/%d] %s", done+1, total, card.Headword)
		if card.Pronunciation != "" {
			fmt.Fprintf(out, "  %s", card.Pronunciation)
		}
		fmt.Fprintf(out, "  (%s)\npress enter to reveal", card.Level)
		if _, ok := readLine(); !ok {
			break
		}

		fmt.Fprintf(out, "%s\n", card.Definition)
		if card.Example != "" {
			fmt.Fprintf(out, "  e.g. %s\n", card.Example)
		}
		preview := a.Cards.Scheduler().Preview(card, a.Now())
		fmt.Fprintf(out, "rate: [e]asy %dd  [m]edium %dd  [h]ard %dd  [q]uit: ",
			srs.DaysUntil(preview[domain.Easy].NextReviewAt, a.Now()),
			srs.DaysUntil(preview[domain.Medium].NextReviewAt, a.Now()),
			srs.DaysUntil(preview[domain.Hard].NextReviewAt, a.Now()))

		for {
			answer, ok := readLine()
			if !ok || strings.EqualFold(answer, "q") {
				return finishReview(out, s)
			}
			rating, err := domain.ParseRating(answer)
			if err != nil {
				fmt.Fprint(out, "please answer e, m, h or q: ")
				continue
			}
			if _, err := s.Advance(ctx, rating, a.Now()); err != nil {
				return err
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return finishReview(out, s)
}

func finishReview(out io.Writer, s *session.Session) error {
	done, total := s.Progress()
	c := s.Counts()
	fmt.Fprintf(out, "\nreviewed %d of %d: %d easy, %d medium, %d hard\n", done, total, c.Easy, c.Medium, c.Hard)
	return nil
}

func printSummary(out io.Writer, sum progress.Summary) {
	fmt.Fprintf(out, "cards:          %d (%d due)\n", sum.TotalCards, sum.DueCards)
	fmt.Fprintf(out, "mastery:        %.1f%%\n", sum.MasteryRate)
	fmt.Fprintf(out, "lessons:        %d/%d completed\n", sum.CompletedLessons, sum.TotalLessons)
	fmt.Fprintf(out, "current level:  %s\n", sum.CurrentLevel)
	fmt.Fprintf(out, "quiz average:   %.1f%%\n", sum.AverageQuizScore)
	fmt.Fprintf(out, "study streak:   %d days\n", sum.StudyStreak)
	fmt.Fprintf(out, "study time:     %s\n", sum.TotalStudyTime)

	for _, lvl := range domain.Levels {
		fmt.Fprintf(out, "  %s %5.1f%%\n", lvl, sum.LevelProgress[lvl])
	}
}
