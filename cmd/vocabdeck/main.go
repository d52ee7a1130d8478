package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/conorfennell/vocabdeck/internal/app"
	"github.com/conorfennell/vocabdeck/internal/config"
	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/srs"
)

const usage = `usage: vocabdeck [flags] <command> [args]

commands:
  add-source <path|git-url>        register a deck directory or git repository
  sources                          list registered deck sources
  sync                             import cards from every source
  list                             list all cards
  due                              list cards due now
  rate <card-id> <easy|medium|hard>
  review                           review due cards interactively
  stats                            show the progress summary
  lesson <id> <level> <progress>   record lesson progress (0-100)
  quiz <lesson-id> <score> <total> record a quiz result (score in percent)
  daemon                           run periodic sync and due reminders

flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	fs := pflag.NewFlagSet("vocabdeck", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	title := fs.String("title", "", "lesson: title")
	category := fs.String("category", "", "lesson: category")
	minutes := fs.Int("minutes", 0, "lesson: duration in minutes")
	completed := fs.Bool("completed", false, "lesson: mark as completed")
	timeSpent := fs.Duration("time-spent", 0, "quiz: time spent")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	log := app.NewLogger(cfg.Log())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "add-source":
		if len(cmdArgs) != 1 {
			return errors.New("usage: add-source <path|git-url>")
		}
		src, err := a.Sync.AddSource(ctx, cmdArgs[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "added %s source %d: %s\n", src.Type, src.ID, src.Path)
		return nil

	case "sources":
		sources, err := a.DB.GetAllSources(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tPATH\tLAST SCANNED")
		for _, s := range sources {
			scanned := "never"
			if s.LastScanned != nil {
				scanned = s.LastScanned.In(cfg.Location()).Format(time.DateTime)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Type, s.Path, scanned)
		}
		return w.Flush()

	case "sync":
		rep, err := a.Sync.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d sources: %d parsed, %d new, %d invalid, %d retired, %d errors\n",
			rep.Sources, rep.Parsed, rep.Introduced, rep.Invalid, rep.Retired, rep.Errors)
		return nil

	case "list":
		var cards []domain.VocabularyCard
		for c, err := range a.Store.ListCards(ctx) {
			if err != nil {
				return err
			}
			cards = append(cards, c)
		}
		return printCards(stdout, cards, a.Now())

	case "due":
		due, err := a.Store.GetDue(ctx, a.Now())
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Fprintln(stdout, "nothing to review")
			return nil
		}
		return printCards(stdout, due, a.Now())

	case "rate":
		if len(cmdArgs) != 2 {
			return errors.New("usage: rate <card-id> <easy|medium|hard>")
		}
		rating, err := domain.ParseRating(cmdArgs[1])
		if err != nil {
			return err
		}
		id, err := resolveCardID(ctx, a, cmdArgs[0])
		if err != nil {
			return err
		}
		card, err := a.Store.RecordOutcome(ctx, id, rating, a.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: next review in %d days\n", card.Headword, srs.DaysUntil(card.NextReviewAt, a.Now()))
		return nil

	case "review":
		return review(ctx, a, stdin, stdout)

	case "stats":
		sum, err := a.Summary(ctx)
		if err != nil {
			return err
		}
		printSummary(stdout, sum)
		return nil

	case "lesson":
		if len(cmdArgs) != 3 {
			return errors.New("usage: lesson <id> <level> <progress>")
		}
		level, err := domain.ParseLevel(cmdArgs[1])
		if err != nil {
			return err
		}
		pct, err := strconv.Atoi(cmdArgs[2])
		if err != nil {
			return fmt.Errorf("progress %q: %w", cmdArgs[2], domain.ErrValidation)
		}
		if *completed {
			pct = 100
		}
		if err := domain.ValidateProgress(pct); err != nil {
			return err
		}
		learner := cfg.LearnerID()
		lesson := domain.Lesson{ID: cmdArgs[0], Title: *title, Level: level, Category: *category, DurationMinutes: *minutes}
		if err := a.DB.UpsertLesson(ctx, learner, lesson); err != nil {
			return err
		}
		if err := a.DB.SetLessonProgress(ctx, learner, lesson.ID, pct, a.Now()); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "lesson %s (%s): %d%%\n", lesson.ID, level, pct)
		return nil

	case "quiz":
		if len(cmdArgs) != 3 {
			return errors.New("usage: quiz <lesson-id> <score> <total>")
		}
		score, err := strconv.ParseFloat(cmdArgs[1], 64)
		if err != nil {
			return fmt.Errorf("score %q: %w", cmdArgs[1], domain.ErrValidation)
		}
		total, err := strconv.Atoi(cmdArgs[2])
		if err != nil {
			return fmt.Errorf("total %q: %w", cmdArgs[2], domain.ErrValidation)
		}
		res, err := a.DB.AddQuizResult(ctx, cfg.LearnerID(), domain.QuizResult{
			LessonID:       cmdArgs[0],
			Score:          score,
			TotalQuestions: total,
			CompletedAt:    a.Now(),
			TimeSpent:      *timeSpent,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "quiz %s recorded: %.0f%%\n", res.ID, res.Score)
		return nil

	case "daemon":
		return a.RunDaemon(ctx)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// resolveCardID accepts a full card id or a unique prefix of one.
func resolveCardID(ctx context.Context, a *app.App, prefix string) (string, error) {
	var match string
	for c, err := range a.Store.ListCards(ctx) {
		if err != nil {
			return "", err
		}
		if c.ID == prefix {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("card id prefix %q is ambiguous", prefix)
			}
			match = c.ID
		}
	}
	if match == "" {
		return "", domain.NewCardNotFound(prefix)
	}
	return match, nil
}

func printCards(out io.Writer, cards []domain.VocabularyCard, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWORD\tLEVEL\tDIFFICULTY\tREVIEWS\tDUE IN (DAYS)")
	for _, c := range cards {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			c.ID[:min(12, len(c.ID))], c.Headword, c.Level, c.Difficulty, c.ReviewCount, srs.DaysUntil(c.NextReviewAt, now))
	}
	return w.Flush()
}
