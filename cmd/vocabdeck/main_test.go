package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDeck = `W: bonjour
D: hello
L: A1
---
W: merci
D: thank you
L: A1
`

func runCLI(t *testing.T, db string, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	full := append([]string{"--db", db, "--log-level", "error"}, args...)
	if err := run(full, strings.NewReader(stdin), &out); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	return out.String()
}

func TestCLI_EndToEnd(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	decks := t.TempDir()
	if err := os.WriteFile(filepath.Join(decks, "french.md"), []byte(testDeck), 0o644); err != nil {
		t.Fatal(err)
	}

	if out := runCLI(t, db, "", "due"); !strings.Contains(out, "nothing to review") {
		t.Errorf("due on empty db: %q", out)
	}

	runCLI(t, db, "", "add-source", decks)
	if out := runCLI(t, db, "", "sync"); !strings.Contains(out, "2 new") {
		t.Errorf("sync output: %q", out)
	}

	out := runCLI(t, db, "", "due")
	if !strings.Contains(out, "bonjour") || !strings.Contains(out, "merci") {
		t.Errorf("due output: %q", out)
	}

	out = runCLI(t, db, "\ne\n\nx\nh\n", "review")
	if !strings.Contains(out, "reviewed 2 of 2: 1 easy, 0 medium, 1 hard") {
		t.Errorf("review output: %q", out)
	}
	if !strings.Contains(out, "please answer") {
		t.Errorf("expected a re-prompt for an invalid answer: %q", out)
	}

	if out := runCLI(t, db, "", "due"); !strings.Contains(out, "nothing to review") {
		t.Errorf("due after review: %q", out)
	}

	runCLI(t, db, "", "lesson", "l1", "a1", "50", "--title", "Greetings", "--minutes", "15")
	runCLI(t, db, "", "lesson", "l1", "a1", "0", "--completed")
	runCLI(t, db, "", "quiz", "l1", "90", "10")

	out = runCLI(t, db, "", "stats")
	for _, want := range []string{"cards:          2 (0 due)", "lessons:        1/1 completed", "quiz average:   90.0%", "study streak:   1 days"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q in:\n%s", want, out)
		}
	}
}

func TestCLI_Errors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	cases := [][]string{
		{"--db", db},
		{"--db", db, "bogus"},
		{"--db", db, "rate", "abc", "great"},
		{"--db", db, "rate", "abc", "easy"},
		{"--db", db, "lesson", "l1", "Z9", "10"},
	}
	for _, args := range cases {
		if err := run(args, strings.NewReader(""), &out); err == nil {
			t.Errorf("run %v: expected error", args)
		}
	}
}

func TestCLI_LessonProgressOutOfRange(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	err := run([]string{"--db", db, "--log-level", "error", "lesson", "l9", "a1", "150"}, strings.NewReader(""), &out)
	if err == nil {
		t.Fatal("expected an error for progress 150")
	}

	if got := runCLI(t, db, "", "stats"); !strings.Contains(got, "lessons:        0/0 completed") {
		t.Errorf("rejected lesson was stored: %q", got)
	}
}
