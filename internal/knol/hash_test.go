package knol

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

func TestNormalize(t *testing.T) {
	content := domain.CardContent{
		Headword:   "  Serendipity \r\n",
		Definition: "The  occurrence of events\r\nby chance.",
		Example:    "ignored",
	}
	expected := "serendipity\nthe occurrence of events by chance."
	normalized := Normalize(content)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("hashes normalized headword and definition", func(t *testing.T) {
		content := domain.CardContent{Headword: "W", Definition: "D"}
		expected := fmt.Sprintf("%x", sha256.Sum256([]byte("w\nd")))

		if got := Hash(content); got != expected {
			t.Errorf("Expected hash '%s', but got '%s'", expected, got)
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		a := domain.CardContent{Headword: "  Apple ", Definition: "a fruit"}
		b := domain.CardContent{Headword: "apple", Definition: "A  Fruit"}
		if Hash(a) != Hash(b) {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("example and level do not affect the hash", func(t *testing.T) {
		a := domain.CardContent{Headword: "run", Definition: "move fast", Example: "I run.", Level: domain.LevelA1}
		b := domain.CardContent{Headword: "run", Definition: "move fast", Example: "She runs.", Level: domain.LevelA2}
		if Hash(a) != Hash(b) {
			t.Error("Expected example and level to be excluded from the hash")
		}
	})

	t.Run("field boundary matters", func(t *testing.T) {
		a := domain.CardContent{Headword: "ab", Definition: "c"}
		b := domain.CardContent{Headword: "a", Definition: "bc"}
		if Hash(a) == Hash(b) {
			t.Error("Expected hashes for different cards to be different")
		}
	})
}
