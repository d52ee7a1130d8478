package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// Normalize joins the identifying parts of a card's content after cleaning
// each one. Only the headword and definition identify a card, so fixing a
// typo in the example or pronunciation keeps the card's review history.
func Normalize(content domain.CardContent) string {
	normalizePart := func(part string) string {
		p := strings.ReplaceAll(part, "\r\n", "\n")
		p = strings.ToLower(p)
		p = strings.Join(strings.Fields(p), " ")
		return p
	}

	h := normalizePart(content.Headword)
	d := normalizePart(content.Definition)

	// Joined with a newline so "ab"+"c" and "a"+"bc" stay distinct.
	return h + "\n" + d
}

// Hash returns the SHA-256 hex digest of the normalized content. It is used
// as the stable id of imported cards.
func Hash(content domain.CardContent) string {
	sum := sha256.Sum256([]byte(Normalize(content)))
	return fmt.Sprintf("%x", sum)
}
