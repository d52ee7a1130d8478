// Package parser reads vocabulary decks. A deck is either a markdown file of
// prefixed blocks or an xlsx workbook with one word per row.
//
// Markdown blocks look like:
//
//	W: ephemeral
//	P: /ɪˈfem(ə)rəl/
//	D: lasting for a very short time
//	E: Fashions are ephemeral.
//	L: C1
//	---
//
// A new "W:" line or a "---" separator ends the current card. Lines without a
// prefix continue the field above them.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

const (
	headwordPrefix      = "W:"
	pronunciationPrefix = "P:"
	definitionPrefix    = "D:"
	examplePrefix       = "E:"
	levelPrefix         = "L:"
	separator           = "---"
)

type field int

const (
	seeking field = iota
	readingHeadword
	readingPronunciation
	readingDefinition
	readingExample
	readingLevel
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{headwordPrefix, readingHeadword},
	{pronunciationPrefix, readingPronunciation},
	{definitionPrefix, readingDefinition},
	{examplePrefix, readingExample},
	{levelPrefix, readingLevel},
}

// IsDeckFile reports whether path has an extension ParseFile understands.
func IsDeckFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".xlsx":
		return true
	}
	return false
}

// ParseFile reads the deck at path, choosing the format by extension.
func ParseFile(path string) ([]domain.CardContent, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ParseWorkbookFile(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a markdown deck. Blocks without a headword are dropped; the
// remaining content is returned as written, validation is the caller's job.
func Parse(r io.Reader) ([]domain.CardContent, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.CardContent
	var current domain.CardContent
	var block []string
	state := seeking

	flushField := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch state {
		case readingHeadword:
			current.Headword = content
		case readingPronunciation:
			current.Pronunciation = content
		case readingDefinition:
			current.Definition = content
		case readingExample:
			current.Example = content
		case readingLevel:
			current.Level = domain.Level(strings.ToUpper(content))
		}
		block = nil
	}

	finishCard := func() {
		flushField()
		if current.Headword != "" {
			cards = append(cards, current)
		}
		current = domain.CardContent{}
		state = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finishCard()
			continue
		}

		matched := false
		for _, p := range prefixes {
			if !strings.HasPrefix(line, p.prefix) {
				continue
			}
			matched = true
			if p.field == readingHeadword && state != seeking {
				// A new headword always starts a new card.
				finishCard()
			} else {
				flushField()
			}
			state = p.field
			block = append(block, strings.TrimPrefix(line[len(p.prefix):], " "))
			break
		}

		if !matched && state != seeking {
			block = append(block, line)
		}
	}

	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse deck: %w", err)
	}

	return cards, nil
}
