package domain

import (
	"encoding"
	"fmt"
	"strings"
)

// Rating is the learner's judgment of how hard a card was to recall.
type Rating string

const (
	Easy   Rating = "easy"
	Medium Rating = "medium"
	Hard   Rating = "hard"
)

// Ratings lists every valid rating, easiest first.
var Ratings = []Rating{Easy, Medium, Hard}

var (
	_ fmt.Stringer             = Rating("")
	_ encoding.TextMarshaler   = Rating("")
	_ encoding.TextUnmarshaler = (*Rating)(nil)
)

func (r Rating) String() string { return string(r) }

// IsValid reports whether r is one of easy, medium or hard.
func (r Rating) IsValid() bool {
	switch r {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// ParseRating accepts the full names and their first letters, case-insensitively.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "e":
		return Easy, nil
	case "medium", "m":
		return Medium, nil
	case "hard", "h":
		return Hard, nil
	}
	return "", &InvalidRatingError{Value: s}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, &InvalidRatingError{Value: string(r)}
	}
	return []byte(r), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	v, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
