package srs

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRating = errors.New("invalid rating")

// Rating is the recall quality reported by the learner for a single review.
type Rating string

const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

func (r Rating) Valid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// Correct reports whether the rating counts as a successful recall.
func (r Rating) Correct() bool {
	return r == RatingGood || r == RatingEasy
}

func (r Rating) Label() string {
	switch r {
	case RatingAgain:
		return "Again"
	case RatingHard:
		return "Hard"
	case RatingGood:
		return "Good"
	case RatingEasy:
		return "Easy"
	default:
		return "Unknown"
	}
}

// ParseRating converts external input into a Rating, rejecting anything
// outside the four known values.
func ParseRating(value string) (Rating, error) {
	r := Rating(strings.ToLower(strings.TrimSpace(value)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRating, value)
	}
	return r, nil
}
