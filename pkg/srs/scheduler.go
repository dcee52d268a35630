package srs

import (
	"math"
	"time"
)

const (
	againEasePenalty = 0.2
	hardEasePenalty  = 0.15
	easyEaseBonus    = 0.15
	hardMultiplier   = 1.2
	easyMultiplier   = 1.3
)

// UpdateCard returns the card's next state after it was rated at now.
// Every decision reads the state entering the transition; the input is never modified.
// Intervals round half away from zero.
func UpdateCard(card ReviewCard, rating Rating, now time.Time) ReviewCard {
	if !rating.Valid() {
		return card.clone()
	}

	next := card.clone()
	switch rating {
	case RatingAgain:
		next.Repetitions = 0
		next.Interval = 0
		next.EaseFactor = adjustEase(card.EaseFactor, -againEasePenalty)
	case RatingHard:
		if card.Repetitions == 0 {
			next.Interval = 1
		} else {
			next.Interval = max(1, roundDays(float64(card.Interval)*hardMultiplier))
		}
		next.EaseFactor = adjustEase(card.EaseFactor, -hardEasePenalty)
		next.Repetitions = card.Repetitions + 1
	case RatingGood:
		switch card.Repetitions {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.Interval = roundDays(float64(card.Interval) * card.EaseFactor)
		}
		next.EaseFactor = clampEase(card.EaseFactor)
		next.Repetitions = card.Repetitions + 1
	case RatingEasy:
		if card.Repetitions == 0 {
			next.Interval = 4
		} else {
			next.Interval = roundDays(float64(card.Interval) * card.EaseFactor * easyMultiplier)
		}
		next.EaseFactor = adjustEase(card.EaseFactor, easyEaseBonus)
		next.Repetitions = card.Repetitions + 1
	}

	reviewedAt := now
	next.LastReviewDate = &reviewedAt
	next.NextReviewDate = now.AddDate(0, 0, next.Interval)
	return next
}

func roundDays(days float64) int {
	return int(math.Round(days))
}

// adjustEase applies delta at two-decimal precision and clamps the result.
func adjustEase(ease, delta float64) float64 {
	return clampEase(math.Round((ease+delta)*100) / 100)
}

func clampEase(ease float64) float64 {
	if ease < MinEaseFactor {
		return MinEaseFactor
	}
	if ease > MaxEaseFactor {
		return MaxEaseFactor
	}
	return ease
}
