package srs

import "time"

const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 3.0
	MatureInterval    = 21
)

// ReviewCard is the scheduling state of one learnable item.
type ReviewCard struct {
	ItemID         string     `json:"itemId"`
	EaseFactor     float64    `json:"easeFactor"`
	Interval       int        `json:"interval"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate time.Time  `json:"nextReviewDate"`
	LastReviewDate *time.Time `json:"lastReviewDate,omitempty"`
}

// CreateCard returns a never-reviewed card that is due immediately.
func CreateCard(itemID string, now time.Time) ReviewCard {
	return ReviewCard{
		ItemID:         itemID,
		EaseFactor:     DefaultEaseFactor,
		Interval:       0,
		Repetitions:    0,
		NextReviewDate: now,
	}
}

func (c ReviewCard) clone() ReviewCard {
	out := c
	if c.LastReviewDate != nil {
		v := *c.LastReviewDate
		out.LastReviewDate = &v
	}
	return out
}

// IsDue reports whether the card's review time has arrived. The boundary is inclusive.
func IsDue(card ReviewCard, now time.Time) bool {
	return !now.Before(card.NextReviewDate)
}

type Maturity string

const (
	MaturityNew      Maturity = "new"
	MaturityLearning Maturity = "learning"
	MaturityMature   Maturity = "mature"
)

// ClassifyMaturity buckets a card for reporting. It plays no part in scheduling.
func ClassifyMaturity(card ReviewCard) Maturity {
	switch {
	case card.Repetitions == 0:
		return MaturityNew
	case card.Interval >= MatureInterval:
		return MaturityMature
	default:
		return MaturityLearning
	}
}

// CardMap is a plain map of cards keyed by item id.
type CardMap map[string]ReviewCard

func (m CardMap) Get(itemID string) (ReviewCard, bool) {
	card, ok := m[itemID]
	return card, ok
}
