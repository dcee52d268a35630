package srs

import (
	"sort"
	"time"
)

const (
	DefaultDailyNewCap    = 10
	DefaultDailyReviewCap = 50
)

// CardLookup is the read side of a card store.
type CardLookup interface {
	Get(itemID string) (ReviewCard, bool)
}

// DailyQueue is the day's selection of never-seen and due items. It is recomputed on demand.
type DailyQueue struct {
	New []string
	Due []string
}

// Items returns the drill order: new items first, then due reviews.
func (q DailyQueue) Items() []string {
	items := make([]string, 0, len(q.New)+len(q.Due))
	items = append(items, q.New...)
	return append(items, q.Due...)
}

func (q DailyQueue) Len() int {
	return len(q.New) + len(q.Due)
}

// BuildDailyQueue partitions the catalog into items without a card (in catalog order)
// and items whose card is due (oldest due first, ties in catalog order).
func BuildDailyQueue(catalogIDs []string, store CardLookup, now time.Time, newCap, reviewCap int) DailyQueue {
	type dueItem struct {
		id  string
		due time.Time
	}

	var due []dueItem
	var fresh []string
	for _, id := range catalogIDs {
		card, ok := store.Get(id)
		if !ok {
			if len(fresh) < newCap {
				fresh = append(fresh, id)
			}
			continue
		}
		if IsDue(card, now) {
			due = append(due, dueItem{id: id, due: card.NextReviewDate})
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].due.Before(due[j].due)
	})

	if reviewCap < 0 {
		reviewCap = 0
	}
	if len(due) > reviewCap {
		due = due[:reviewCap]
	}

	queue := DailyQueue{
		New: make([]string, 0, len(fresh)),
		Due: make([]string, 0, len(due)),
	}
	queue.New = append(queue.New, fresh...)
	for _, item := range due {
		queue.Due = append(queue.Due, item.id)
	}
	return queue
}

// Summary holds the reporting counts shown to the learner.
type Summary struct {
	Total    int
	New      int
	Learning int
	Mature   int
	Due      int
}

// Summarize counts cards per maturity bucket plus how many are due at now.
func Summarize(cards map[string]ReviewCard, now time.Time) Summary {
	var s Summary
	for _, card := range cards {
		s.Total++
		switch ClassifyMaturity(card) {
		case MaturityNew:
			s.New++
		case MaturityLearning:
			s.Learning++
		case MaturityMature:
			s.Mature++
		}
		if IsDue(card, now) {
			s.Due++
		}
	}
	return s
}
