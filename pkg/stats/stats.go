package stats

import "time"

const dayLayout = "2006-01-02"

// Stats aggregates a learner's answers across sessions.
type Stats struct {
	TotalStudied   int            `json:"totalStudied"`
	TotalCorrect   int            `json:"totalCorrect"`
	TotalIncorrect int            `json:"totalIncorrect"`
	Streak         int            `json:"streak"`
	LastStudyDate  *time.Time     `json:"lastStudyDate,omitempty"`
	CardsPerDay    map[string]int `json:"cardsPerDay"`
}

func New() Stats {
	return Stats{CardsPerDay: make(map[string]int)}
}

// DayKey formats the calendar day of t in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// Record returns s updated with one answer given at now. A study day right after
// the previous one extends the streak; a gap resets it to 1.
func Record(s Stats, correct bool, now time.Time) Stats {
	out := s
	out.CardsPerDay = make(map[string]int, len(s.CardsPerDay)+1)
	for day, count := range s.CardsPerDay {
		out.CardsPerDay[day] = count
	}

	out.TotalStudied++
	if correct {
		out.TotalCorrect++
	} else {
		out.TotalIncorrect++
	}

	today := DayKey(now)
	switch {
	case s.LastStudyDate == nil:
		out.Streak = 1
	case DayKey(*s.LastStudyDate) == today:
		if out.Streak == 0 {
			out.Streak = 1
		}
	case DayKey(*s.LastStudyDate) == DayKey(now.AddDate(0, 0, -1)):
		out.Streak++
	default:
		out.Streak = 1
	}

	studiedAt := now
	out.LastStudyDate = &studiedAt
	out.CardsPerDay[today]++
	return out
}

// StudiedOn reports how many answers were recorded on the day of t.
func (s Stats) StudiedOn(t time.Time) int {
	return s.CardsPerDay[DayKey(t)]
}

// Accuracy is the share of correct answers, 0 when nothing was studied.
func (s Stats) Accuracy() float64 {
	if s.TotalStudied == 0 {
		return 0
	}
	return float64(s.TotalCorrect) / float64(s.TotalStudied)
}
