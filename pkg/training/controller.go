package training

import (
	"sync"
	"time"

	"github.com/smith3v/vocab-trainer/pkg/cards"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/srs"
)

type DrillType string

const (
	DrillFlashcard DrillType = "flashcard"
	DrillTyping    DrillType = "typing"
	DrillFillBlank DrillType = "fill-blank"
)

func (d DrillType) Valid() bool {
	switch d {
	case DrillFlashcard, DrillTyping, DrillFillBlank:
		return true
	default:
		return false
	}
}

// Persister receives the full card mapping after every rating.
type Persister interface {
	SaveCards(cards map[string]srs.ReviewCard) error
}

// Recorder receives every answer for long-term study statistics.
type Recorder interface {
	RecordAnswer(correct bool, now time.Time) error
}

// Session is an in-progress drill over an ordered list of items.
type Session struct {
	ItemIDs      []string
	Drill        DrillType
	CurrentIndex int
	Correct      int
	Incorrect    int
	StartedAt    time.Time
}

func (s Session) Complete() bool {
	return s.CurrentIndex >= len(s.ItemIDs)
}

func (s Session) CurrentItem() (string, bool) {
	if s.CurrentIndex < 0 || s.Complete() {
		return "", false
	}
	return s.ItemIDs[s.CurrentIndex], true
}

func (s Session) clone() Session {
	out := s
	out.ItemIDs = append([]string(nil), s.ItemIDs...)
	return out
}

// Progress describes the outcome of one rating.
type Progress struct {
	ItemID    string
	Card      srs.ReviewCard
	Rating    srs.Rating
	Correct   int
	Incorrect int
	Reviewed  int
	Total     int
	Complete  bool
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// Controller drives one drill session at a time against a card store.
// Card writes go to the store first; persistence is best effort. Controllers
// of different chats may share the store of one user.
type Controller struct {
	mu        sync.Mutex
	store     *cards.Store
	persister Persister
	recorder  Recorder
	now       func() time.Time
	session   *Session
}

func NewController(store *cards.Store, persister Persister, opts ...Option) *Controller {
	if store == nil {
		store = cards.NewStore(nil)
	}
	c := &Controller{
		store:     store,
		persister: persister,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Store() *cards.Store {
	return c.store
}

// Start replaces any active session with a new one over itemIDs.
func (c *Controller) Start(itemIDs []string, drill DrillType) Session {
	if !drill.Valid() {
		drill = DrillFlashcard
	}
	session := &Session{
		ItemIDs:   append([]string(nil), itemIDs...),
		Drill:     drill,
		StartedAt: c.now(),
	}
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return session.clone()
}

// Restore installs a previously persisted session as the active one.
func (c *Controller) Restore(session Session) {
	restored := session.clone()
	if !restored.Drill.Valid() {
		restored.Drill = DrillFlashcard
	}
	if restored.CurrentIndex < 0 {
		restored.CurrentIndex = 0
	}
	c.mu.Lock()
	c.session = &restored
	c.mu.Unlock()
}

func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return c.session.clone(), true
}

// AdvanceOnRating rates the current item, stores the updated card and moves the cursor.
// It reports false without side effects when there is nothing to rate.
func (c *Controller) AdvanceOnRating(rating srs.Rating) (Progress, bool) {
	if !rating.Valid() {
		logger.Error("rejected invalid rating", "rating", string(rating))
		return Progress{}, false
	}

	c.mu.Lock()
	session := c.session
	if session == nil {
		c.mu.Unlock()
		return Progress{}, false
	}
	itemID, ok := session.CurrentItem()
	if !ok {
		c.mu.Unlock()
		return Progress{}, false
	}

	now := c.now()
	var commit func(map[string]srs.ReviewCard) error
	if c.persister != nil {
		commit = c.persister.SaveCards
	}
	updated, err := c.store.Update(itemID, func(card srs.ReviewCard, exists bool) srs.ReviewCard {
		if !exists {
			card = srs.CreateCard(itemID, now)
		}
		return srs.UpdateCard(card, rating, now)
	}, commit)
	if err != nil {
		logger.Error("failed to persist review cards", "item_id", itemID, "error", err)
	}

	if rating.Correct() {
		session.Correct++
	} else {
		session.Incorrect++
	}
	session.CurrentIndex++

	progress := Progress{
		ItemID:    itemID,
		Card:      updated,
		Rating:    rating,
		Correct:   session.Correct,
		Incorrect: session.Incorrect,
		Reviewed:  session.CurrentIndex,
		Total:     len(session.ItemIDs),
		Complete:  session.Complete(),
	}
	c.mu.Unlock()

	if c.recorder != nil {
		if err := c.recorder.RecordAnswer(rating.Correct(), now); err != nil {
			logger.Error("failed to record study stats", "item_id", itemID, "error", err)
		}
	}
	return progress, true
}

// End clears the active session. It is safe to call without one.
func (c *Controller) End() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}
