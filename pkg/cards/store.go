package cards

import (
	"sync"

	"github.com/smith3v/vocab-trainer/pkg/srs"
)

// Store holds at most one review card per item id. One store may be shared by
// several controllers of the same user.
type Store struct {
	mu    sync.RWMutex
	cards map[string]srs.ReviewCard

	// commitMu orders writes together with their commits.
	commitMu sync.Mutex
}

// NewStore copies initial so later changes to the caller's map are not observed.
func NewStore(initial map[string]srs.ReviewCard) *Store {
	cards := make(map[string]srs.ReviewCard, len(initial))
	for id, card := range initial {
		cards[id] = card
	}
	return &Store{cards: cards}
}

func (s *Store) Get(itemID string) (srs.ReviewCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[itemID]
	return card, ok
}

// Put inserts or replaces the card stored under card.ItemID.
func (s *Store) Put(card srs.ReviewCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.ItemID] = card
}

func (s *Store) Delete(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, itemID)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

// Snapshot returns a copy of the full mapping.
func (s *Store) Snapshot() map[string]srs.ReviewCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]srs.ReviewCard, len(s.cards))
	for id, card := range s.cards {
		out[id] = card
	}
	return out
}

// Reset drops every card.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = make(map[string]srs.ReviewCard)
}

// Update replaces the card of itemID with fn's result. fn receives the current
// card and whether it exists. When commit is set it gets a snapshot taken right
// after the write; commits run one at a time in write order, so a later commit
// never carries an older card. The stored card stays even if commit fails.
func (s *Store) Update(itemID string, fn func(card srs.ReviewCard, ok bool) srs.ReviewCard, commit func(map[string]srs.ReviewCard) error) (srs.ReviewCard, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	current, ok := s.cards[itemID]
	updated := fn(current, ok)
	updated.ItemID = itemID
	s.cards[itemID] = updated
	var snapshot map[string]srs.ReviewCard
	if commit != nil {
		snapshot = make(map[string]srs.ReviewCard, len(s.cards))
		for id, card := range s.cards {
			snapshot[id] = card
		}
	}
	s.mu.Unlock()

	if commit == nil {
		return updated, nil
	}
	return updated, commit(snapshot)
}

// Clear drops every card and then runs purge, with no update in between.
func (s *Store) Clear(purge func() error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.Reset()
	if purge == nil {
		return nil
	}
	return purge()
}
