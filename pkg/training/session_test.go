package training

import (
	"errors"
	"testing"
	"time"

	"github.com/smith3v/vocab-trainer/pkg/cards"
	"github.com/smith3v/vocab-trainer/pkg/internal/testutil"
	"github.com/smith3v/vocab-trainer/pkg/srs"
)

type managerFixture struct {
	manager *Manager
	store   *GormSessionStore
	stores  map[int64]*cards.Store
	now     time.Time
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	f := &managerFixture{
		store:  NewSessionStore(testutil.SetupTestDB(t), 0),
		stores: make(map[int64]*cards.Store),
		now:    testNow,
	}
	f.manager = NewManager(f.factory, f.store, time.Hour, func() time.Time { return f.now })
	return f
}

func (f *managerFixture) factory(userID int64) (*Controller, error) {
	store, ok := f.stores[userID]
	if !ok {
		store = cards.NewStore(nil)
		f.stores[userID] = store
	}
	return NewController(store, nil, WithClock(func() time.Time { return f.now })), nil
}

func TestManagerRatesThroughSession(t *testing.T) {
	f := newManagerFixture(t)

	prompt, err := f.manager.Start(1, 2, []string{"a", "b"}, DrillFlashcard)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if prompt.ItemID != "a" || prompt.Token == "" || prompt.Total != 2 {
		t.Fatalf("unexpected first prompt: %+v", prompt)
	}

	if _, err := f.manager.Rate(1, 2, "wrong", srs.RatingGood); !errors.Is(err, ErrStaleToken) {
		t.Fatalf("expected ErrStaleToken, got %v", err)
	}

	result, err := f.manager.Rate(1, 2, prompt.Token, srs.RatingGood)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if result.Next == nil || result.Next.ItemID != "b" || result.Next.Token == prompt.Token {
		t.Fatalf("unexpected next prompt: %+v", result.Next)
	}
	if _, err := f.manager.Rate(1, 2, prompt.Token, srs.RatingGood); !errors.Is(err, ErrStaleToken) {
		t.Fatalf("expected replayed token to be rejected, got %v", err)
	}

	result, err = f.manager.Rate(1, 2, result.Next.Token, srs.RatingAgain)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !result.Progress.Complete || result.Next != nil {
		t.Fatalf("expected completion, got %+v", result)
	}
	if result.Progress.Correct != 1 || result.Progress.Incorrect != 1 {
		t.Fatalf("unexpected tallies: %+v", result.Progress)
	}
	if f.stores[2].Len() != 2 {
		t.Fatalf("expected both cards stored, got %d", f.stores[2].Len())
	}

	if _, ok := f.manager.Current(1, 2); ok {
		t.Fatalf("expected no prompt after completion")
	}
	if row, _ := f.store.Load(1, 2, f.now); row != nil {
		t.Fatalf("expected persisted session to be removed")
	}
}

func TestManagerRejectsEmptyQueueAndInvalidRating(t *testing.T) {
	f := newManagerFixture(t)

	if _, err := f.manager.Start(1, 1, nil, DrillFlashcard); !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue, got %v", err)
	}
	prompt, _ := f.manager.Start(1, 1, []string{"a"}, DrillFlashcard)
	if _, err := f.manager.Rate(1, 1, prompt.Token, srs.Rating("meh")); !errors.Is(err, srs.ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
	if _, err := f.manager.Rate(9, 9, "tok", srs.RatingGood); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestManagerResumesPersistedSession(t *testing.T) {
	f := newManagerFixture(t)

	prompt, _ := f.manager.Start(5, 6, []string{"a", "b", "c"}, DrillTyping)
	result, err := f.manager.Rate(5, 6, prompt.Token, srs.RatingEasy)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	f.manager.BindMessage(5, 6, result.Next.Token, 77, "prompt text")

	restarted := NewManager(f.factory, f.store, time.Hour, func() time.Time { return f.now })
	current, ok := restarted.Current(5, 6)
	if !ok {
		t.Fatalf("expected session to resume")
	}
	if current.ItemID != "b" || current.Token != result.Next.Token || current.MessageID != 77 || current.PromptText != "prompt text" {
		t.Fatalf("unexpected resumed prompt: %+v", current)
	}
	if current.Drill != DrillTyping || current.Reviewed != 1 || current.Total != 3 {
		t.Fatalf("unexpected resumed progress: %+v", current)
	}

	next, err := restarted.Rate(5, 6, current.Token, srs.RatingGood)
	if err != nil {
		t.Fatalf("Rate after resume: %v", err)
	}
	if next.Progress.Correct != 2 || next.Next == nil || next.Next.ItemID != "c" {
		t.Fatalf("unexpected progress after resume: %+v", next)
	}
}

func TestManagerEndAndSweep(t *testing.T) {
	f := newManagerFixture(t)

	f.manager.Start(1, 1, []string{"a"}, DrillFlashcard)
	session, ok := f.manager.End(1, 1)
	if !ok || len(session.ItemIDs) != 1 {
		t.Fatalf("expected ended session, got %+v (ok=%v)", session, ok)
	}
	if _, ok := f.manager.Current(1, 1); ok {
		t.Fatalf("expected no session after End")
	}

	f.manager.Start(2, 2, []string{"a"}, DrillFlashcard)
	if evicted := f.manager.SweepInactive(f.now.Add(30 * time.Minute)); evicted != 0 {
		t.Fatalf("expected active session to survive sweep, evicted %d", evicted)
	}
	if evicted := f.manager.SweepInactive(f.now.Add(2 * time.Hour)); evicted != 1 {
		t.Fatalf("expected idle session to be evicted, evicted %d", evicted)
	}
	// The persisted row outlives the in-memory entry.
	if _, ok := f.manager.Current(2, 2); !ok {
		t.Fatalf("expected evicted session to resume from storage")
	}
}

func TestManagerActiveDoesNotResume(t *testing.T) {
	f := newManagerFixture(t)

	if f.manager.Active(3, 3) {
		t.Fatalf("expected no active session before Start")
	}
	f.manager.Start(3, 3, []string{"a", "b"}, DrillFlashcard)
	if !f.manager.Active(3, 3) {
		t.Fatalf("expected in-memory session to be active")
	}

	restarted := NewManager(f.factory, f.store, time.Hour, func() time.Time { return f.now })
	if !restarted.Active(3, 3) {
		t.Fatalf("expected persisted session to be active")
	}
	restarted.mu.Lock()
	entries := len(restarted.entries)
	restarted.mu.Unlock()
	if entries != 0 {
		t.Fatalf("Active must not load the session into memory, got %d entries", entries)
	}

	f.now = f.now.Add(48 * time.Hour)
	if restarted.Active(3, 3) {
		t.Fatalf("expected expired session to be inactive")
	}
}
