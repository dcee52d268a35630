package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/srs"
	"gorm.io/datatypes"
)

const (
	SessionInactivityTimeout = 24 * time.Hour
	SessionSweeperInterval   = 10 * time.Minute
)

var (
	ErrEmptyQueue = errors.New("nothing to review")
	ErrNoSession  = errors.New("no active training session")
	ErrStaleToken = errors.New("prompt is no longer current")
)

// ControllerFactory builds a controller bound to the user's cards.
type ControllerFactory func(userID int64) (*Controller, error)

// Prompt is the item a chat is currently asked to rate.
type Prompt struct {
	ItemID     string
	Drill      DrillType
	Token      string
	MessageID  int
	PromptText string
	Reviewed   int
	Total      int
}

// Result is the outcome of a rating delivered through the manager.
type Result struct {
	Progress Progress
	Next     *Prompt
}

type entry struct {
	chatID         int64
	userID         int64
	controller     *Controller
	token          string
	messageID      int
	promptText     string
	lastActivityAt time.Time
}

// Manager keeps one controller per chat and user and mirrors its session to a
// SessionStore so drills survive restarts.
type Manager struct {
	mu       sync.Mutex
	entries  map[string]*entry
	factory  ControllerFactory
	store    SessionStore
	now      func() time.Time
	timeout  time.Duration
	newToken func() string
}

func NewManager(factory ControllerFactory, store SessionStore, timeout time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	if timeout <= 0 {
		timeout = SessionInactivityTimeout
	}
	return &Manager{
		entries:  make(map[string]*entry),
		factory:  factory,
		store:    store,
		now:      now,
		timeout:  timeout,
		newToken: func() string { return fmt.Sprintf("%x", rand.Int63()) },
	}
}

// Start replaces any session of the chat and user with a drill over itemIDs.
func (m *Manager) Start(chatID, userID int64, itemIDs []string, drill DrillType) (Prompt, error) {
	if len(itemIDs) == 0 {
		return Prompt{}, ErrEmptyQueue
	}
	controller, err := m.factory(userID)
	if err != nil {
		return Prompt{}, fmt.Errorf("build controller: %w", err)
	}
	controller.Start(itemIDs, drill)

	e := &entry{
		chatID:         chatID,
		userID:         userID,
		controller:     controller,
		lastActivityAt: m.now(),
	}
	m.mu.Lock()
	e.token = m.newToken()
	m.entries[sessionKey(chatID, userID)] = e
	prompt, _ := e.prompt()
	row, buildErr := e.row()
	m.mu.Unlock()

	m.persist(row, buildErr)
	return prompt, nil
}

// Current returns the pending prompt, resuming a persisted session if needed.
func (m *Manager) Current(chatID, userID int64) (Prompt, bool) {
	e := m.lookup(chatID, userID)
	if e == nil {
		return Prompt{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return e.prompt()
}

// Active reports whether the chat and user have a drill in memory or a live
// persisted one. Unlike Current it never loads the drill into memory.
func (m *Manager) Active(chatID, userID int64) bool {
	m.mu.Lock()
	e := m.entries[sessionKey(chatID, userID)]
	m.mu.Unlock()
	if e != nil {
		return true
	}
	if m.store == nil {
		return false
	}
	row, err := m.store.Load(chatID, userID, m.now())
	if err != nil {
		logger.Error("failed to check training session", "user_id", userID, "error", err)
		return false
	}
	return row != nil
}

// BindMessage remembers which chat message shows the prompt behind token.
func (m *Manager) BindMessage(chatID, userID int64, token string, messageID int, promptText string) {
	m.mu.Lock()
	e := m.entries[sessionKey(chatID, userID)]
	if e == nil || e.token != token {
		m.mu.Unlock()
		return
	}
	e.messageID = messageID
	e.promptText = promptText
	row, err := e.row()
	m.mu.Unlock()

	m.persist(row, err)
}

// Rate applies rating to the prompt identified by token. Completing the last
// item removes the session; its tallies are in the returned progress.
func (m *Manager) Rate(chatID, userID int64, token string, rating srs.Rating) (Result, error) {
	if !rating.Valid() {
		return Result{}, fmt.Errorf("%w: %q", srs.ErrInvalidRating, string(rating))
	}
	e := m.lookup(chatID, userID)
	if e == nil {
		return Result{}, ErrNoSession
	}

	m.mu.Lock()
	if token == "" || e.token != token {
		m.mu.Unlock()
		return Result{}, ErrStaleToken
	}
	// Consume the token so a repeated callback cannot rate twice.
	e.token = ""
	m.mu.Unlock()

	progress, ok := e.controller.AdvanceOnRating(rating)
	if !ok {
		m.drop(chatID, userID, e)
		return Result{}, ErrNoSession
	}
	if progress.Complete {
		e.controller.End()
		m.drop(chatID, userID, e)
		return Result{Progress: progress}, nil
	}

	m.mu.Lock()
	e.token = m.newToken()
	e.messageID = 0
	e.promptText = ""
	e.lastActivityAt = m.now()
	next, _ := e.prompt()
	row, err := e.row()
	m.mu.Unlock()

	m.persist(row, err)
	return Result{Progress: progress, Next: &next}, nil
}

// End stops the drill and returns its final state.
func (m *Manager) End(chatID, userID int64) (Session, bool) {
	e := m.lookup(chatID, userID)
	if e == nil {
		return Session{}, false
	}
	session, ok := e.controller.Session()
	e.controller.End()
	m.drop(chatID, userID, e)
	return session, ok
}

func (m *Manager) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(SessionSweeperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepInactive(m.now())
		}
	}
}

// SweepInactive evicts idle sessions from memory. Persisted rows stay until
// they expire so the drill can still resume.
func (m *Manager) SweepInactive(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for key, e := range m.entries {
		if now.Sub(e.lastActivityAt) > m.timeout {
			delete(m.entries, key)
			evicted++
		}
	}
	return evicted
}

func (m *Manager) lookup(chatID, userID int64) *entry {
	key := sessionKey(chatID, userID)
	m.mu.Lock()
	e := m.entries[key]
	m.mu.Unlock()
	if e != nil {
		return e
	}
	return m.resume(chatID, userID)
}

func (m *Manager) resume(chatID, userID int64) *entry {
	if m.store == nil {
		return nil
	}
	row, err := m.store.Load(chatID, userID, m.now())
	if err != nil {
		logger.Error("failed to load training session", "user_id", userID, "error", err)
		return nil
	}
	if row == nil {
		return nil
	}

	var itemIDs []string
	if err := json.Unmarshal(row.ItemIDs, &itemIDs); err != nil {
		logger.Error("failed to decode training session", "user_id", userID, "error", err)
		m.deleteRow(chatID, userID)
		return nil
	}
	if row.CurrentIndex < 0 || row.CurrentIndex >= len(itemIDs) {
		m.deleteRow(chatID, userID)
		return nil
	}

	controller, err := m.factory(userID)
	if err != nil {
		logger.Error("failed to build controller", "user_id", userID, "error", err)
		return nil
	}
	controller.Restore(Session{
		ItemIDs:      itemIDs,
		Drill:        DrillType(row.DrillType),
		CurrentIndex: row.CurrentIndex,
		Correct:      row.CorrectCount,
		Incorrect:    row.IncorrectCount,
		StartedAt:    row.StartedAt,
	})

	e := &entry{
		chatID:         chatID,
		userID:         userID,
		controller:     controller,
		token:          row.CurrentToken,
		messageID:      row.CurrentMessageID,
		promptText:     row.CurrentPromptText,
		lastActivityAt: m.now(),
	}
	key := sessionKey(chatID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.entries[key]; existing != nil {
		return existing
	}
	if e.token == "" {
		e.token = m.newToken()
	}
	m.entries[key] = e
	logger.Info("resumed training session", "user_id", userID, "index", row.CurrentIndex, "total", len(itemIDs))
	return e
}

// drop forgets e if it is still the chat's current entry.
func (m *Manager) drop(chatID, userID int64, e *entry) {
	key := sessionKey(chatID, userID)
	m.mu.Lock()
	if m.entries[key] == e {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	m.deleteRow(chatID, userID)
}

func (m *Manager) persist(row *db.TrainingSession, buildErr error) {
	if m.store == nil {
		return
	}
	if buildErr != nil {
		logger.Error("failed to build training session", "error", buildErr)
		return
	}
	if err := m.store.Upsert(row); err != nil {
		logger.Error("failed to persist training session", "user_id", row.UserID, "error", err)
	}
}

func (m *Manager) deleteRow(chatID, userID int64) {
	if m.store == nil {
		return
	}
	if err := m.store.Delete(chatID, userID); err != nil {
		logger.Error("failed to delete training session", "user_id", userID, "error", err)
	}
}

func (e *entry) prompt() (Prompt, bool) {
	session, ok := e.controller.Session()
	if !ok {
		return Prompt{}, false
	}
	itemID, ok := session.CurrentItem()
	if !ok {
		return Prompt{}, false
	}
	return Prompt{
		ItemID:     itemID,
		Drill:      session.Drill,
		Token:      e.token,
		MessageID:  e.messageID,
		PromptText: e.promptText,
		Reviewed:   session.CurrentIndex,
		Total:      len(session.ItemIDs),
	}, true
}

func (e *entry) row() (*db.TrainingSession, error) {
	session, ok := e.controller.Session()
	if !ok {
		return nil, ErrNoSession
	}
	raw, err := json.Marshal(session.ItemIDs)
	if err != nil {
		return nil, err
	}
	return &db.TrainingSession{
		ChatID:            e.chatID,
		UserID:            e.userID,
		ItemIDs:           datatypes.JSON(raw),
		DrillType:         string(session.Drill),
		CurrentIndex:      session.CurrentIndex,
		CorrectCount:      session.Correct,
		IncorrectCount:    session.Incorrect,
		CurrentToken:      e.token,
		CurrentMessageID:  e.messageID,
		CurrentPromptText: e.promptText,
		StartedAt:         session.StartedAt,
		LastActivityAt:    e.lastActivityAt,
	}, nil
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}
