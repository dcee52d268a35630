package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-trainer/pkg/cards"
	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/training"
	"gorm.io/gorm"
)

type Options struct {
	Defaults       db.UserSettings
	SessionTimeout time.Duration
	Now            func() time.Time
}

// Handlers serves the bot commands for every user of one database.
type Handlers struct {
	db       *gorm.DB
	catalog  *db.CatalogRepository
	settings *db.SettingsRepository
	sessions *training.Manager
	now      func() time.Time

	mu    sync.Mutex
	users map[int64]*userState
}

// userState is shared by every chat a user reviews in.
type userState struct {
	cards *cards.Store
	stats *db.StatsRepository
}

func New(gdb *gorm.DB, opts Options) *Handlers {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	defaults := opts.Defaults
	if defaults.DrillType == "" {
		defaults.DrillType = string(training.DrillFlashcard)
	}
	h := &Handlers{
		db:       gdb,
		catalog:  db.NewCatalogRepository(gdb),
		settings: db.NewSettingsRepository(gdb, defaults),
		now:      now,
		users:    make(map[int64]*userState),
	}
	h.sessions = training.NewManager(
		h.newController,
		training.NewSessionStore(gdb, opts.SessionTimeout),
		opts.SessionTimeout,
		now,
	)
	return h
}

func (h *Handlers) Sessions() *training.Manager {
	return h.sessions
}

// Register wires every command and callback. The default handler is passed to
// bot.New separately through bot.WithDefaultHandler(h.Default).
func (h *Handlers) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/review", bot.MatchTypeExact, h.HandleReview)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/end", bot.MatchTypeExact, h.HandleEnd)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypeExact, h.HandleStats)
	b.RegisterHandlerMatchFunc(isSettingsCommand, h.HandleSettings)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypeExact, h.HandleReset)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, ReviewCallbackPrefix, bot.MatchTypePrefix, h.HandleReviewCallback)
}

func (h *Handlers) newController(userID int64) (*training.Controller, error) {
	state, err := h.user(userID)
	if err != nil {
		return nil, err
	}
	return training.NewController(
		state.cards,
		db.NewCardRepository(h.db, userID),
		training.WithClock(h.now),
		training.WithRecorder(state.stats),
	), nil
}

// user returns the card store and stats of userID, loading the cards once.
func (h *Handlers) user(userID int64) (*userState, error) {
	h.mu.Lock()
	state := h.users[userID]
	h.mu.Unlock()
	if state != nil {
		return state, nil
	}

	loaded, err := db.NewCardRepository(h.db, userID).LoadCards()
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing := h.users[userID]; existing != nil {
		return existing, nil
	}
	state = &userState{
		cards: cards.NewStore(loaded),
		stats: db.NewStatsRepository(h.db, userID),
	}
	h.users[userID] = state
	return state, nil
}

// isSettingsCommand matches "/settings" alone or followed by arguments.
func isSettingsCommand(update *models.Update) bool {
	if update == nil || update.Message == nil {
		return false
	}
	text := update.Message.Text
	return text == "/settings" || strings.HasPrefix(text, "/settings ")
}

func validMessage(update *models.Update) bool {
	return update != nil && update.Message != nil && update.Message.From != nil && update.Message.Chat.ID != 0
}

func reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func replyf(ctx context.Context, b *bot.Bot, chatID int64, format string, args ...any) {
	reply(ctx, b, chatID, fmt.Sprintf(format, args...))
}

func (h *Handlers) Settings() *db.SettingsRepository {
	return h.settings
}
