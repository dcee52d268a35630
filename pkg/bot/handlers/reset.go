package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/logger"
)

// HandleReset forgets every review card and the study statistics of the user.
// The vocabulary itself is kept.
func (h *Handlers) HandleReset(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleReset")
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	h.sessions.End(chatID, userID)
	state, err := h.user(userID)
	if err == nil {
		// Drills still open in other chats share these cards, so they cannot
		// write the deleted ones back.
		err = errors.Join(
			state.cards.Clear(db.NewCardRepository(h.db, userID).DeleteAll),
			state.stats.Reset(),
		)
	}
	if err != nil {
		logger.Error("failed to reset progress", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to reset your progress. Please try again later.")
		return
	}
	logger.Info("progress reset", "user_id", userID)
	reply(ctx, b, chatID, "Your review progress and statistics have been reset.")
}
