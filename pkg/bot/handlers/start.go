package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-trainer/pkg/logger"
)

const helpText = "Commands:\n" +
	"/review - study today's new and due cards\n" +
	"/end - stop the current review\n" +
	"/stats - show your progress\n" +
	"/settings - show or change daily limits, drill and reminder (/settings new 15, /settings reminder 20)\n" +
	"/reset - forget all review progress and statistics\n\n" +
	"To add a word, send it with its translation: hola = hello"

func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStart")
		return
	}
	userID := update.Message.From.ID

	settings, err := h.settings.Load(userID)
	if err == nil && settings.ID == 0 {
		err = h.settings.Save(settings)
	}
	if err != nil {
		logger.Error("failed to initialize user settings", "user_id", userID, "error", err)
		reply(ctx, b, update.Message.Chat.ID, "Failed to initialize your account. Please try again later.")
		return
	}

	reply(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"Welcome! Every day I will show you up to %d new words and %d reviews.\n\n%s",
		settings.DailyNewCards, settings.DailyReviewCards, helpText))
}
