package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/logger"
)

// Default adds "word = translation" messages to the vocabulary and answers
// everything else with the command list.
func (h *Handlers) Default(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		logger.Error("received invalid update in Default")
		return
	}
	if update.Message.Chat.ID == 0 || update.Message.From == nil {
		logger.Error("chat or sender missing in Default")
		return
	}
	chatID := update.Message.Chat.ID

	word, translation, ok := ParseVocabularyLine(update.Message.Text)
	if !ok {
		reply(ctx, b, chatID, helpText)
		return
	}

	item, err := h.catalog.AddItem(update.Message.From.ID, word, translation)
	switch {
	case errors.Is(err, db.ErrItemExists):
		replyf(ctx, b, chatID, "%q is already in your vocabulary.", word)
	case errors.Is(err, db.ErrEmptyItem):
		reply(ctx, b, chatID, "Both the word and its translation are required: hola = hello")
	case err != nil:
		logger.Error("failed to add vocabulary item", "user_id", update.Message.From.ID, "error", err)
		reply(ctx, b, chatID, "Failed to add the word. Please try again later.")
	default:
		logger.Debug("vocabulary item added", "user_id", update.Message.From.ID, "item_id", item.ItemID)
		replyf(ctx, b, chatID, "Added: %s = %s", item.Word1, item.Word2)
	}
}

// ParseVocabularyLine splits "word = translation" at the first '='.
func ParseVocabularyLine(text string) (string, string, bool) {
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return "", "", false
	}
	word, translation, found := strings.Cut(text, "=")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(word), strings.TrimSpace(translation), true
}
