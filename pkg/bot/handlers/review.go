package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/srs"
	"github.com/smith3v/vocab-trainer/pkg/training"
)

const ReviewCallbackPrefix = "t:grade:"

func (h *Handlers) HandleReview(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleReview")
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	settings, err := h.settings.Load(userID)
	if err != nil {
		logger.Error("failed to load review settings", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to start review. Please try again later.")
		return
	}
	itemIDs, err := h.catalog.ItemIDs(userID)
	if err != nil {
		logger.Error("failed to load catalog", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to start review. Please try again later.")
		return
	}
	state, err := h.user(userID)
	if err != nil {
		logger.Error("failed to load review cards", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to start review. Please try again later.")
		return
	}

	queue := srs.BuildDailyQueue(itemIDs, state.cards, h.now(), settings.DailyNewCards, settings.DailyReviewCards)
	if queue.Len() == 0 {
		if len(itemIDs) == 0 {
			reply(ctx, b, chatID, "Your vocabulary is empty. Send a message like \"hola = hello\" to add a word.")
			return
		}
		reply(ctx, b, chatID, "Nothing to review right now.")
		return
	}

	prompt, err := h.sessions.Start(chatID, userID, queue.Items(), training.DrillType(settings.DrillType))
	if err != nil {
		logger.Error("failed to start review session", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to start review. Please try again later.")
		return
	}
	logger.Info("review session started", "user_id", userID, "new", len(queue.New), "due", len(queue.Due))
	h.sendPrompt(ctx, b, chatID, userID, prompt)
}

func (h *Handlers) HandleReviewCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleReviewCallback")
		return
	}

	callbackID := update.CallbackQuery.ID
	answerCallback := func(text string) {
		if callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer review callback query", "error", err)
		}
	}

	token, rating, err := parseReviewCallback(update.CallbackQuery.Data)
	if err != nil {
		logger.Debug("rejected review callback", "data", update.CallbackQuery.Data, "error", err)
		answerCallback("Not active")
		return
	}

	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil || message.Message.Chat.ID == 0 {
		answerCallback("Message missing")
		return
	}
	msg := message.Message
	userID := update.CallbackQuery.From.ID

	current, ok := h.sessions.Current(msg.Chat.ID, userID)
	if !ok || current.Token != token || (current.MessageID != 0 && current.MessageID != msg.ID) {
		answerCallback("Not active")
		return
	}

	result, err := h.sessions.Rate(msg.Chat.ID, userID, token, rating)
	if err != nil {
		if !errors.Is(err, training.ErrStaleToken) && !errors.Is(err, training.ErrNoSession) {
			logger.Error("failed to apply rating", "user_id", userID, "error", err)
		}
		answerCallback("Not active")
		return
	}

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      formatReviewResolvedText(current.PromptText, result.Progress),
		ParseMode: models.ParseModeMarkdown,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{},
		},
	}); err != nil {
		logger.Error("failed to edit review prompt", "user_id", userID, "error", err)
	}
	answerCallback("")

	if result.Next == nil {
		replyf(ctx, b, msg.Chat.ID, "Session complete: %d correct, %d to repeat.",
			result.Progress.Correct, result.Progress.Incorrect)
		return
	}
	h.sendPrompt(ctx, b, msg.Chat.ID, userID, *result.Next)
}

// HandleEnd stops the running review and reports its tallies.
func (h *Handlers) HandleEnd(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleEnd")
		return
	}
	session, ok := h.sessions.End(update.Message.Chat.ID, update.Message.From.ID)
	if !ok {
		reply(ctx, b, update.Message.Chat.ID, "No review in progress.")
		return
	}
	replyf(ctx, b, update.Message.Chat.ID, "Review stopped after %d of %d cards: %d correct, %d to repeat.",
		session.CurrentIndex, len(session.ItemIDs), session.Correct, session.Incorrect)
}

func (h *Handlers) sendPrompt(ctx context.Context, b *bot.Bot, chatID, userID int64, prompt training.Prompt) {
	item, err := h.catalog.Item(userID, prompt.ItemID)
	if err != nil {
		logger.Error("failed to load review item", "user_id", userID, "item_id", prompt.ItemID, "error", err)
		reply(ctx, b, chatID, "Failed to show the next card. Send /review to try again.")
		return
	}

	text := BuildPrompt(item, prompt)
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: BuildKeyboard(prompt.Token),
	})
	if err != nil {
		logger.Error("failed to send review prompt", "user_id", userID, "error", err)
		return
	}
	h.sessions.BindMessage(chatID, userID, prompt.Token, msg.ID, text)
}

// BuildPrompt renders a card for the drill in MarkdownV2. The answer is hidden
// behind a spoiler so the learner can rate recall before looking.
func BuildPrompt(item db.VocabularyItem, prompt training.Prompt) string {
	header := bot.EscapeMarkdown(fmt.Sprintf("%d/%d", prompt.Reviewed+1, prompt.Total))
	word := bot.EscapeMarkdown(item.Word1)
	answer := bot.EscapeMarkdown(item.Word2)

	switch prompt.Drill {
	case training.DrillTyping:
		return fmt.Sprintf("%s Type the translation of *%s*\n||%s||", header, word, answer)
	case training.DrillFillBlank:
		return fmt.Sprintf("%s *%s* → %s\n||%s||", header, word, bot.EscapeMarkdown(maskAnswer(item.Word2)), answer)
	default:
		return fmt.Sprintf("%s %s → ||%s||", header, word, answer)
	}
}

func BuildKeyboard(token string) *models.InlineKeyboardMarkup {
	ratings := []srs.Rating{srs.RatingAgain, srs.RatingHard, srs.RatingGood, srs.RatingEasy}
	row := lo.Map(ratings, func(rating srs.Rating, _ int) models.InlineKeyboardButton {
		return models.InlineKeyboardButton{
			Text:         rating.Label(),
			CallbackData: fmt.Sprintf("%s%s:%s", ReviewCallbackPrefix, token, rating),
		}
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

// maskAnswer keeps the first letter of each word and blanks the rest.
func maskAnswer(answer string) string {
	words := strings.Fields(answer)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(first) + strings.Repeat("_", utf8.RuneCountInString(w[size:]))
	}
	return strings.Join(words, " ")
}

func parseReviewCallback(data string) (string, srs.Rating, error) {
	if !strings.HasPrefix(data, ReviewCallbackPrefix) {
		return "", "", fmt.Errorf("unexpected callback %q", data)
	}
	parts := strings.Split(data, ":")
	if len(parts) != 4 || parts[2] == "" {
		return "", "", fmt.Errorf("malformed callback %q", data)
	}
	rating, err := srs.ParseRating(parts[3])
	if err != nil {
		return "", "", err
	}
	return parts[2], rating, nil
}

func formatReviewResolvedText(prompt string, progress training.Progress) string {
	label := progress.Rating.Label()
	if days := progress.Card.Interval; days > 0 {
		label = fmt.Sprintf("%s, next review in %d %s", label, days, plural(days, "day", "days"))
	}
	label = bot.EscapeMarkdown(label)
	if prompt == "" {
		return label
	}
	return fmt.Sprintf("%s\n%s", prompt, label)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
