package reminders

import (
	"context"

	"github.com/go-telegram/bot"
)

// BotSender sends reminders through a Telegram bot.
type BotSender struct {
	Bot *bot.Bot
}

func (s BotSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := s.Bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}
