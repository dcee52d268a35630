package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/srs"
	"github.com/smith3v/vocab-trainer/pkg/stats"
)

func (h *Handlers) HandleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStats")
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	total, err := h.catalog.Count(userID)
	if err != nil {
		logger.Error("failed to count vocabulary", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to load your statistics. Please try again later.")
		return
	}
	state, err := h.user(userID)
	if err != nil {
		logger.Error("failed to load review cards", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to load your statistics. Please try again later.")
		return
	}
	studied, err := state.stats.Load()
	if err != nil {
		logger.Error("failed to load study stats", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to load your statistics. Please try again later.")
		return
	}

	now := h.now()
	reply(ctx, b, chatID, FormatStats(total, srs.Summarize(state.cards.Snapshot(), now), studied, now))
}

// FormatStats renders the /stats report.
func FormatStats(vocabulary int64, summary srs.Summary, studied stats.Stats, now time.Time) string {
	unseen := vocabulary - int64(summary.Total)
	if unseen < 0 {
		unseen = 0
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Vocabulary: %d words (%d not started)\n", vocabulary, unseen)
	fmt.Fprintf(&sb, "Cards: %d new, %d learning, %d mature\n", summary.New, summary.Learning, summary.Mature)
	fmt.Fprintf(&sb, "Due now: %d\n", summary.Due)
	fmt.Fprintf(&sb, "Answers: %d (%.0f%% correct), %d today\n", studied.TotalStudied, studied.Accuracy()*100, studied.StudiedOn(now))
	fmt.Fprintf(&sb, "Streak: %d %s", studied.Streak, plural(studied.Streak, "day", "days"))
	return sb.String()
}
