package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/training"
)

const (
	MaxDailyNewCards    = 100
	MaxDailyReviewCards = 500

	MinTimezoneOffset = -12
	MaxTimezoneOffset = 14
)

var (
	ErrBelowMin      = errors.New("value below minimum")
	ErrAboveMax      = errors.New("value above maximum")
	ErrInvalidAction = errors.New("invalid settings action")
)

func (h *Handlers) HandleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleSettings")
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	settings, err := h.settings.Load(userID)
	if err != nil {
		logger.Error("failed to load user settings", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to load your settings. Please try again later.")
		return
	}

	args := strings.Fields(update.Message.Text)[1:]
	if len(args) == 0 {
		reply(ctx, b, chatID, FormatSettings(settings))
		return
	}

	updated, err := ApplySetting(settings, args)
	if err != nil {
		reply(ctx, b, chatID, settingsErrorText(err))
		return
	}
	if err := h.settings.Save(updated); err != nil {
		logger.Error("failed to save user settings", "user_id", userID, "error", err)
		reply(ctx, b, chatID, "Failed to save your settings. Please try again later.")
		return
	}
	reply(ctx, b, chatID, "Saved.\n"+FormatSettings(updated))
}

// ApplySetting changes one field from "/settings <field> <value>" arguments.
func ApplySetting(settings db.UserSettings, args []string) (db.UserSettings, error) {
	if len(args) != 2 {
		return settings, ErrInvalidAction
	}
	field, value := strings.ToLower(args[0]), strings.ToLower(args[1])

	switch field {
	case "new":
		n, err := boundedInt(value, MaxDailyNewCards)
		if err != nil {
			return settings, err
		}
		settings.DailyNewCards = n
	case "review":
		n, err := boundedInt(value, MaxDailyReviewCards)
		if err != nil {
			return settings, err
		}
		settings.DailyReviewCards = n
	case "drill":
		drill := training.DrillType(value)
		if !drill.Valid() {
			return settings, fmt.Errorf("%w: unknown drill %q", ErrInvalidAction, value)
		}
		settings.DrillType = string(drill)
	case "reminder":
		if value == "off" {
			settings.ReminderEnabled = false
			return settings, nil
		}
		hour, err := boundedInt(value, 23)
		if err != nil {
			return settings, err
		}
		settings.ReminderEnabled = true
		settings.ReminderHour = hour
	case "timezone":
		offset, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
		if err != nil {
			return settings, fmt.Errorf("%w: %q is not a number", ErrInvalidAction, value)
		}
		if offset < MinTimezoneOffset {
			return settings, ErrBelowMin
		}
		if offset > MaxTimezoneOffset {
			return settings, fmt.Errorf("%w: limit is %d", ErrAboveMax, MaxTimezoneOffset)
		}
		settings.TimezoneOffsetHours = offset
	default:
		return settings, fmt.Errorf("%w: unknown setting %q", ErrInvalidAction, field)
	}
	return settings, nil
}

func FormatSettings(settings db.UserSettings) string {
	reminder := "off"
	if settings.ReminderEnabled {
		reminder = fmt.Sprintf("%02d:00", settings.ReminderHour)
	}
	return fmt.Sprintf("New cards per day: %d\nReviews per day: %d\nDrill: %s\nReminder: %s (UTC%+d)",
		settings.DailyNewCards, settings.DailyReviewCards, settings.DrillType,
		reminder, settings.TimezoneOffsetHours)
}

func boundedInt(value string, limit int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAction, value)
	}
	if n < 0 {
		return 0, ErrBelowMin
	}
	if n > limit {
		return 0, fmt.Errorf("%w: limit is %d", ErrAboveMax, limit)
	}
	return n, nil
}

func settingsErrorText(err error) string {
	switch {
	case errors.Is(err, ErrBelowMin):
		return "The value is too small."
	case errors.Is(err, ErrAboveMax):
		return fmt.Sprintf("The value is too large (%v).", err)
	default:
		return "Usage:\n/settings new 15\n/settings review 40\n/settings drill flashcard|typing|fill-blank\n" +
			"/settings reminder 20|off\n/settings timezone +2"
	}
}
