package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/go-telegram/bot"
	"github.com/smith3v/vocab-trainer/pkg/bot/handlers"
	"github.com/smith3v/vocab-trainer/pkg/bot/reminders"
	"github.com/smith3v/vocab-trainer/pkg/config"
	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/training"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("vocab-trainer", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])
	configPath, _ := flags.GetString("config")

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	gdb, err := db.Open(cfg.Database, cfg.Logging.GormLevel)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	h := handlers.New(gdb, handlers.Options{
		Defaults: db.UserSettings{
			DailyNewCards:    cfg.Training.DailyNewCards,
			DailyReviewCards: cfg.Training.DailyReviewCards,
			DrillType:        string(training.DrillFlashcard),
		},
		SessionTimeout: cfg.Training.SessionTimeout,
	})

	b, err := bot.New(cfg.Telegram.Token, bot.WithDefaultHandler(h.Default))
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	h.Register(b)

	// Reminders go to private chats, where the chat id is the user id.
	busy := func(userID int64) bool {
		return h.Sessions().Active(userID, userID)
	}
	go reminders.New(gdb, h.Settings(), reminders.BotSender{Bot: b}, busy).Start(ctx)
	go h.Sessions().StartSweeper(ctx)
	go db.StartSessionCleanup(ctx, gdb, db.SessionCleanupInterval)

	logger.Info("Starting bot...", "driver", cfg.Database.Driver)
	b.Start(ctx)
}
