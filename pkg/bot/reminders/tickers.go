package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/srs"
	"gorm.io/gorm"
)

const CheckInterval = time.Minute

// Sender delivers a plain text message to a private chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Service tells users once a day, at their chosen local hour, how many cards
// wait for them.
type Service struct {
	db       *gorm.DB
	catalog  *db.CatalogRepository
	settings *db.SettingsRepository
	sender   Sender
	busy     func(userID int64) bool
}

// New builds the reminder service. busy may be nil; when set, users it reports
// as in the middle of a review are skipped.
func New(gdb *gorm.DB, settings *db.SettingsRepository, sender Sender, busy func(userID int64) bool) *Service {
	return &Service{
		db:       gdb,
		catalog:  db.NewCatalogRepository(gdb),
		settings: settings,
		sender:   sender,
		busy:     busy,
	}
}

func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Process(ctx, now.UTC())
		}
	}
}

// Process sends every reminder whose slot has passed and returns how many were sent.
func (s *Service) Process(ctx context.Context, now time.Time) int {
	users, err := s.settings.WithReminders()
	if err != nil {
		logger.Error("failed to fetch users for reminders", "error", err)
		return 0
	}

	sent := 0
	for _, user := range users {
		ok, err := s.remind(ctx, user, now)
		if err != nil {
			logger.Error("failed to send reminder", "user_id", user.UserID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent
}

func (s *Service) remind(ctx context.Context, user db.UserSettings, now time.Time) (bool, error) {
	slot, ok := dueSlot(now, user)
	if !ok {
		return false, nil
	}
	if s.busy != nil && s.busy(user.UserID) {
		return false, nil
	}

	itemIDs, err := s.catalog.ItemIDs(user.UserID)
	if err != nil {
		return false, err
	}
	loaded, err := db.NewCardRepository(s.db, user.UserID).LoadCards()
	if err != nil {
		return false, err
	}
	queue := srs.BuildDailyQueue(itemIDs, srs.CardMap(loaded), now, user.DailyNewCards, user.DailyReviewCards)

	// The slot is consumed even when nothing is waiting.
	if err := s.settings.MarkReminded(user.UserID, now); err != nil {
		return false, err
	}
	if queue.Len() == 0 {
		return false, nil
	}

	text := fmt.Sprintf("%d new words and %d reviews are waiting. Send /review to start.", len(queue.New), len(queue.Due))
	if err := s.sender.SendMessage(ctx, user.UserID, text); err != nil {
		return false, err
	}
	logger.Debug("reminder sent", "user_id", user.UserID, "slot", slot)
	return true, nil
}

// dueSlot returns today's reminder time in UTC when it has passed and was not
// served yet.
func dueSlot(now time.Time, user db.UserSettings) (time.Time, bool) {
	if !user.ReminderEnabled {
		return time.Time{}, false
	}
	offset := time.Duration(user.TimezoneOffsetHours) * time.Hour
	localNow := now.Add(offset)
	year, month, day := localNow.Date()

	slotUTC := time.Date(year, month, day, user.ReminderHour, 0, 0, 0, time.UTC).Add(-offset)
	if now.Before(slotUTC) {
		return time.Time{}, false
	}
	if user.LastReminderAt != nil && !user.LastReminderAt.Before(slotUTC) {
		return time.Time{}, false
	}
	return slotUTC, true
}
