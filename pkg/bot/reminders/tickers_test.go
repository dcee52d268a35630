package reminders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/smith3v/vocab-trainer/pkg/db"
	"github.com/smith3v/vocab-trainer/pkg/internal/testutil"
	"github.com/smith3v/vocab-trainer/pkg/logger"
	"github.com/smith3v/vocab-trainer/pkg/srs"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func TestDueSlotUsesLocalHour(t *testing.T) {
	user := db.UserSettings{ReminderEnabled: true, ReminderHour: 20, TimezoneOffsetHours: 2}

	if _, ok := dueSlot(time.Date(2025, 1, 2, 17, 59, 0, 0, time.UTC), user); ok {
		t.Fatalf("expected no slot before 20:00 local")
	}
	slot, ok := dueSlot(time.Date(2025, 1, 2, 18, 5, 0, 0, time.UTC), user)
	if !ok {
		t.Fatalf("expected due slot")
	}
	if want := time.Date(2025, 1, 2, 18, 0, 0, 0, time.UTC); !slot.Equal(want) {
		t.Fatalf("expected slot %v, got %v", want, slot)
	}
}

func TestDueSlotRespectsLastReminder(t *testing.T) {
	last := time.Date(2025, 1, 2, 20, 30, 0, 0, time.UTC)
	user := db.UserSettings{ReminderEnabled: true, ReminderHour: 20, LastReminderAt: &last}

	if _, ok := dueSlot(time.Date(2025, 1, 2, 21, 0, 0, 0, time.UTC), user); ok {
		t.Fatalf("expected no due slot after today's reminder")
	}
	if _, ok := dueSlot(time.Date(2025, 1, 3, 20, 0, 0, 0, time.UTC), user); !ok {
		t.Fatalf("expected next day's slot to be due")
	}
	user.ReminderEnabled = false
	if _, ok := dueSlot(time.Date(2025, 1, 3, 20, 0, 0, 0, time.UTC), user); ok {
		t.Fatalf("expected disabled reminder to never be due")
	}
}

func TestProcessSendsOncePerDay(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	t.Cleanup(func() { logger.SetLogLevel(logger.INFO) })

	settings := db.NewSettingsRepository(gdb, db.UserSettings{})
	for _, user := range []db.UserSettings{
		{UserID: 10, DailyNewCards: 5, DailyReviewCards: 5, ReminderEnabled: true, ReminderHour: 8},
		{UserID: 11, DailyNewCards: 5, DailyReviewCards: 5, ReminderEnabled: true, ReminderHour: 8},
		{UserID: 12, DailyNewCards: 5, DailyReviewCards: 5, ReminderEnabled: false},
	} {
		if err := settings.Save(user); err != nil {
			t.Fatalf("failed to seed settings: %v", err)
		}
	}
	catalog := db.NewCatalogRepository(gdb)
	for _, userID := range []int64{10, 12} {
		if _, err := catalog.AddItem(userID, "hola", "hello"); err != nil {
			t.Fatalf("failed to seed vocabulary: %v", err)
		}
	}
	item, err := catalog.AddItem(10, "gato", "cat")
	if err != nil {
		t.Fatalf("failed to seed vocabulary: %v", err)
	}
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	due := srs.UpdateCard(srs.CreateCard(item.ItemID, now.AddDate(0, 0, -2)), srs.RatingGood, now.AddDate(0, 0, -2))
	if err := db.NewCardRepository(gdb, 10).SaveCards(map[string]srs.ReviewCard{item.ItemID: due}); err != nil {
		t.Fatalf("failed to seed cards: %v", err)
	}

	sender := &fakeSender{}
	service := New(gdb, settings, sender, nil)

	if sent := service.Process(context.Background(), now); sent != 1 {
		t.Fatalf("expected one reminder, got %d", sent)
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != 10 {
		t.Fatalf("unexpected messages: %+v", sender.sent)
	}
	if want := "1 new words and 1 reviews are waiting"; !strings.Contains(sender.sent[0].text, want) {
		t.Fatalf("expected %q in %q", want, sender.sent[0].text)
	}

	if sent := service.Process(context.Background(), now.Add(time.Hour)); sent != 0 {
		t.Fatalf("expected no second reminder on the same day, got %d", sent)
	}
}

func TestProcessSkipsBusyUsers(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	t.Cleanup(func() { logger.SetLogLevel(logger.INFO) })

	settings := db.NewSettingsRepository(gdb, db.UserSettings{})
	if err := settings.Save(db.UserSettings{UserID: 20, DailyNewCards: 5, ReminderEnabled: true}); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}
	if _, err := db.NewCatalogRepository(gdb).AddItem(20, "sol", "sun"); err != nil {
		t.Fatalf("failed to seed vocabulary: %v", err)
	}

	sender := &fakeSender{err: errors.New("unused")}
	service := New(gdb, settings, sender, func(int64) bool { return true })
	if sent := service.Process(context.Background(), time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)); sent != 0 {
		t.Fatalf("expected busy user to be skipped, got %d", sent)
	}
}

type mockClient struct {
	paths []string
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	if _, err := io.ReadAll(req.Body); err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	m.paths = append(m.paths, req.URL.Path)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"ok":true,"result":{"message_id":1}}`)),
		Header:     make(http.Header),
	}, nil
}

func TestBotSenderUsesSendMessage(t *testing.T) {
	client := &mockClient{}
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}

	if err := (BotSender{Bot: b}).SendMessage(context.Background(), 5, "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(client.paths) != 1 || !strings.HasSuffix(client.paths[0], "/sendMessage") {
		t.Fatalf("unexpected requests: %v", client.paths)
	}
}
