package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/smith3v/vocab-trainer/pkg/db"
)

func TestHandleStartCreatesSettings(t *testing.T) {
	h, gdb := newTestHandlers(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	h.HandleStart(context.Background(), b, newTestUpdate("/start", 202))

	var settings db.UserSettings
	if err := gdb.Where("user_id = ?", 202).First(&settings).Error; err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if settings.DailyNewCards != 10 || settings.DailyReviewCards != 50 || settings.DrillType != "flashcard" {
		t.Fatalf("expected default settings, got %+v", settings)
	}

	got := client.lastMessageText(t)
	if !strings.Contains(got, "Welcome") || !strings.Contains(got, "/review") {
		t.Fatalf("expected welcome message, got %q", got)
	}
}

func TestHandleStartKeepsExistingSettings(t *testing.T) {
	h, gdb := newTestHandlers(t)
	seed := db.UserSettings{UserID: 203, DailyNewCards: 3, DailyReviewCards: 4, DrillType: "typing"}
	if err := gdb.Create(&seed).Error; err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	client := newMockClient()
	b := newTestTelegramBot(t, client)
	h.HandleStart(context.Background(), b, newTestUpdate("/start", 203))

	var settings db.UserSettings
	if err := gdb.Where("user_id = ?", 203).First(&settings).Error; err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if settings.DailyNewCards != 3 || settings.DailyReviewCards != 4 {
		t.Fatalf("expected settings to remain unchanged, got %+v", settings)
	}
	if got := client.lastMessageText(t); !strings.Contains(got, "up to 3 new words and 4 reviews") {
		t.Fatalf("expected stored limits in welcome, got %q", got)
	}
}
