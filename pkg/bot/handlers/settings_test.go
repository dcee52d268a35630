package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smith3v/vocab-trainer/pkg/db"
)

func TestApplySetting(t *testing.T) {
	base := db.UserSettings{DailyNewCards: 10, DailyReviewCards: 50, DrillType: "flashcard"}

	updated, err := ApplySetting(base, []string{"new", "0"})
	if err != nil || updated.DailyNewCards != 0 {
		t.Fatalf("expected new cap 0, got %+v (%v)", updated, err)
	}
	updated, err = ApplySetting(base, []string{"Review", "40"})
	if err != nil || updated.DailyReviewCards != 40 {
		t.Fatalf("expected review cap 40, got %+v (%v)", updated, err)
	}
	updated, err = ApplySetting(base, []string{"drill", "fill-blank"})
	if err != nil || updated.DrillType != "fill-blank" {
		t.Fatalf("expected fill-blank drill, got %+v (%v)", updated, err)
	}

	updated, err = ApplySetting(base, []string{"reminder", "7"})
	if err != nil || !updated.ReminderEnabled || updated.ReminderHour != 7 {
		t.Fatalf("expected reminder at 7, got %+v (%v)", updated, err)
	}
	updated, err = ApplySetting(updated, []string{"reminder", "off"})
	if err != nil || updated.ReminderEnabled {
		t.Fatalf("expected reminder off, got %+v (%v)", updated, err)
	}
	updated, err = ApplySetting(base, []string{"timezone", "+2"})
	if err != nil || updated.TimezoneOffsetHours != 2 {
		t.Fatalf("expected timezone +2, got %+v (%v)", updated, err)
	}
	if got := FormatSettings(updated); !strings.Contains(got, "Reminder: off (UTC+2)") {
		t.Fatalf("unexpected settings text %q", got)
	}

	cases := []struct {
		args []string
		want error
	}{
		{[]string{"new", "-1"}, ErrBelowMin},
		{[]string{"review", "501"}, ErrAboveMax},
		{[]string{"new", "ten"}, ErrInvalidAction},
		{[]string{"drill", "crossword"}, ErrInvalidAction},
		{[]string{"speed", "1"}, ErrInvalidAction},
		{[]string{"new"}, ErrInvalidAction},
		{[]string{"reminder", "24"}, ErrAboveMax},
		{[]string{"timezone", "-13"}, ErrBelowMin},
	}
	for _, tc := range cases {
		if _, err := ApplySetting(base, tc.args); !errors.Is(err, tc.want) {
			t.Fatalf("ApplySetting(%v) error = %v, want %v", tc.args, err, tc.want)
		}
	}
}

func TestHandleSettingsUpdatesLimits(t *testing.T) {
	h, gdb := newTestHandlers(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)
	ctx := context.Background()

	h.HandleSettings(ctx, b, newTestUpdate("/settings", 401))
	if got := client.lastMessageText(t); !strings.Contains(got, "New cards per day: 10") {
		t.Fatalf("expected current settings, got %q", got)
	}

	h.HandleSettings(ctx, b, newTestUpdate("/settings new 15", 401))
	if got := client.lastMessageText(t); !strings.HasPrefix(got, "Saved.") {
		t.Fatalf("expected save confirmation, got %q", got)
	}

	h.HandleSettings(ctx, b, newTestUpdate("/settings review -5", 401))
	if got := client.lastMessageText(t); !strings.Contains(got, "too small") {
		t.Fatalf("expected too small error, got %q", got)
	}

	var stored db.UserSettings
	if err := gdb.Where("user_id = ?", 401).First(&stored).Error; err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if stored.DailyNewCards != 15 || stored.DailyReviewCards != 50 {
		t.Fatalf("unexpected stored settings: %+v", stored)
	}
}

func TestIsSettingsCommand(t *testing.T) {
	cases := map[string]bool{
		"/settings":        true,
		"/settings new 15": true,
		"/settingsfoo":     false,
		"/settings_backup": false,
		"settings new 15":  false,
		"/stats":           false,
	}
	for text, want := range cases {
		if got := isSettingsCommand(newTestUpdate(text, 1)); got != want {
			t.Fatalf("isSettingsCommand(%q) = %v, want %v", text, got, want)
		}
	}
	if isSettingsCommand(nil) {
		t.Fatalf("expected nil update not to match")
	}
}
