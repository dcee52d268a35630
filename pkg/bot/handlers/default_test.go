package handlers

import (
	"context"
	"strings"
	"testing"
)

func TestDefaultAddsVocabularyItem(t *testing.T) {
	h, _ := newTestHandlers(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	h.Default(context.Background(), b, newTestUpdate("  hola =  hello ", 301))
	if got := client.lastMessageText(t); got != "Added: hola = hello" {
		t.Fatalf("unexpected reply %q", got)
	}

	h.Default(context.Background(), b, newTestUpdate("hola = hi", 301))
	if got := client.lastMessageText(t); !strings.Contains(got, "already in your vocabulary") {
		t.Fatalf("expected duplicate notice, got %q", got)
	}

	h.Default(context.Background(), b, newTestUpdate("gato =", 301))
	if got := client.lastMessageText(t); !strings.Contains(got, "required") {
		t.Fatalf("expected missing translation notice, got %q", got)
	}

	ids, err := h.catalog.ItemIDs(301)
	if err != nil {
		t.Fatalf("ItemIDs: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected one catalog item, got %d", len(ids))
	}
}

func TestDefaultShowsHelp(t *testing.T) {
	h, _ := newTestHandlers(t)
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	h.Default(context.Background(), b, newTestUpdate("what now?", 302))
	if got := client.lastMessageText(t); !strings.Contains(got, "Commands:") {
		t.Fatalf("expected help text, got %q", got)
	}
}

func TestParseVocabularyLine(t *testing.T) {
	cases := []struct {
		in          string
		word, trans string
		ok          bool
	}{
		{"hola = hello", "hola", "hello", true},
		{"a = b = c", "a", "b = c", true},
		{"no separator", "", "", false},
		{"/settings = x", "", "", false},
	}
	for _, tc := range cases {
		word, trans, ok := ParseVocabularyLine(tc.in)
		if word != tc.word || trans != tc.trans || ok != tc.ok {
			t.Fatalf("ParseVocabularyLine(%q) = %q, %q, %v", tc.in, word, trans, ok)
		}
	}
}
