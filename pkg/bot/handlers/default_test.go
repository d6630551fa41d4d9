package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/smith3v/flashcard-trainer/pkg/logger"
)

func TestHandleDefaultListsCommands(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleDefault(context.Background(), b, newTestUpdate("hello?", 6001))

	got := client.lastMessageText(t)
	for _, command := range []string{"/start", "/review", "/setlimit"} {
		if !strings.Contains(got, command) {
			t.Fatalf("expected help to mention %s, got %q", command, got)
		}
	}
}
