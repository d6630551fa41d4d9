package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
)

func HandleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleDefault")
		return
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text: "Commands:\n" +
			"* /start: set up your deck\n" +
			"* /review: study the cards due today\n" +
			"* /setlimit <number>: cap how many new cards you see per day",
	}); err != nil {
		logger.Error("failed to send help message", "error", err)
	}
}
