package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"github.com/smith3v/flashcard-trainer/pkg/review"
)

func HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleStart")
		return
	}

	userID := strconv.FormatInt(update.Message.From.ID, 10)
	cards, err := review.DefaultManager.EnsureDeck(userID)
	if err != nil {
		logger.Error("failed to initialize deck", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to set up your deck. Please try again later.",
		})
		return
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text: fmt.Sprintf("Welcome! Your deck holds %d cards.\n"+
			"Send /review to study the cards that are due today.", len(cards)),
	}); err != nil {
		logger.Error("failed to send welcome message", "user_id", userID, "error", err)
	}
}
