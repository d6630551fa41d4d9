package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"github.com/smith3v/flashcard-trainer/pkg/review"
)

func HandleReview(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleReview")
		return
	}

	if update.Message.Chat.Type != models.ChatTypePrivate {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "The /review command works only in private chat.",
		})
		return
	}

	userID := strconv.FormatInt(update.Message.From.ID, 10)
	manager := review.DefaultManager
	manager.StartOrRestart(userID)

	card, token, err := manager.NextCard(userID)
	if err != nil {
		logger.Error("failed to pick the next card", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to start the review. Please try again later.",
		})
		return
	}
	if card == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "You are all caught up. Nothing is due right now.",
		})
		return
	}

	sendCardPrompt(ctx, b, update.Message.Chat.ID, userID, *card, token)
}

func HandleRevealCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleRevealCallback")
		return
	}

	answerCallback := callbackAnswerer(ctx, b, update.CallbackQuery.ID)

	token, ok := review.ParseRevealCallback(update.CallbackQuery.Data)
	if !ok {
		answerCallback("Not active")
		return
	}

	msg := callbackMessage(update)
	if msg == nil {
		answerCallback("Message missing")
		return
	}

	userID := strconv.FormatInt(update.CallbackQuery.From.ID, 10)
	manager := review.DefaultManager

	snapshot, ok := manager.Snapshot(userID)
	if !ok || snapshot.Token != token || snapshot.MessageID != msg.ID {
		answerCallback("Not active")
		return
	}
	if !manager.MarkRevealed(userID, token) {
		answerCallback("Not active")
		return
	}

	card, err := manager.CurrentCard(userID)
	if err != nil {
		logger.Error("failed to load the current card", "user_id", userID, "error", err)
		answerCallback("Failed to show the answer")
		return
	}

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        review.BuildBackText(card),
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: review.BuildGradeKeyboard(token),
	}); err != nil {
		logger.Error("failed to reveal the card", "user_id", userID, "error", err)
	}
	answerCallback("")
}

func HandleGradeCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleGradeCallback")
		return
	}

	answerCallback := callbackAnswerer(ctx, b, update.CallbackQuery.ID)

	token, grade, ok := review.ParseGradeCallback(update.CallbackQuery.Data)
	if !ok {
		answerCallback("Not active")
		return
	}

	msg := callbackMessage(update)
	if msg == nil {
		answerCallback("Message missing")
		return
	}

	userID := strconv.FormatInt(update.CallbackQuery.From.ID, 10)
	manager := review.DefaultManager

	snapshot, ok := manager.Snapshot(userID)
	if !ok || snapshot.Token != token || snapshot.MessageID != msg.ID || !snapshot.Revealed {
		answerCallback("Not active")
		return
	}

	card, err := manager.SubmitReview(userID, snapshot.CardID, grade)
	if err != nil {
		logger.Error("failed to save the review", "user_id", userID, "card_id", snapshot.CardID, "error", err)
		answerCallback("Failed to save the review")
		return
	}

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      review.FormatResolvedText(review.BuildBackText(card), grade),
		ParseMode: models.ParseModeMarkdown,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{},
		},
	}); err != nil {
		logger.Error("failed to edit the graded prompt", "user_id", userID, "error", err)
	}
	answerCallback("")

	next, nextToken, err := manager.NextCard(userID)
	if err != nil {
		logger.Error("failed to pick the next card", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   "Failed to fetch the next card. Please send /review to continue.",
		})
		return
	}
	if next == nil {
		reviewed := snapshot.Reviewed + 1
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   fmt.Sprintf("Session complete. You reviewed %d cards.", reviewed),
		})
		return
	}

	sendCardPrompt(ctx, b, msg.Chat.ID, userID, *next, nextToken)
}

// sendCardPrompt sends the front of a card with its reveal button and binds
// the sent message to the session.
func sendCardPrompt(ctx context.Context, b *bot.Bot, chatID int64, userID string, card db.Flashcard, token string) {
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        review.BuildFrontText(card),
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: review.BuildRevealKeyboard(token),
	})
	if err != nil {
		logger.Error("failed to send card prompt", "user_id", userID, "error", err)
		return
	}
	review.DefaultManager.SetCurrentMessageID(userID, msg.ID)
}

func callbackAnswerer(ctx context.Context, b *bot.Bot, callbackID string) func(string) {
	return func(text string) {
		if callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer callback query", "error", err)
		}
	}
}

func callbackMessage(update *models.Update) *models.Message {
	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil {
		return nil
	}
	if message.Message.Chat.ID == 0 {
		return nil
	}
	return message.Message
}
