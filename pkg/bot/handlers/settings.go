package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"github.com/smith3v/flashcard-trainer/pkg/review"
)

const (
	MinDailyNewCards = 0
	MaxDailyNewCards = 100
)

var (
	ErrBelowMin = errors.New("value below minimum")
	ErrAboveMax = errors.New("value above maximum")
)

// HandleSetLimit sets the per-user daily new-card limit. The override lives
// in the database, so the command is unavailable on the file backend.
func HandleSetLimit(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleSetLimit")
		return
	}

	if db.DB == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Per-user limits are not available with file storage.",
		})
		return
	}

	userID := strconv.FormatInt(update.Message.From.ID, 10)
	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/setlimit"))

	if arg == "" {
		limit := review.DefaultDailyNewLimit
		if override, ok := db.DailyNewCardOverride(userID); ok {
			limit = override
		}
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text: fmt.Sprintf("Your daily new-card limit is %d.\n"+
				"Send /setlimit <number> to change it.", limit),
		})
		return
	}

	limit, err := parseLimitArg(arg)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text: fmt.Sprintf("Please send a whole number between %d and %d, e.g. /setlimit 10.",
				MinDailyNewCards, MaxDailyNewCards),
		})
		return
	}

	var settings db.UserSettings
	if err := db.DB.Where("user_id = ?", userID).
		Assign(db.UserSettings{DailyNewCards: limit}).
		FirstOrCreate(&settings).Error; err != nil {
		logger.Error("failed to save daily new-card limit", "user_id", userID, "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Failed to save your limit. Please try again later.",
		})
		return
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   fmt.Sprintf("Daily new-card limit set to %d.", limit),
	}); err != nil {
		logger.Error("failed to confirm new limit", "user_id", userID, "error", err)
	}
}

func parseLimitArg(arg string) (int, error) {
	limit, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q: %w", arg, err)
	}
	if limit < MinDailyNewCards {
		return 0, ErrBelowMin
	}
	if limit > MaxDailyNewCards {
		return 0, ErrAboveMax
	}
	return limit, nil
}
