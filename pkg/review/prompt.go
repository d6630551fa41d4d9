package review

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/srs"
)

const (
	RevealCallbackPrefix = "r:show:"
	GradeCallbackPrefix  = "r:grade:"
)

// BuildFrontText renders the prompt side of a card.
func BuildFrontText(card db.Flashcard) string {
	return fmt.Sprintf("*%s*", bot.EscapeMarkdown(card.Front))
}

// BuildBackText renders the revealed card: prompt plus answer.
func BuildBackText(card db.Flashcard) string {
	return fmt.Sprintf("*%s*\n%s", bot.EscapeMarkdown(card.Front), bot.EscapeMarkdown(card.Back))
}

func BuildRevealKeyboard(token string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Show answer", CallbackData: RevealCallbackPrefix + token},
			},
		},
	}
}

func BuildGradeKeyboard(token string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Again", CallbackData: fmt.Sprintf("%s%s:%s", GradeCallbackPrefix, token, srs.GradeAgain)},
				{Text: "Good", CallbackData: fmt.Sprintf("%s%s:%s", GradeCallbackPrefix, token, srs.GradeGood)},
				{Text: "Easy", CallbackData: fmt.Sprintf("%s%s:%s", GradeCallbackPrefix, token, srs.GradeEasy)},
			},
		},
	}
}

// ParseRevealCallback extracts the prompt token from a reveal callback.
func ParseRevealCallback(data string) (string, bool) {
	if !strings.HasPrefix(data, RevealCallbackPrefix) {
		return "", false
	}
	token := strings.TrimPrefix(data, RevealCallbackPrefix)
	if token == "" || strings.Contains(token, ":") {
		return "", false
	}
	return token, true
}

// ParseGradeCallback extracts the prompt token and grade from a grade
// callback.
func ParseGradeCallback(data string) (string, srs.Grade, bool) {
	if !strings.HasPrefix(data, GradeCallbackPrefix) {
		return "", "", false
	}
	parts := strings.Split(strings.TrimPrefix(data, GradeCallbackPrefix), ":")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	switch srs.Grade(parts[1]) {
	case srs.GradeAgain:
		return parts[0], srs.GradeAgain, true
	case srs.GradeGood:
		return parts[0], srs.GradeGood, true
	case srs.GradeEasy:
		return parts[0], srs.GradeEasy, true
	default:
		return "", "", false
	}
}

// FormatResolvedText appends the chosen grade to a resolved prompt.
func FormatResolvedText(prompt string, grade srs.Grade) string {
	label := GradeLabel(grade)
	if prompt == "" {
		return label
	}
	return fmt.Sprintf("%s\n_%s_", prompt, label)
}

func GradeLabel(grade srs.Grade) string {
	switch grade {
	case srs.GradeAgain:
		return "Again"
	case srs.GradeGood:
		return "Good"
	case srs.GradeEasy:
		return "Easy"
	default:
		return "Unknown"
	}
}
