package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/srs"
)

// cardIDNamespace seeds the deterministic card ids. Ids are derived from
// userID and deck position so that re-initialization after a partial failure
// converges to the same ids.
var cardIDNamespace = uuid.MustParse("7f9c24e5-2f8a-4b1d-9c3e-5d1a6b8e0f42")

type deckEntry struct {
	front string
	back  string
}

// starterDeck is the fixed set every new learner begins with.
var starterDeck = []deckEntry{
	{"Hello", "Olá"},
	{"Thank you", "Obrigado / Obrigada"},
	{"Please", "Por favor"},
	{"Good morning", "Bom dia"},
	{"Good night", "Boa noite"},
	{"Yes", "Sim"},
	{"No", "Não"},
	{"Excuse me", "Com licença"},
	{"Where is the bathroom?", "Onde é o banheiro?"},
	{"I need help", "Eu preciso de ajuda"},
}

// DeckSize is the number of cards in the starter deck.
func DeckSize() int {
	return len(starterDeck)
}

// CardID returns the stable id of the card at the given deck position for a
// user.
func CardID(userID string, position int) string {
	return uuid.NewSHA1(cardIDNamespace, []byte(fmt.Sprintf("%s:%d", userID, position))).String()
}

// NewDeck builds the starter deck for a user. Cards start new: repetition
// count 0, interval 0, ease 2.5, due immediately.
func NewDeck(userID string, now time.Time) []db.Flashcard {
	cards := make([]db.Flashcard, 0, len(starterDeck))
	for i, entry := range starterDeck {
		cards = append(cards, db.Flashcard{
			ID:              CardID(userID, i),
			UserID:          userID,
			Front:           entry.front,
			Back:            entry.back,
			CreatedAt:       now,
			UpdatedAt:       now,
			LastReviewDate:  now,
			NextReviewDate:  now,
			Interval:        0,
			RepetitionCount: 0,
			EaseFactor:      srs.InitialEase,
			NewRank:         i,
		})
	}
	return cards
}
