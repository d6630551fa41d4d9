package store

import (
	"errors"

	"github.com/smith3v/flashcard-trainer/pkg/db"
)

// ErrNotFound is returned when a card id has no stored record.
var ErrNotFound = errors.New("card not found")

// CardStore is the persistence contract the review core depends on. Writes
// are last-writer-wins and atomic from a reader's point of view: a reader
// never observes a partially written record set.
type CardStore interface {
	// ListAll returns every card owned by the user, unfiltered.
	ListAll(userID string) ([]db.Flashcard, error)
	// GetByID returns the card with the given id or ErrNotFound.
	GetByID(cardID string) (db.Flashcard, error)
	// Update overwrites the stored record in full and returns the persisted
	// card with UpdatedAt refreshed. Zero-value timestamps on the incoming
	// card are normalized to now instead of rejecting the write.
	Update(card db.Flashcard) (db.Flashcard, error)
	// InitializeDeck creates the starter deck for a user who owns no cards
	// yet and returns the user's cards. It is idempotent: re-initialization
	// returns the existing set unchanged.
	InitializeDeck(userID string) ([]db.Flashcard, error)
}
