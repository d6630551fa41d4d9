package store

import (
	"errors"
	"time"

	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"gorm.io/gorm"
)

// GormStore implements CardStore on a relational database. Transactions give
// the same guarantee the file backend gets from its atomic rename: a reader
// never observes a partially applied write.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(gdb *gorm.DB, now func() time.Time) *GormStore {
	if now == nil {
		now = time.Now
	}
	return &GormStore{db: gdb, now: now}
}

func (s *GormStore) ListAll(userID string) ([]db.Flashcard, error) {
	var cards []db.Flashcard
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at ASC, new_rank ASC, id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *GormStore) GetByID(cardID string) (db.Flashcard, error) {
	var card db.Flashcard
	err := s.db.Where("id = ?", cardID).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Flashcard{}, ErrNotFound
	}
	if err != nil {
		return db.Flashcard{}, err
	}
	return card, nil
}

func (s *GormStore) Update(card db.Flashcard) (db.Flashcard, error) {
	now := s.now()
	card.NormalizeTimes(now)
	card.UpdatedAt = now

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.Flashcard
		if err := tx.Where("id = ?", card.ID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.Save(&card).Error
	})
	if err != nil {
		return db.Flashcard{}, err
	}
	return card, nil
}

func (s *GormStore) InitializeDeck(userID string) ([]db.Flashcard, error) {
	var cards []db.Flashcard
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ?", userID).
			Order("created_at ASC, new_rank ASC, id ASC").
			Find(&cards).Error; err != nil {
			return err
		}
		if len(cards) > 0 {
			return nil
		}
		cards = NewDeck(userID, s.now())
		if err := tx.Create(&cards).Error; err != nil {
			return err
		}
		logger.Info("initialized starter deck", "user_id", userID, "cards", len(cards))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}
