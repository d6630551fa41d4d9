package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"github.com/smith3v/flashcard-trainer/pkg/srs"
)

// FileStore keeps the full record set in one JSON file. Every write rewrites
// the whole set into a temporary file and renames it over the previous one,
// so readers never observe a half-written set. A mutex serializes
// read-modify-write cycles so concurrent updates to different cards cannot
// lose each other's writes.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileStore(path string, now func() time.Time) *FileStore {
	if now == nil {
		now = time.Now
	}
	return &FileStore{path: path, now: now}
}

// fileRecord is the on-disk shape of a card. Timestamps are RFC 3339 strings.
type fileRecord struct {
	ID              string  `json:"id"`
	UserID          string  `json:"userId"`
	Front           string  `json:"front"`
	Back            string  `json:"back"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
	LastReviewDate  string  `json:"lastReviewDate"`
	NextReviewDate  string  `json:"nextReviewDate"`
	Interval        int     `json:"interval"`
	RepetitionCount int     `json:"repetitionCount"`
	EaseFactor      float64 `json:"easeFactor"`
	NewRank         int     `json:"newRank"`
}

func (s *FileStore) ListAll(userID string) ([]db.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards, err := s.readAll()
	if err != nil {
		return nil, err
	}
	owned := make([]db.Flashcard, 0, len(cards))
	for _, card := range cards {
		if card.UserID == userID {
			owned = append(owned, card)
		}
	}
	return owned, nil
}

func (s *FileStore) GetByID(cardID string) (db.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards, err := s.readAll()
	if err != nil {
		return db.Flashcard{}, err
	}
	for _, card := range cards {
		if card.ID == cardID {
			return card, nil
		}
	}
	return db.Flashcard{}, ErrNotFound
}

func (s *FileStore) Update(card db.Flashcard) (db.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards, err := s.readAll()
	if err != nil {
		return db.Flashcard{}, err
	}
	index := -1
	for i := range cards {
		if cards[i].ID == card.ID {
			index = i
			break
		}
	}
	if index == -1 {
		return db.Flashcard{}, ErrNotFound
	}

	now := s.now()
	card.NormalizeTimes(now)
	card.UpdatedAt = now
	cards[index] = card

	if err := s.writeAll(cards); err != nil {
		return db.Flashcard{}, err
	}
	return card, nil
}

func (s *FileStore) InitializeDeck(userID string) ([]db.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards, err := s.readAll()
	if err != nil {
		return nil, err
	}
	existing := make([]db.Flashcard, 0)
	for _, card := range cards {
		if card.UserID == userID {
			existing = append(existing, card)
		}
	}
	if len(existing) > 0 {
		return existing, nil
	}

	deck := NewDeck(userID, s.now())
	if err := s.writeAll(append(cards, deck...)); err != nil {
		return nil, err
	}
	logger.Info("initialized starter deck", "user_id", userID, "cards", len(deck))
	return deck, nil
}

func (s *FileStore) readAll() ([]db.Flashcard, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read card file: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse card file: %w", err)
	}

	now := s.now()
	cards := make([]db.Flashcard, 0, len(raw))
	for _, entry := range raw {
		card, ok := s.hydrate(entry, now)
		if !ok {
			// One corrupt record must not block the session for every
			// other card.
			logger.Error("dropping malformed card record", "file", s.path)
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (s *FileStore) hydrate(entry json.RawMessage, now time.Time) (db.Flashcard, bool) {
	var record fileRecord
	if err := json.Unmarshal(entry, &record); err != nil {
		return db.Flashcard{}, false
	}
	if record.ID == "" || record.UserID == "" || record.Front == "" || record.Back == "" {
		return db.Flashcard{}, false
	}
	if record.Interval < 0 {
		record.Interval = 0
	}
	if record.RepetitionCount < 0 {
		record.RepetitionCount = 0
	}
	if record.EaseFactor <= 0 {
		record.EaseFactor = srs.InitialEase
	}
	return db.Flashcard{
		ID:              record.ID,
		UserID:          record.UserID,
		Front:           record.Front,
		Back:            record.Back,
		CreatedAt:       parseTime(record.CreatedAt, now),
		UpdatedAt:       parseTime(record.UpdatedAt, now),
		LastReviewDate:  parseTime(record.LastReviewDate, now),
		NextReviewDate:  parseTime(record.NextReviewDate, now),
		Interval:        record.Interval,
		RepetitionCount: record.RepetitionCount,
		EaseFactor:      record.EaseFactor,
		NewRank:         record.NewRank,
	}, true
}

func parseTime(value string, fallback time.Time) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s *FileStore) writeAll(cards []db.Flashcard) error {
	records := make([]fileRecord, 0, len(cards))
	for _, card := range cards {
		records = append(records, fileRecord{
			ID:              card.ID,
			UserID:          card.UserID,
			Front:           card.Front,
			Back:            card.Back,
			CreatedAt:       card.CreatedAt.UTC().Format(time.RFC3339Nano),
			UpdatedAt:       card.UpdatedAt.UTC().Format(time.RFC3339Nano),
			LastReviewDate:  card.LastReviewDate.UTC().Format(time.RFC3339Nano),
			NextReviewDate:  card.NextReviewDate.UTC().Format(time.RFC3339Nano),
			Interval:        card.Interval,
			RepetitionCount: card.RepetitionCount,
			EaseFactor:      card.EaseFactor,
			NewRank:         card.NewRank,
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode card file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create card directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write card file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace card file: %w", err)
	}
	return nil
}
