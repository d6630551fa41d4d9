package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/internal/testutil"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"github.com/smith3v/flashcard-trainer/pkg/review"
	"github.com/smith3v/flashcard-trainer/pkg/store"
)

func setupReviewTest(t *testing.T, dailyLimit float64) *review.Manager {
	t.Helper()
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	now := func() time.Time { return time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC) }
	cards := store.NewGormStore(db.DB, now)
	selector := review.NewSelector(cards, dailyLimit, db.DailyNewCardOverride, now)
	manager := review.NewManager(cards, selector, now, func() int { return 2 })
	review.SetDefaultManager(manager)
	return manager
}

func TestHandleStartInitializesDeck(t *testing.T) {
	manager := setupReviewTest(t, 10)

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleStart(context.Background(), b, newTestUpdate("/start", 4001))

	got := client.lastMessageText(t)
	if !strings.Contains(got, fmt.Sprintf("%d cards", store.DeckSize())) {
		t.Fatalf("expected welcome message with deck size, got %q", got)
	}

	deck, err := manager.EnsureDeck("4001")
	if err != nil {
		t.Fatalf("EnsureDeck returned error: %v", err)
	}
	if len(deck) != store.DeckSize() {
		t.Fatalf("expected %d cards after /start, got %d", store.DeckSize(), len(deck))
	}
}

func TestHandleReviewCaughtUp(t *testing.T) {
	setupReviewTest(t, 0)

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleReview(context.Background(), b, newTestUpdate("/review", 4002))

	got := client.lastMessageText(t)
	if !strings.Contains(got, "all caught up") {
		t.Fatalf("expected caught-up message, got %q", got)
	}
}

func TestHandleReviewSendsFirstCard(t *testing.T) {
	manager := setupReviewTest(t, 2)

	if _, err := manager.EnsureDeck("4003"); err != nil {
		t.Fatalf("EnsureDeck returned error: %v", err)
	}

	client := newMockClient()
	client.response = `{"ok":true,"result":{"message_id":55}}`
	b := newTestTelegramBot(t, client)

	HandleReview(context.Background(), b, newTestUpdate("/review", 4003))

	got := client.lastMessageText(t)
	if !strings.Contains(got, "Hello") {
		t.Fatalf("expected the first deck card, got %q", got)
	}

	snapshot, ok := manager.Snapshot("4003")
	if !ok {
		t.Fatal("expected an active session after /review")
	}
	if snapshot.MessageID != 55 {
		t.Fatalf("expected the sent message to be bound, got message id %d", snapshot.MessageID)
	}
	if snapshot.Revealed {
		t.Fatal("expected a fresh prompt to start unrevealed")
	}
}

func TestRevealThenGradeFlow(t *testing.T) {
	manager := setupReviewTest(t, 2)

	if _, err := manager.EnsureDeck("4004"); err != nil {
		t.Fatalf("EnsureDeck returned error: %v", err)
	}

	client := newMockClient()
	client.response = `{"ok":true,"result":{"message_id":55}}`
	b := newTestTelegramBot(t, client)

	HandleReview(context.Background(), b, newTestUpdate("/review", 4004))

	snapshot, ok := manager.Snapshot("4004")
	if !ok {
		t.Fatal("expected an active session")
	}

	reveal := newTestCallbackUpdate(review.RevealCallbackPrefix+snapshot.Token, 4004, 4004, snapshot.MessageID)
	HandleRevealCallback(context.Background(), b, reveal)

	snapshot, ok = manager.Snapshot("4004")
	if !ok || !snapshot.Revealed {
		t.Fatal("expected the card to be revealed")
	}

	grade := newTestCallbackUpdate(
		fmt.Sprintf("%s%s:%s", review.GradeCallbackPrefix, snapshot.Token, "good"),
		4004, 4004, snapshot.MessageID)
	HandleGradeCallback(context.Background(), b, grade)

	var updated db.Flashcard
	if err := db.DB.Where("id = ?", snapshot.CardID).First(&updated).Error; err != nil {
		t.Fatalf("failed to load the graded card: %v", err)
	}
	if updated.RepetitionCount != 1 || updated.Interval != 1 {
		t.Fatalf("expected the grade to be persisted, got reps=%d interval=%d",
			updated.RepetitionCount, updated.Interval)
	}

	texts := client.messageTexts(t)
	var sawNext bool
	for _, text := range texts {
		if strings.Contains(text, "Thank you") {
			sawNext = true
		}
	}
	if !sawNext {
		t.Fatalf("expected the next card to be sent, got %q", texts)
	}
}

// brittleStore delegates to an inner store but starts rejecting reads once a
// write has gone through.
type brittleStore struct {
	inner         store.CardStore
	failAfterSave bool
	saved         bool
}

func (s *brittleStore) ListAll(userID string) ([]db.Flashcard, error) {
	if s.failAfterSave && s.saved {
		return nil, errors.New("read rejected")
	}
	return s.inner.ListAll(userID)
}

func (s *brittleStore) GetByID(cardID string) (db.Flashcard, error) {
	return s.inner.GetByID(cardID)
}

func (s *brittleStore) Update(card db.Flashcard) (db.Flashcard, error) {
	updated, err := s.inner.Update(card)
	if err == nil {
		s.saved = true
	}
	return updated, err
}

func (s *brittleStore) InitializeDeck(userID string) ([]db.Flashcard, error) {
	return s.inner.InitializeDeck(userID)
}

func TestGradeCallbackReportsNextCardFetchFailure(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	now := func() time.Time { return time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC) }
	cards := &brittleStore{inner: store.NewGormStore(db.DB, now), failAfterSave: true}
	selector := review.NewSelector(cards, 2, nil, now)
	manager := review.NewManager(cards, selector, now, func() int { return 2 })
	review.SetDefaultManager(manager)

	if _, err := manager.EnsureDeck("4007"); err != nil {
		t.Fatalf("EnsureDeck returned error: %v", err)
	}

	client := newMockClient()
	client.response = `{"ok":true,"result":{"message_id":55}}`
	b := newTestTelegramBot(t, client)

	HandleReview(context.Background(), b, newTestUpdate("/review", 4007))

	snapshot, ok := manager.Snapshot("4007")
	if !ok {
		t.Fatal("expected an active session")
	}

	reveal := newTestCallbackUpdate(review.RevealCallbackPrefix+snapshot.Token, 4007, 4007, snapshot.MessageID)
	HandleRevealCallback(context.Background(), b, reveal)

	grade := newTestCallbackUpdate(
		fmt.Sprintf("%s%s:%s", review.GradeCallbackPrefix, snapshot.Token, "good"),
		4007, 4007, snapshot.MessageID)
	HandleGradeCallback(context.Background(), b, grade)

	// The grade itself must have been saved before the read started failing.
	var updated db.Flashcard
	if err := db.DB.Where("id = ?", snapshot.CardID).First(&updated).Error; err != nil {
		t.Fatalf("failed to load the graded card: %v", err)
	}
	if updated.RepetitionCount != 1 {
		t.Fatalf("expected the grade to be persisted, got reps=%d", updated.RepetitionCount)
	}

	got := client.lastMessageText(t)
	if !strings.Contains(got, "send /review") {
		t.Fatalf("expected a retryable fetch-failure message, got %q", got)
	}
}

func TestRevealCallbackRejectsStaleToken(t *testing.T) {
	manager := setupReviewTest(t, 2)

	if _, err := manager.EnsureDeck("4005"); err != nil {
		t.Fatalf("EnsureDeck returned error: %v", err)
	}

	client := newMockClient()
	client.response = `{"ok":true,"result":{"message_id":55}}`
	b := newTestTelegramBot(t, client)

	HandleReview(context.Background(), b, newTestUpdate("/review", 4005))

	snapshot, ok := manager.Snapshot("4005")
	if !ok {
		t.Fatal("expected an active session")
	}

	reveal := newTestCallbackUpdate(review.RevealCallbackPrefix+"stale", 4005, 4005, snapshot.MessageID)
	HandleRevealCallback(context.Background(), b, reveal)

	snapshot, ok = manager.Snapshot("4005")
	if !ok {
		t.Fatal("expected the session to stay active")
	}
	if snapshot.Revealed {
		t.Fatal("expected a stale token to be rejected")
	}
}

func TestGradeCallbackRequiresReveal(t *testing.T) {
	manager := setupReviewTest(t, 2)

	if _, err := manager.EnsureDeck("4006"); err != nil {
		t.Fatalf("EnsureDeck returned error: %v", err)
	}

	client := newMockClient()
	client.response = `{"ok":true,"result":{"message_id":55}}`
	b := newTestTelegramBot(t, client)

	HandleReview(context.Background(), b, newTestUpdate("/review", 4006))

	snapshot, ok := manager.Snapshot("4006")
	if !ok {
		t.Fatal("expected an active session")
	}

	grade := newTestCallbackUpdate(
		fmt.Sprintf("%s%s:%s", review.GradeCallbackPrefix, snapshot.Token, "good"),
		4006, 4006, snapshot.MessageID)
	HandleGradeCallback(context.Background(), b, grade)

	var card db.Flashcard
	if err := db.DB.Where("id = ?", snapshot.CardID).First(&card).Error; err != nil {
		t.Fatalf("failed to load the card: %v", err)
	}
	if card.RepetitionCount != 0 {
		t.Fatalf("expected the unrevealed card to stay ungraded, got reps=%d", card.RepetitionCount)
	}
}
