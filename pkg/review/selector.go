package review

import (
	"math"
	"sort"
	"time"

	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/store"
)

// DefaultDailyNewLimit caps how many never-reviewed cards enter a day when
// the configuration does not provide a usable value.
const DefaultDailyNewLimit = 10

// SettingsSource supplies an optional per-user override of the daily
// new-card limit.
type SettingsSource func(userID string) (int, bool)

// Selector produces the prioritized sequence of cards eligible for review:
// due review cards first (most overdue leading), then new cards up to the
// daily limit, in stable introduction order.
type Selector struct {
	cards    store.CardStore
	limit    int
	settings SettingsSource
	now      func() time.Time
}

func NewSelector(cards store.CardStore, dailyLimit float64, settings SettingsSource, now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{
		cards:    cards,
		limit:    NormalizeDailyLimit(dailyLimit),
		settings: settings,
		now:      now,
	}
}

// NormalizeDailyLimit floors a configured limit to a non-negative integer,
// falling back to the default when the value is negative or not finite.
func NormalizeDailyLimit(limit float64) int {
	if math.IsNaN(limit) || math.IsInf(limit, 0) || limit < 0 {
		return DefaultDailyNewLimit
	}
	return int(math.Floor(limit))
}

// DueCards returns every card eligible for review now. Review cards always
// precede new cards; the new-card tail is capped by the daily limit.
func (s *Selector) DueCards(userID string) ([]db.Flashcard, error) {
	cards, err := s.cards.ListAll(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var reviews, fresh []db.Flashcard
	for _, card := range cards {
		if card.RepetitionCount > 0 {
			if !card.NextReviewDate.After(now) {
				reviews = append(reviews, card)
			}
		} else {
			fresh = append(fresh, card)
		}
	}

	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].NextReviewDate.Before(reviews[j].NextReviewDate)
	})
	sort.SliceStable(fresh, func(i, j int) bool {
		a, b := fresh[i], fresh[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.NewRank != b.NewRank {
			return a.NewRank < b.NewRank
		}
		return a.ID < b.ID
	})

	limit := s.limitFor(userID)
	if len(fresh) > limit {
		fresh = fresh[:limit]
	}
	return append(reviews, fresh...), nil
}

// NextCard returns the first due card that passes the exclude/include
// filters, or nil when nothing matches. A nil includeIDs leaves the pool
// unrestricted; a non-nil one restricts the result to exactly those ids.
func (s *Selector) NextCard(userID string, excludeIDs, includeIDs []string) (*db.Flashcard, error) {
	due, err := s.DueCards(userID)
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = true
	}
	var include map[string]bool
	if includeIDs != nil {
		include = make(map[string]bool, len(includeIDs))
		for _, id := range includeIDs {
			include[id] = true
		}
	}

	for i := range due {
		if exclude[due[i].ID] {
			continue
		}
		if include != nil && !include[due[i].ID] {
			continue
		}
		card := due[i]
		return &card, nil
	}
	return nil, nil
}

func (s *Selector) limitFor(userID string) int {
	if s.settings != nil {
		if limit, ok := s.settings(userID); ok && limit >= 0 {
			return limit
		}
	}
	return s.limit
}
