// pkg/db/models.go
package db

import (
	"time"
)

// Flashcard is one card of a learner's deck together with its scheduling
// state. RepetitionCount 0 means the card has never been reviewed
// successfully; such cards are "new" and enter sessions through the daily
// new-card cap instead of the due-date check.
type Flashcard struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"index;index:idx_user_due" json:"userId"`
	Front           string    `gorm:"not null" json:"front"`
	Back            string    `gorm:"not null" json:"back"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	LastReviewDate  time.Time `json:"lastReviewDate"`
	NextReviewDate  time.Time `gorm:"index:idx_user_due" json:"nextReviewDate"`
	Interval        int       `gorm:"not null;default:0" json:"interval"`
	RepetitionCount int       `gorm:"not null;default:0" json:"repetitionCount"`
	EaseFactor      float64   `gorm:"not null;default:2.5" json:"easeFactor"`
	NewRank         int       `gorm:"not null;default:0" json:"newRank"` // deck position, tiebreak for new-card ordering
}

// NormalizeTimes replaces zero-value timestamps with now so that a partially
// populated update still produces a usable record.
func (c *Flashcard) NormalizeTimes(now time.Time) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.LastReviewDate.IsZero() {
		c.LastReviewDate = now
	}
	if c.NextReviewDate.IsZero() {
		c.NextReviewDate = now
	}
}

type UserSettings struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        string `gorm:"index"`
	DailyNewCards int    `gorm:"not null;default:-1"` // -1 means "use the configured default"
}
