package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/smith3v/flashcard-trainer/pkg/db"
)

// Grade is the learner's self-reported recall quality for a card.
type Grade string

const (
	GradeAgain Grade = "again"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

var ErrInvalidGrade = errors.New("invalid grade")

const (
	EaseFloor   = 1.3
	InitialEase = 2.5

	easyBonus = 1.5
)

// Quality maps a grade onto the SM-2 quality scale.
func (g Grade) Quality() (int, error) {
	switch g {
	case GradeAgain:
		return 0, nil
	case GradeGood:
		return 3, nil
	case GradeEasy:
		return 5, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, string(g))
	}
}

// Result is the scheduling state a graded review produces.
type Result struct {
	Interval        int
	RepetitionCount int
	EaseFactor      float64
	NextReviewDate  time.Time
}

// Compute derives the next scheduling state for a card from a grade. It is a
// pure function of its arguments; the card itself is not modified.
//
// A failed recall (quality < 3) keeps the repetition count, zeroes the
// interval, and leaves the card due now. Re-ordering within the day is the
// session queue's job, not the scheduler's.
func Compute(card db.Flashcard, grade Grade, now time.Time) (Result, error) {
	quality, err := grade.Quality()
	if err != nil {
		return Result{}, err
	}

	ease := card.EaseFactor
	switch quality {
	case 0:
		ease -= 0.32
	case 3:
		ease -= 0.16
	case 5:
		ease += 0.10
	}
	if ease < EaseFloor {
		ease = EaseFloor
	}

	if quality < 3 {
		return Result{
			Interval:        0,
			RepetitionCount: card.RepetitionCount,
			EaseFactor:      ease,
			NextReviewDate:  now,
		}, nil
	}

	reps := card.RepetitionCount + 1
	var interval int
	switch {
	case reps == 1:
		interval = 1
	case reps == 2:
		interval = 6
	default:
		interval = int(math.Round(float64(card.Interval) * ease))
	}
	if quality == 5 {
		interval = int(math.Round(float64(interval) * easyBonus))
	}
	if interval < 1 {
		interval = 1
	}

	return Result{
		Interval:        interval,
		RepetitionCount: reps,
		EaseFactor:      ease,
		NextReviewDate:  now.AddDate(0, 0, interval),
	}, nil
}
