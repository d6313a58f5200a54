package usecase

import (
	"time"

	"github.com/eslsoft/vocquiz/internal/entity"
)

// ReviewScheduler moves mastery state forward after an answer.
type ReviewScheduler struct {
	Ladder []int
}

// NewReviewScheduler returns a scheduler using entity.ReviewLadder.
func NewReviewScheduler() ReviewScheduler {
	return ReviewScheduler{Ladder: entity.ReviewLadder}
}

// Apply records one answer on m. A correct answer schedules the next review using the
// ladder rung of the streak held before the answer; an incorrect one resets the streak
// and asks again tomorrow.
func (s ReviewScheduler) Apply(m *entity.Mastery, correct bool, today time.Time) {
	if m == nil {
		return
	}
	m.Clamp()
	day := entity.Day(today)

	if correct {
		m.NextReview = day.AddDate(0, 0, s.interval(m.CorrectStreak))
		m.TotalCorrect++
		m.CorrectStreak++
	} else {
		m.TotalIncorrect++
		m.CorrectStreak = 0
		m.NextReview = day.AddDate(0, 0, 1)
	}
	m.LastReviewed = day
}

func (s ReviewScheduler) interval(streak int) int {
	ladder := s.Ladder
	if len(ladder) == 0 {
		ladder = entity.ReviewLadder
	}
	if streak >= len(ladder) {
		streak = len(ladder) - 1
	}
	return ladder[streak]
}
