package usecase

import (
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/vocquiz/internal/entity"
)

const (
	difficultAccuracyBelow    = 0.5
	difficultIncorrectAtLeast = 5
)

// SelectEligible returns the items quizzable in mode, preserving input order. For
// incorrect_review only keys listed in missedKeys qualify, so an empty list selects nothing.
func SelectEligible(items []entity.VocabularyItem, mode entity.QuizMode, today time.Time, missedKeys []string) ([]entity.VocabularyItem, error) {
	switch mode {
	case entity.QuizModeRandom:
		return append([]entity.VocabularyItem{}, items...), nil
	case entity.QuizModeReview:
		return lo.Filter(items, func(item entity.VocabularyItem, _ int) bool {
			return item.DueOn(today)
		}), nil
	case entity.QuizModeDifficult:
		return lo.Filter(items, func(item entity.VocabularyItem, _ int) bool {
			return isDifficult(item.Mastery)
		}), nil
	case entity.QuizModeIncorrectReview:
		missed := lo.SliceToMap(missedKeys, func(key string) (string, struct{}) { return key, struct{}{} })
		return lo.Filter(items, func(item entity.VocabularyItem, _ int) bool {
			_, ok := missed[item.Key]
			return ok
		}), nil
	default:
		return nil, entity.ErrInvalidQuizMode
	}
}

// SelectEligibleMeanings applies the modes that make sense without mastery state.
func SelectEligibleMeanings(items []entity.MeaningItem, mode entity.QuizMode, missedKeys []string) ([]entity.MeaningItem, error) {
	switch mode {
	case entity.QuizModeRandom:
		return append([]entity.MeaningItem{}, items...), nil
	case entity.QuizModeIncorrectReview:
		missed := lo.SliceToMap(missedKeys, func(key string) (string, struct{}) { return key, struct{}{} })
		return lo.Filter(items, func(item entity.MeaningItem, _ int) bool {
			_, ok := missed[item.Word]
			return ok
		}), nil
	default:
		return nil, entity.ErrInvalidQuizMode
	}
}

func isDifficult(m entity.Mastery) bool {
	return m.Accuracy() < difficultAccuracyBelow || m.TotalIncorrect >= difficultIncorrectAtLeast
}
