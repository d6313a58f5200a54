package repository

import (
	"context"
	"time"

	"github.com/eslsoft/vocquiz/internal/entity"
)

// ProgressRecord is one persisted mastery row keyed by the source sentence.
type ProgressRecord struct {
	Key            string
	LastReviewed   time.Time
	NextReview     time.Time
	CorrectStreak  int
	TotalCorrect   int
	TotalIncorrect int
}

// ProgressRecordOf extracts the persisted fields of an item.
func ProgressRecordOf(item entity.VocabularyItem) ProgressRecord {
	return ProgressRecord{
		Key:            item.Key,
		LastReviewed:   item.Mastery.LastReviewed,
		NextReview:     item.Mastery.NextReview,
		CorrectStreak:  item.Mastery.CorrectStreak,
		TotalCorrect:   item.Mastery.TotalCorrect,
		TotalIncorrect: item.Mastery.TotalIncorrect,
	}
}

// Mastery converts the record back into the entity mastery state.
func (r ProgressRecord) Mastery() entity.Mastery {
	return entity.Mastery{
		LastReviewed:   r.LastReviewed,
		NextReview:     r.NextReview,
		CorrectStreak:  r.CorrectStreak,
		TotalCorrect:   r.TotalCorrect,
		TotalIncorrect: r.TotalIncorrect,
	}
}

// VocabularySource yields the ordered sentence pairs. A missing source is not an error:
// implementations return an empty slice.
type VocabularySource interface {
	LoadPairs(ctx context.Context) ([]entity.SentencePair, error)
	ReplacePairs(ctx context.Context, pairs []entity.SentencePair) error
}

// ProgressStore persists mastery rows with full-rewrite semantics.
type ProgressStore interface {
	LoadProgress(ctx context.Context) ([]ProgressRecord, error)
	ReplaceProgress(ctx context.Context, records []ProgressRecord) error
}

// ProgressUpserter is implemented by progress stores that can write a single row.
type ProgressUpserter interface {
	UpsertProgress(ctx context.Context, record ProgressRecord) error
}

// MeaningStore persists the word/meaning bank with full-rewrite semantics.
type MeaningStore interface {
	LoadMeanings(ctx context.Context) ([]entity.MeaningItem, error)
	ReplaceMeanings(ctx context.Context, items []entity.MeaningItem) error
}

// Stores groups the three catalogue stores of one storage backend.
type Stores struct {
	Vocabulary VocabularySource
	Progress   ProgressStore
	Meanings   MeaningStore
}

// ListVocabularyQuery holds parameters for listing vocabulary items.
type ListVocabularyQuery struct {
	Pagination
	FilterOrder
}
