package usecase

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
	"github.com/eslsoft/vocquiz/pkg/filterexpr"
)

// VocabularyUsecase answers read-only questions about the catalogue.
type VocabularyUsecase interface {
	ListVocabulary(ctx context.Context, query *repository.ListVocabularyQuery) ([]entity.VocabularyItem, int64, error)
	Stats(ctx context.Context) (*CatalogStats, error)
}

// CatalogStats summarises how much of the catalogue each quiz mode would select today.
type CatalogStats struct {
	Total     int
	Due       int
	Difficult int
	Reviewed  int
	Meanings  int
}

// NewVocabularyUsecase wires the catalogue with default behaviour.
func NewVocabularyUsecase(catalog WordCatalog) VocabularyUsecase {
	return &vocabularyUsecase{catalog: catalog, clock: time.Now}
}

type vocabularyUsecase struct {
	catalog WordCatalog
	clock   func() time.Time
}

type vocabularyFilter struct {
	Key                *string
	KeyPrefix          *string
	Keyword            *string
	Keys               []string
	TranslationKeyword *string
	AccuracyBelow      *float64
	AccuracyAtLeast    *float64
	MinStreak          *int
	MaxStreak          *int
	MinIncorrect       *int
	DueBy              *time.Time
	DueAfter           *time.Time
	Reviewed           *bool

	PrimaryKey     string
	PrimaryDesc    bool
	PrimaryNulls   string
	SecondaryKey   string
	SecondaryDesc  bool
	SecondaryNulls string
}

func (f *vocabularyFilter) match(item entity.VocabularyItem) bool {
	m := item.Mastery
	switch {
	case f.Key != nil && item.Key != *f.Key,
		f.KeyPrefix != nil && !strings.HasPrefix(item.Key, *f.KeyPrefix),
		f.Keyword != nil && !containsFold(item.Key, *f.Keyword),
		len(f.Keys) > 0 && !lo.Contains(f.Keys, item.Key),
		f.TranslationKeyword != nil && !containsFold(item.TranslatedSentence, *f.TranslationKeyword),
		f.AccuracyBelow != nil && !(m.Accuracy() < *f.AccuracyBelow),
		f.AccuracyAtLeast != nil && m.Accuracy() < *f.AccuracyAtLeast,
		f.MinStreak != nil && m.CorrectStreak < *f.MinStreak,
		f.MaxStreak != nil && m.CorrectStreak > *f.MaxStreak,
		f.MinIncorrect != nil && m.TotalIncorrect < *f.MinIncorrect,
		f.DueBy != nil && entity.CompareDays(m.NextReview, *f.DueBy) > 0,
		f.DueAfter != nil && entity.CompareDays(m.NextReview, *f.DueAfter) <= 0,
		f.Reviewed != nil && m.Reviewed() != *f.Reviewed:
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type positioned struct {
	item     entity.VocabularyItem
	position int
}

func compareBy(key string, a, b positioned) int {
	ma, mb := a.item.Mastery, b.item.Mastery
	switch key {
	case orderKey:
		return strings.Compare(a.item.Key, b.item.Key)
	case orderAccuracy:
		return cmp.Compare(ma.Accuracy(), mb.Accuracy())
	case orderNextReview:
		return ma.NextReview.Compare(mb.NextReview)
	case orderLastReviewed:
		return ma.LastReviewed.Compare(mb.LastReviewed)
	case orderCorrectStreak:
		return cmp.Compare(ma.CorrectStreak, mb.CorrectStreak)
	case orderTotalCorrect:
		return cmp.Compare(ma.TotalCorrect, mb.TotalCorrect)
	case orderTotalIncorrect:
		return cmp.Compare(ma.TotalIncorrect, mb.TotalIncorrect)
	default:
		return cmp.Compare(a.position, b.position)
	}
}

// nullsLast places never-reviewed items after reviewed ones regardless of direction.
func nullsLast(key, nulls string, a, b positioned) (int, bool) {
	if key != orderLastReviewed || nulls != "last" {
		return 0, false
	}
	ra, rb := a.item.Mastery.Reviewed(), b.item.Mastery.Reviewed()
	switch {
	case ra == rb:
		return 0, false
	case ra:
		return -1, true
	default:
		return 1, true
	}
}

func directed(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}

func (f *vocabularyFilter) compare(a, b positioned) int {
	if c, ok := nullsLast(f.PrimaryKey, f.PrimaryNulls, a, b); ok {
		return c
	}
	if c := directed(compareBy(f.PrimaryKey, a, b), f.PrimaryDesc); c != 0 {
		return c
	}
	if c, ok := nullsLast(f.SecondaryKey, f.SecondaryNulls, a, b); ok {
		return c
	}
	if c := directed(compareBy(f.SecondaryKey, a, b), f.SecondaryDesc); c != 0 {
		return c
	}
	return cmp.Compare(a.position, b.position)
}

func (u *vocabularyUsecase) ListVocabulary(ctx context.Context, query *repository.ListVocabularyQuery) ([]entity.VocabularyItem, int64, error) {
	if query == nil {
		query = &repository.ListVocabularyQuery{}
	}
	var filter vocabularyFilter
	if err := filterexpr.Bind(&query.FilterOrder, &filter, listVocabularySchema); err != nil {
		return nil, 0, fmt.Errorf("list vocabulary: %w", err)
	}

	items, err := u.catalog.LoadVocabulary(ctx)
	if err != nil {
		return nil, 0, err
	}

	var matched []positioned
	for i, item := range items {
		if filter.match(item) {
			matched = append(matched, positioned{item: item, position: i})
		}
	}
	slices.SortStableFunc(matched, filter.compare)

	start, end := query.Pagination.Bounds(len(matched))
	result := make([]entity.VocabularyItem, 0, end-start)
	for _, p := range matched[start:end] {
		result = append(result, p.item)
	}
	return result, int64(len(matched)), nil
}

func (u *vocabularyUsecase) Stats(ctx context.Context) (*CatalogStats, error) {
	items, err := u.catalog.LoadVocabulary(ctx)
	if err != nil {
		return nil, err
	}
	meanings, err := u.catalog.LoadMeanings(ctx)
	if err != nil {
		return nil, err
	}

	today := u.clock()
	due, _ := SelectEligible(items, entity.QuizModeReview, today, nil)
	difficult, _ := SelectEligible(items, entity.QuizModeDifficult, today, nil)
	return &CatalogStats{
		Total:     len(items),
		Due:       len(due),
		Difficult: len(difficult),
		Reviewed:  lo.CountBy(items, func(item entity.VocabularyItem) bool { return item.Mastery.Reviewed() }),
		Meanings:  len(meanings),
	}, nil
}
