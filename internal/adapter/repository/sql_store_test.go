package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/infrastructure/database"
	"github.com/eslsoft/vocquiz/internal/repository"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, cleanup, err := database.OpenSQLite(filepath.Join(t.TempDir(), "vocquiz.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(cleanup)
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	// Running it twice must be harmless.
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("second EnsureSchema returned error: %v", err)
	}
	return NewSQLStore(db)
}

func TestSQLStorePairsKeepOrderAndDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	pairs := []entity.SentencePair{
		{Source: "b __x__", Target: "B"},
		{Source: "a __y__", Target: "A"},
		{Source: "b __x__", Target: "B2"},
	}
	if err := store.ReplacePairs(ctx, pairs); err != nil {
		t.Fatalf("ReplacePairs returned error: %v", err)
	}
	loaded, err := store.LoadPairs(ctx)
	if err != nil {
		t.Fatalf("LoadPairs returned error: %v", err)
	}
	if len(loaded) != 3 || loaded[0] != pairs[0] || loaded[2] != pairs[2] {
		t.Fatalf("unexpected pairs %+v", loaded)
	}

	if err := store.ReplacePairs(ctx, pairs[:1]); err != nil {
		t.Fatalf("second ReplacePairs returned error: %v", err)
	}
	loaded, _ = store.LoadPairs(ctx)
	if len(loaded) != 1 {
		t.Fatalf("replace should drop previous rows, got %+v", loaded)
	}
}

func TestSQLStoreLargeReplaceIsBatched(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	pairs := make([]entity.SentencePair, insertBatchSize*2+7)
	for i := range pairs {
		pairs[i] = entity.SentencePair{Source: fmt.Sprintf("s%04d", i), Target: fmt.Sprintf("t%04d", i)}
	}
	if err := store.ReplacePairs(ctx, pairs); err != nil {
		t.Fatalf("ReplacePairs returned error: %v", err)
	}
	loaded, err := store.LoadPairs(ctx)
	if err != nil {
		t.Fatalf("LoadPairs returned error: %v", err)
	}
	if len(loaded) != len(pairs) || loaded[len(pairs)-1] != pairs[len(pairs)-1] {
		t.Fatalf("expected %d ordered pairs, got %d", len(pairs), len(loaded))
	}
}

func TestSQLStoreProgressReplaceAndUpsert(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	day := time.Date(2025, 5, 20, 0, 0, 0, 0, time.Local)

	err := store.ReplaceProgress(ctx, []repository.ProgressRecord{
		{Key: "a", NextReview: day},
		{Key: "b", LastReviewed: day, NextReview: day.AddDate(0, 0, 4), CorrectStreak: 3, TotalCorrect: 5, TotalIncorrect: 2},
	})
	if err != nil {
		t.Fatalf("ReplaceProgress returned error: %v", err)
	}

	if err := store.UpsertProgress(ctx, repository.ProgressRecord{Key: "a", LastReviewed: day, NextReview: day.AddDate(0, 0, 1), CorrectStreak: 1, TotalCorrect: 1}); err != nil {
		t.Fatalf("UpsertProgress (update) returned error: %v", err)
	}
	if err := store.UpsertProgress(ctx, repository.ProgressRecord{Key: "c", NextReview: day, TotalIncorrect: 1}); err != nil {
		t.Fatalf("UpsertProgress (insert) returned error: %v", err)
	}

	records, err := store.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("LoadProgress returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %+v", records)
	}
	byKey := make(map[string]repository.ProgressRecord, len(records))
	for _, r := range records {
		byKey[r.Key] = r
	}
	a := byKey["a"]
	if a.CorrectStreak != 1 || a.LastReviewed.Format(entity.DateLayout) != "2025-05-20" || a.NextReview.Format(entity.DateLayout) != "2025-05-21" {
		t.Fatalf("upsert did not update a: %+v", a)
	}
	if !byKey["c"].LastReviewed.IsZero() || byKey["c"].TotalIncorrect != 1 {
		t.Fatalf("unexpected inserted record %+v", byKey["c"])
	}
	if byKey["b"].TotalCorrect != 5 {
		t.Fatalf("untouched record changed: %+v", byKey["b"])
	}
}

func TestSQLStoreMeaningsAndCatalogueStores(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	stores := repository.Stores{Vocabulary: store, Progress: store, Meanings: store}
	if _, ok := stores.Progress.(repository.ProgressUpserter); !ok {
		t.Fatalf("SQL progress store should support upserts")
	}

	items := []entity.MeaningItem{{Word: "run", Meaning: "走る"}, {Word: "run", Meaning: "運営する"}}
	if err := stores.Meanings.ReplaceMeanings(ctx, items); err != nil {
		t.Fatalf("ReplaceMeanings returned error: %v", err)
	}
	loaded, err := stores.Meanings.LoadMeanings(ctx)
	if err != nil {
		t.Fatalf("LoadMeanings returned error: %v", err)
	}
	if len(loaded) != 2 || loaded[1] != items[1] {
		t.Fatalf("unexpected meanings %+v", loaded)
	}
}
