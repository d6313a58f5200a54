package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/eslsoft/vocquiz/internal/entity"
)

func TestXLSXVocabularyRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "words.xlsx")
	source := NewXLSXVocabularySource(path)

	pairs := []entity.SentencePair{
		{Source: "I __run__ daily.", Target: "私は毎日__走る__。"},
		{Source: "She __reads__.", Target: "彼女は__読む__。"},
	}
	if err := source.ReplacePairs(ctx, pairs); err != nil {
		t.Fatalf("ReplacePairs returned error: %v", err)
	}
	loaded, err := source.LoadPairs(ctx)
	if err != nil {
		t.Fatalf("LoadPairs returned error: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != pairs[0] || loaded[1] != pairs[1] {
		t.Fatalf("unexpected pairs %+v", loaded)
	}
}

func TestXLSXMeaningsAndMissingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	missing, err := NewXLSXMeaningStore(filepath.Join(dir, "absent.xlsx")).LoadMeanings(ctx)
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing workbook should be empty, got %v, %v", missing, err)
	}

	store := NewXLSXMeaningStore(filepath.Join(dir, "meanings.xlsx"))
	items := []entity.MeaningItem{{Word: "run", Meaning: "走る"}, {Word: "eat", Meaning: ""}}
	if err := store.ReplaceMeanings(ctx, items); err != nil {
		t.Fatalf("ReplaceMeanings returned error: %v", err)
	}
	loaded, err := store.LoadMeanings(ctx)
	if err != nil {
		t.Fatalf("LoadMeanings returned error: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != items[0] || loaded[1].Word != "eat" {
		t.Fatalf("unexpected meanings %+v", loaded)
	}
}
