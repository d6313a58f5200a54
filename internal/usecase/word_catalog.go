package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

// WordCatalog loads the vocabulary and meaning banks and persists mastery progress.
type WordCatalog interface {
	LoadVocabulary(ctx context.Context) ([]entity.VocabularyItem, error)
	SaveProgress(ctx context.Context, items []entity.VocabularyItem) error
	UpdateProgress(ctx context.Context, key string, fn func(item *entity.VocabularyItem)) (*entity.VocabularyItem, error)
	LoadMeanings(ctx context.Context) ([]entity.MeaningItem, error)
	SaveMeanings(ctx context.Context, items []entity.MeaningItem) error
	ReplaceVocabulary(ctx context.Context, pairs []entity.SentencePair) (int, error)
	ReplaceMeanings(ctx context.Context, items []entity.MeaningItem) (int, error)
}

// NewWordCatalog wires the catalogue stores with default behaviour.
func NewWordCatalog(stores repository.Stores, logger logrus.FieldLogger) WordCatalog {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &wordCatalog{
		vocabulary: stores.Vocabulary,
		progress:   stores.Progress,
		meanings:   stores.Meanings,
		logger:     logger,
		clock:      time.Now,
	}
}

type wordCatalog struct {
	vocabulary repository.VocabularySource
	progress   repository.ProgressStore
	meanings   repository.MeaningStore
	logger     logrus.FieldLogger
	clock      func() time.Time

	// progressMu serialises every read-merge-write of the progress store.
	progressMu sync.Mutex
	meaningsMu sync.Mutex
}

func (c *wordCatalog) LoadVocabulary(ctx context.Context) ([]entity.VocabularyItem, error) {
	return c.loadVocabulary(ctx)
}

func (c *wordCatalog) loadVocabulary(ctx context.Context) ([]entity.VocabularyItem, error) {
	pairs, err := c.vocabulary.LoadPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	if len(pairs) == 0 {
		return []entity.VocabularyItem{}, nil
	}

	records, err := c.progress.LoadProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	progress := lo.SliceToMap(records, func(r repository.ProgressRecord) (string, repository.ProgressRecord) {
		return r.Key, r
	})

	today := entity.Day(c.clock())
	positions := make(map[string]int, len(pairs))
	items := make([]entity.VocabularyItem, 0, len(pairs))
	for _, pair := range pairs {
		mastery := entity.NewMastery(today)
		if record, ok := progress[pair.Source]; ok {
			mastery = record.Mastery()
			if mastery.NextReview.IsZero() {
				mastery.NextReview = today
			}
			mastery.Clamp()
		}
		item := entity.NewVocabularyItem(pair, mastery)

		// A repeated source sentence replaces the earlier row in place.
		if idx, ok := positions[pair.Source]; ok {
			items[idx] = item
			continue
		}
		positions[pair.Source] = len(items)
		items = append(items, item)
	}
	if dropped := len(progress) - countKnown(progress, positions); dropped > 0 {
		c.logger.WithField("orphans", dropped).Debug("ignoring progress rows without vocabulary")
	}
	return items, nil
}

func countKnown(progress map[string]repository.ProgressRecord, known map[string]int) int {
	n := 0
	for key := range progress {
		if _, ok := known[key]; ok {
			n++
		}
	}
	return n
}

func (c *wordCatalog) SaveProgress(ctx context.Context, items []entity.VocabularyItem) error {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	return c.saveProgressLocked(ctx, items)
}

func (c *wordCatalog) saveProgressLocked(ctx context.Context, items []entity.VocabularyItem) error {
	records := lo.Map(items, func(item entity.VocabularyItem, _ int) repository.ProgressRecord {
		return repository.ProgressRecordOf(item)
	})
	if err := c.progress.ReplaceProgress(ctx, records); err != nil {
		return fmt.Errorf("%w: save progress: %w", entity.ErrPersistence, err)
	}
	return nil
}

func (c *wordCatalog) UpdateProgress(ctx context.Context, key string, fn func(item *entity.VocabularyItem)) (*entity.VocabularyItem, error) {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()

	items, err := c.loadVocabulary(ctx)
	if err != nil {
		return nil, err
	}
	_, idx, ok := lo.FindIndexOf(items, func(item entity.VocabularyItem) bool { return item.Key == key })
	if !ok {
		return nil, entity.ErrVocabularyNotFound
	}

	updated := items[idx]
	fn(&updated)
	updated.Mastery.Clamp()
	items[idx] = updated

	if upserter, ok := c.progress.(repository.ProgressUpserter); ok {
		if err := upserter.UpsertProgress(ctx, repository.ProgressRecordOf(updated)); err != nil {
			return nil, fmt.Errorf("%w: upsert progress: %w", entity.ErrPersistence, err)
		}
		return &updated, nil
	}
	if err := c.saveProgressLocked(ctx, items); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *wordCatalog) LoadMeanings(ctx context.Context) ([]entity.MeaningItem, error) {
	items, err := c.meanings.LoadMeanings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load meanings: %w", err)
	}
	if items == nil {
		items = []entity.MeaningItem{}
	}
	return items, nil
}

func (c *wordCatalog) SaveMeanings(ctx context.Context, items []entity.MeaningItem) error {
	c.meaningsMu.Lock()
	defer c.meaningsMu.Unlock()
	if err := c.meanings.ReplaceMeanings(ctx, items); err != nil {
		return fmt.Errorf("%w: save meanings: %w", entity.ErrPersistence, err)
	}
	return nil
}

// ReplaceVocabulary rewrites the vocabulary source with the complete pairs and then
// rewrites progress so it holds exactly one row per remaining key.
func (c *wordCatalog) ReplaceVocabulary(ctx context.Context, pairs []entity.SentencePair) (int, error) {
	cleaned := lo.FilterMap(pairs, func(pair entity.SentencePair, _ int) (entity.SentencePair, bool) {
		pair = pair.Normalize()
		return pair, pair.Complete()
	})

	c.progressMu.Lock()
	defer c.progressMu.Unlock()

	if err := c.vocabulary.ReplacePairs(ctx, cleaned); err != nil {
		return 0, fmt.Errorf("%w: save vocabulary: %w", entity.ErrPersistence, err)
	}
	items, err := c.loadVocabulary(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.saveProgressLocked(ctx, items); err != nil {
		return 0, err
	}
	c.logger.WithField("items", len(items)).Info("vocabulary replaced")
	return len(items), nil
}

// ReplaceMeanings drops incomplete rows and rewrites the meaning bank.
func (c *wordCatalog) ReplaceMeanings(ctx context.Context, items []entity.MeaningItem) (int, error) {
	cleaned := lo.FilterMap(items, func(item entity.MeaningItem, _ int) (entity.MeaningItem, bool) {
		item = item.Normalize()
		return item, item.Complete()
	})
	if err := c.SaveMeanings(ctx, cleaned); err != nil {
		return 0, err
	}
	c.logger.WithField("items", len(cleaned)).Info("meanings replaced")
	return len(cleaned), nil
}
