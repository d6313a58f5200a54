package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

var errDiskFull = errors.New("disk full")

type fakeVocabularySource struct {
	mu    sync.RWMutex
	pairs []entity.SentencePair
}

func (s *fakeVocabularySource) LoadPairs(ctx context.Context) ([]entity.SentencePair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.SentencePair(nil), s.pairs...), nil
}

func (s *fakeVocabularySource) ReplacePairs(ctx context.Context, pairs []entity.SentencePair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = append([]entity.SentencePair(nil), pairs...)
	return nil
}

type fakeProgressStore struct {
	mu       sync.RWMutex
	records  []repository.ProgressRecord
	failSave bool
	replaces int
}

func (s *fakeProgressStore) LoadProgress(ctx context.Context) ([]repository.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]repository.ProgressRecord(nil), s.records...), nil
}

func (s *fakeProgressStore) ReplaceProgress(ctx context.Context, records []repository.ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errDiskFull
	}
	s.replaces++
	s.records = append([]repository.ProgressRecord(nil), records...)
	return nil
}

func (s *fakeProgressStore) record(key string) (repository.ProgressRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.Key == key {
			return r, true
		}
	}
	return repository.ProgressRecord{}, false
}

type fakeUpsertProgressStore struct {
	fakeProgressStore
	upserts int
}

func (s *fakeUpsertProgressStore) UpsertProgress(ctx context.Context, record repository.ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errDiskFull
	}
	s.upserts++
	for i := range s.records {
		if s.records[i].Key == record.Key {
			s.records[i] = record
			return nil
		}
	}
	s.records = append(s.records, record)
	return nil
}

type fakeMeaningStore struct {
	mu    sync.RWMutex
	items []entity.MeaningItem
}

func (s *fakeMeaningStore) LoadMeanings(ctx context.Context) ([]entity.MeaningItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.MeaningItem(nil), s.items...), nil
}

func (s *fakeMeaningStore) ReplaceMeanings(ctx context.Context, items []entity.MeaningItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]entity.MeaningItem(nil), items...)
	return nil
}

type fakeSessionStore struct {
	mu      sync.RWMutex
	states  map[string]*entity.QuizSessionState
	sets    int
	failSet func(state *entity.QuizSessionState) error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{states: make(map[string]*entity.QuizSessionState)}
}

func (s *fakeSessionStore) Get(ctx context.Context, id string) (*entity.QuizSessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return state.Clone(), nil
}

func (s *fakeSessionStore) Set(ctx context.Context, state *entity.QuizSessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		if err := s.failSet(state); err != nil {
			return err
		}
	}
	s.sets++
	s.states[state.ID] = state.Clone()
	return nil
}

func (s *fakeSessionStore) Clear(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

var fixedToday = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type catalogFixture struct {
	vocabulary *fakeVocabularySource
	progress   *fakeProgressStore
	meanings   *fakeMeaningStore
	catalog    *wordCatalog
}

func newCatalogFixture(pairs ...entity.SentencePair) *catalogFixture {
	f := &catalogFixture{
		vocabulary: &fakeVocabularySource{pairs: pairs},
		progress:   &fakeProgressStore{},
		meanings:   &fakeMeaningStore{},
	}
	f.catalog = f.newCatalog(f.progress)
	return f
}

func (f *catalogFixture) newCatalog(progress repository.ProgressStore) *wordCatalog {
	catalog := NewWordCatalog(repository.Stores{
		Vocabulary: f.vocabulary,
		Progress:   progress,
		Meanings:   f.meanings,
	}, quietLogger()).(*wordCatalog)
	catalog.clock = func() time.Time { return fixedToday }
	return catalog
}

func samplePairs() []entity.SentencePair {
	return []entity.SentencePair{
		{Source: "I __run__ every day.", Target: "私は毎日__走る__。"},
		{Source: "She __reads__ books.", Target: "彼女は本を__読む__。"},
		{Source: "We __swim__ in summer.", Target: "夏に__泳ぐ__。"},
	}
}
