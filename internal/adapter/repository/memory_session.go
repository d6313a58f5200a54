package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

type memoryEntry struct {
	state     *entity.QuizSessionState
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Entries expire ttl after their
// last write; a non-positive ttl keeps them forever.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   func() time.Time
}

var _ repository.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		clock:   time.Now,
	}
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*entity.QuizSessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	if s.expired(entry) {
		delete(s.entries, id)
		return nil, entity.ErrSessionNotFound
	}
	return entry.state.Clone(), nil
}

func (s *MemorySessionStore) Set(ctx context.Context, state *entity.QuizSessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil || state.ID == "" {
		return errors.New("session state requires an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{state: state.Clone()}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.entries[state.ID] = entry
	s.sweepLocked()
	return nil
}

func (s *MemorySessionStore) Clear(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemorySessionStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !s.clock().Before(entry.expiresAt)
}

func (s *MemorySessionStore) sweepLocked() {
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
		}
	}
}
