package repository

import (
	"context"

	"github.com/eslsoft/vocquiz/internal/entity"
)

// SessionStore keeps the quiz state of one user attempt between requests.
// Get returns entity.ErrSessionNotFound when nothing is stored under id.
type SessionStore interface {
	Get(ctx context.Context, id string) (*entity.QuizSessionState, error)
	Set(ctx context.Context, state *entity.QuizSessionState) error
	Clear(ctx context.Context, id string) error
}
