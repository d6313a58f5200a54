package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

// shuffleStream separates the order shuffle from the per-question choice streams.
const shuffleStream = 0x5eed

// StartRequest describes the quiz a user asked for. A zero Seed is derived from the clock.
type StartRequest struct {
	Mode entity.QuizMode
	Type entity.QuizType
	Seed int64
}

// Answer is one submitted choice for the question at the session's current position.
type Answer struct {
	ItemKey       string
	Chosen        string
	CorrectAnswer string
}

// AnswerResult reports the outcome of a submitted answer. Mastery is nil for meaning
// quizzes and for items that disappeared from the catalogue mid-session.
type AnswerResult struct {
	Correct       bool
	CorrectAnswer string
	Position      int
	Remaining     int
	Mastery       *entity.Mastery
}

// NextResult carries either the next question or, once every question was answered,
// the session summary.
type NextResult struct {
	Question *entity.Question
	Summary  *entity.Summary
}

// Done reports whether the session has completed.
func (r *NextResult) Done() bool { return r != nil && r.Summary != nil }

// QuizUsecase drives a quiz session from start to summary.
type QuizUsecase interface {
	Start(ctx context.Context, sessionID string, req StartRequest) (*entity.QuizSessionState, error)
	Next(ctx context.Context, sessionID string) (*NextResult, error)
	Submit(ctx context.Context, sessionID string, answer Answer) (*AnswerResult, error)
	State(ctx context.Context, sessionID string) (*entity.QuizSessionState, error)
	Abandon(ctx context.Context, sessionID string) error
}

// NewQuizUsecase wires the catalogue and the session store with default behaviour.
func NewQuizUsecase(catalog WordCatalog, sessions repository.SessionStore, logger logrus.FieldLogger) QuizUsecase {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &quizUsecase{
		catalog:   catalog,
		sessions:  sessions,
		scheduler: NewReviewScheduler(),
		logger:    logger,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

type quizUsecase struct {
	catalog   WordCatalog
	sessions  repository.SessionStore
	scheduler ReviewScheduler
	logger    logrus.FieldLogger
	clock     func() time.Time
	newID     func() string
}

func (u *quizUsecase) Start(ctx context.Context, sessionID string, req StartRequest) (*entity.QuizSessionState, error) {
	if !req.Type.Valid() {
		return nil, entity.ErrInvalidQuizType
	}
	if sessionID == "" {
		sessionID = u.newID()
	}

	var missed []string
	if req.Mode == entity.QuizModeIncorrectReview {
		prior, err := u.sessions.Get(ctx, sessionID)
		switch {
		case errors.Is(err, entity.ErrSessionNotFound):
		case err != nil:
			return nil, fmt.Errorf("load previous session: %w", err)
		default:
			missed = prior.MissedKeys
		}
	}

	keys, err := u.eligibleKeys(ctx, req, missed)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	seed := req.Seed
	if seed == 0 {
		seed = now.UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), shuffleStream))
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	state := &entity.QuizSessionState{
		ID:          sessionID,
		Status:      entity.SessionInProgress,
		Mode:        req.Mode,
		Type:        req.Type,
		Seed:        seed,
		OrderedKeys: keys,
		MissedKeys:  []string{},
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.sessions.Set(ctx, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	u.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"mode":       req.Mode,
		"type":       req.Type,
		"questions":  len(keys),
	}).Info("quiz session started")
	return state.Clone(), nil
}

// eligibleKeys returns the keys quizzable for req in catalogue order.
func (u *quizUsecase) eligibleKeys(ctx context.Context, req StartRequest, missed []string) ([]string, error) {
	var (
		keys    []string
		catalog int
	)
	if req.Type.IsMeaning() {
		meanings, err := u.catalog.LoadMeanings(ctx)
		if err != nil {
			return nil, err
		}
		catalog = len(meanings)
		eligible, err := SelectEligibleMeanings(meanings, req.Mode, missed)
		if err != nil {
			return nil, err
		}
		keys = lo.FilterMap(eligible, func(item entity.MeaningItem, _ int) (string, bool) {
			return item.Word, item.Complete()
		})
	} else {
		items, err := u.catalog.LoadVocabulary(ctx)
		if err != nil {
			return nil, err
		}
		catalog = len(items)
		eligible, err := SelectEligible(items, req.Mode, u.clock(), missed)
		if err != nil {
			return nil, err
		}
		keys = lo.FilterMap(eligible, func(item entity.VocabularyItem, _ int) (string, bool) {
			_, answer := vocabularyPrompt(item, req.Type)
			return item.Key, answer != ""
		})
	}
	keys = lo.Uniq(keys)

	if len(keys) > 0 {
		return keys, nil
	}
	switch {
	case catalog == 0:
		return nil, entity.ErrEmptyCatalog
	case req.Mode == entity.QuizModeIncorrectReview:
		return nil, entity.ErrNothingToReview
	default:
		return nil, entity.ErrNoEligibleItems
	}
}

func (u *quizUsecase) Next(ctx context.Context, sessionID string) (*NextResult, error) {
	state, err := u.activeState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.Finished() {
		if state.Status != entity.SessionCompleted {
			state.Status = entity.SessionCompleted
			state.UpdatedAt = u.clock()
			if err := u.sessions.Set(ctx, state); err != nil {
				return nil, fmt.Errorf("store session: %w", err)
			}
			u.logger.WithFields(logrus.Fields{
				"session_id": state.ID,
				"correct":    state.CorrectCount,
				"total":      state.Total(),
			}).Info("quiz session completed")
		}
		return &NextResult{Summary: summarize(state)}, nil
	}

	question, err := u.buildQuestion(ctx, state)
	if err != nil {
		return nil, err
	}
	return &NextResult{Question: question}, nil
}

func (u *quizUsecase) buildQuestion(ctx context.Context, state *entity.QuizSessionState) (*entity.Question, error) {
	key, _ := state.CurrentKey()

	var text, answer string
	var pool []string
	if state.Type.IsMeaning() {
		meanings, err := u.catalog.LoadMeanings(ctx)
		if err != nil {
			return nil, err
		}
		item, ok := lo.Find(meanings, func(m entity.MeaningItem) bool { return m.Word == key })
		if !ok {
			return nil, fmt.Errorf("%w: %s", entity.ErrVocabularyNotFound, key)
		}
		text, answer = meaningPrompt(item, state.Type)
		pool = lo.FilterMap(meanings, func(m entity.MeaningItem, _ int) (string, bool) {
			return meaningAnswer(m, state.Type), m.Complete()
		})
	} else {
		items, err := u.catalog.LoadVocabulary(ctx)
		if err != nil {
			return nil, err
		}
		item, ok := lo.Find(items, func(v entity.VocabularyItem) bool { return v.Key == key })
		if !ok {
			return nil, fmt.Errorf("%w: %s", entity.ErrVocabularyNotFound, key)
		}
		text, answer = vocabularyPrompt(item, state.Type)
		pool = lo.Map(items, func(v entity.VocabularyItem, _ int) string {
			_, a := vocabularyPrompt(v, state.Type)
			return a
		})
	}

	choices := SeededChoiceGenerator(uint64(state.Seed), uint64(state.Position)+1).Generate(answer, pool)
	return &entity.Question{
		SessionID:     state.ID,
		Position:      state.Position,
		Total:         state.Total(),
		ItemKey:       key,
		Text:          text,
		CorrectAnswer: answer,
		Choices:       choices,
		Mode:          state.Mode,
		Type:          state.Type,
	}, nil
}

func (u *quizUsecase) Submit(ctx context.Context, sessionID string, answer Answer) (*AnswerResult, error) {
	state, err := u.activeState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Status != entity.SessionInProgress {
		return nil, entity.ErrSessionExpired
	}
	key, ok := state.CurrentKey()
	if !ok || answer.ItemKey != key {
		u.logger.WithFields(logrus.Fields{
			"session_id": state.ID,
			"item_key":   answer.ItemKey,
			"position":   state.Position,
		}).Warn("ignoring answer for a question that is not current")
		return nil, entity.ErrStaleAnswer
	}

	correct := answer.Chosen == answer.CorrectAnswer
	result := &AnswerResult{Correct: correct, CorrectAnswer: answer.CorrectAnswer}

	if !state.Type.IsMeaning() {
		mastery, err := u.applyProgress(ctx, state, key, correct)
		switch {
		case errors.Is(err, entity.ErrVocabularyNotFound):
			u.logger.WithFields(logrus.Fields{"session_id": state.ID, "item_key": key}).
				Warn("item removed from vocabulary, answer counted without progress")
		case err != nil:
			return nil, err
		default:
			result.Mastery = mastery
		}
	}

	if correct {
		state.CorrectCount++
	} else {
		state.MissedKeys = append(state.MissedKeys, key)
	}
	state.Position++
	state.Pending = nil
	state.UpdatedAt = u.clock()
	if err := u.sessions.Set(ctx, state); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	result.Position = state.Position
	result.Remaining = state.Remaining()
	u.logger.WithFields(logrus.Fields{
		"session_id": state.ID,
		"item_key":   key,
		"correct":    correct,
	}).Debug("answer recorded")
	return result, nil
}

// applyProgress runs the scheduler for the answer at the current position at most once.
// A pending marker holding the item's answer count is stored before the progress write,
// so a retry after a failed session write finds the answer already applied.
func (u *quizUsecase) applyProgress(ctx context.Context, state *entity.QuizSessionState, key string, correct bool) (*entity.Mastery, error) {
	pending := state.Pending
	if pending == nil || pending.Position != state.Position {
		items, err := u.catalog.LoadVocabulary(ctx)
		if err != nil {
			return nil, err
		}
		item, ok := lo.Find(items, func(v entity.VocabularyItem) bool { return v.Key == key })
		if !ok {
			return nil, fmt.Errorf("%w: %s", entity.ErrVocabularyNotFound, key)
		}
		pending = &entity.PendingAnswer{Position: state.Position, Answers: item.Mastery.Answers()}
		state.Pending = pending
		if err := u.sessions.Set(ctx, state); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
	}

	today := u.clock()
	updated, err := u.catalog.UpdateProgress(ctx, key, func(item *entity.VocabularyItem) {
		if item.Mastery.Answers() > pending.Answers {
			return
		}
		u.scheduler.Apply(&item.Mastery, correct, today)
	})
	if err != nil {
		return nil, err
	}
	mastery := updated.Mastery
	return &mastery, nil
}

func (u *quizUsecase) State(ctx context.Context, sessionID string) (*entity.QuizSessionState, error) {
	return u.activeState(ctx, sessionID)
}

func (u *quizUsecase) Abandon(ctx context.Context, sessionID string) error {
	if err := u.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// activeState loads a started session. Missing and uninitialised states read as expired.
func (u *quizUsecase) activeState(ctx context.Context, sessionID string) (*entity.QuizSessionState, error) {
	if sessionID == "" {
		return nil, entity.ErrSessionExpired
	}
	state, err := u.sessions.Get(ctx, sessionID)
	if errors.Is(err, entity.ErrSessionNotFound) {
		return nil, entity.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if state == nil || state.Status == entity.SessionUninitialized {
		return nil, entity.ErrSessionExpired
	}
	return state, nil
}

func summarize(state *entity.QuizSessionState) *entity.Summary {
	accuracy := 0.0
	if total := state.Total(); total > 0 {
		accuracy = math.Round(float64(state.CorrectCount)/float64(total)*100*100) / 100
	}
	return &entity.Summary{
		SessionID:  state.ID,
		Mode:       state.Mode,
		Type:       state.Type,
		Total:      state.Total(),
		Correct:    state.CorrectCount,
		Accuracy:   accuracy,
		MissedKeys: append([]string{}, state.MissedKeys...),
	}
}

// vocabularyPrompt returns the question text and the expected answer for item.
func vocabularyPrompt(item entity.VocabularyItem, typ entity.QuizType) (string, string) {
	switch typ {
	case entity.QuizTypeSourceToTarget:
		return item.Source.Emphasized, item.Translated.Target
	case entity.QuizTypeTargetToSource:
		return item.Translated.Emphasized, item.Source.Target
	case entity.QuizTypeFillSource:
		return item.Source.Masked, item.Source.Target
	case entity.QuizTypeFillTarget:
		return item.Translated.Masked, item.Translated.Target
	default:
		return "", ""
	}
}

func meaningPrompt(item entity.MeaningItem, typ entity.QuizType) (string, string) {
	if typ == entity.QuizTypeMeaningToWord {
		return item.Meaning, item.Word
	}
	return item.Word, item.Meaning
}

func meaningAnswer(item entity.MeaningItem, typ entity.QuizType) string {
	_, answer := meaningPrompt(item, typ)
	return answer
}
