package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eslsoft/vocquiz/internal/entity"
	"github.com/eslsoft/vocquiz/internal/repository"
)

type quizFixture struct {
	*catalogFixture
	sessions *fakeSessionStore
	quiz     *quizUsecase
}

func newQuizFixture(pairs ...entity.SentencePair) *quizFixture {
	f := &quizFixture{catalogFixture: newCatalogFixture(pairs...), sessions: newFakeSessionStore()}
	f.quiz = NewQuizUsecase(f.catalog, f.sessions, quietLogger()).(*quizUsecase)
	f.quiz.clock = func() time.Time { return fixedToday }
	f.quiz.newID = func() string { return "generated-id" }
	return f
}

// answerAll plays the session to the end; wrong lists the positions answered incorrectly.
func answerAll(t *testing.T, f *quizFixture, sessionID string, wrong map[int]bool) *entity.Summary {
	t.Helper()
	ctx := context.Background()
	for i := 0; ; i++ {
		next, err := f.quiz.Next(ctx, sessionID)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if next.Done() {
			return next.Summary
		}
		q := next.Question
		chosen := q.CorrectAnswer
		if wrong[i] {
			chosen = "definitely wrong"
		}
		if _, err := f.quiz.Submit(ctx, sessionID, Answer{ItemKey: q.ItemKey, Chosen: chosen, CorrectAnswer: q.CorrectAnswer}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
}

func TestQuizRandomSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(samplePairs()...)

	state, err := f.quiz.Start(ctx, "s1", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeSourceToTarget, Seed: 7})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Status != entity.SessionInProgress || state.Total() != 3 || state.Position != 0 {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	summary := answerAll(t, f, "s1", map[int]bool{1: true})
	if summary.Total != 3 || summary.Correct != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Accuracy != 66.67 {
		t.Fatalf("accuracy = %v, want 66.67", summary.Accuracy)
	}
	if len(summary.MissedKeys) != 1 || summary.MissedKeys[0] != state.OrderedKeys[1] {
		t.Fatalf("unexpected missed keys: %v", summary.MissedKeys)
	}

	stored, err := f.sessions.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Status != entity.SessionCompleted || stored.Position != 3 {
		t.Fatalf("session should be completed at position 3: %+v", stored)
	}

	missed, _ := f.progress.record(state.OrderedKeys[1])
	if missed.TotalIncorrect != 1 || missed.CorrectStreak != 0 {
		t.Fatalf("missed item progress not saved: %+v", missed)
	}
	hit, _ := f.progress.record(state.OrderedKeys[0])
	if hit.TotalCorrect != 1 || !hit.NextReview.Equal(entity.Day(fixedToday).AddDate(0, 0, 1)) {
		t.Fatalf("correct item progress not saved: %+v", hit)
	}

	if _, err := f.quiz.Submit(ctx, "s1", Answer{ItemKey: state.OrderedKeys[0]}); !errors.Is(err, entity.ErrSessionExpired) {
		t.Fatalf("submit after completion should report expired, got %v", err)
	}
}

func TestQuizQuestionRendering(t *testing.T) {
	ctx := context.Background()
	pair := entity.SentencePair{Source: "I __run__ every day.", Target: "私は毎日__走る__。"}
	cases := []struct {
		typ    entity.QuizType
		text   string
		answer string
	}{
		{entity.QuizTypeSourceToTarget, "I <u>run</u> every day.", "走る"},
		{entity.QuizTypeTargetToSource, "私は毎日<u>走る</u>。", "run"},
		{entity.QuizTypeFillSource, "I " + entity.BlankPlaceholder + " every day.", "run"},
		{entity.QuizTypeFillTarget, "私は毎日" + entity.BlankPlaceholder + "。", "走る"},
	}
	for _, tc := range cases {
		f := newQuizFixture(pair, entity.SentencePair{Source: "x __walk__", Target: "y __歩く__"})
		if _, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: tc.typ, Seed: 1}); err != nil {
			t.Fatalf("%s: start: %v", tc.typ, err)
		}
		for {
			next, err := f.quiz.Next(ctx, "s")
			if err != nil {
				t.Fatalf("%s: next: %v", tc.typ, err)
			}
			if next.Done() {
				t.Fatalf("%s: item never asked", tc.typ)
			}
			q := next.Question
			if q.ItemKey == pair.Source {
				if q.Text != tc.text || q.CorrectAnswer != tc.answer {
					t.Fatalf("%s: got %q / %q", tc.typ, q.Text, q.CorrectAnswer)
				}
				if len(q.Choices) != 2 || countOf(q.Choices, tc.answer) != 1 {
					t.Fatalf("%s: unexpected choices %v", tc.typ, q.Choices)
				}
				break
			}
			if _, err := f.quiz.Submit(ctx, "s", Answer{ItemKey: q.ItemKey, Chosen: q.CorrectAnswer, CorrectAnswer: q.CorrectAnswer}); err != nil {
				t.Fatalf("%s: submit: %v", tc.typ, err)
			}
		}
	}
}

func TestQuizSeededOrderIsReproducible(t *testing.T) {
	ctx := context.Background()
	var pairs []entity.SentencePair
	for i := 0; i < 12; i++ {
		pairs = append(pairs, entity.SentencePair{Source: fmt.Sprintf("s%d __a%d__", i, i), Target: fmt.Sprintf("t%d __b%d__", i, i)})
	}
	f := newQuizFixture(pairs...)

	first, err := f.quiz.Start(ctx, "a", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeFillSource, Seed: 1234})
	if err != nil {
		t.Fatalf("start a: %v", err)
	}
	second, err := f.quiz.Start(ctx, "b", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeFillSource, Seed: 1234})
	if err != nil {
		t.Fatalf("start b: %v", err)
	}
	if fmt.Sprint(first.OrderedKeys) != fmt.Sprint(second.OrderedKeys) {
		t.Fatalf("same seed should reproduce the order:\n%v\n%v", first.OrderedKeys, second.OrderedKeys)
	}

	q1, err := f.quiz.Next(ctx, "a")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	q2, err := f.quiz.Next(ctx, "a")
	if err != nil {
		t.Fatalf("next again: %v", err)
	}
	if fmt.Sprint(q1.Question.Choices) != fmt.Sprint(q2.Question.Choices) {
		t.Fatalf("re-rendering a question should keep its choices: %v vs %v", q1.Question.Choices, q2.Question.Choices)
	}
	if len(q1.Question.Choices) != MaxDistractors+1 {
		t.Fatalf("expected %d choices, got %v", MaxDistractors+1, q1.Question.Choices)
	}
}

func TestQuizIncorrectReviewWithoutMisses(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(samplePairs()...)

	_, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeIncorrectReview, Type: entity.QuizTypeSourceToTarget})
	if !errors.Is(err, entity.ErrNothingToReview) {
		t.Fatalf("expected ErrNothingToReview, got %v", err)
	}
	if _, err := f.sessions.Get(ctx, "s"); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("no session should be stored, got %v", err)
	}
}

func TestQuizIncorrectReviewFollowsPreviousSession(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(samplePairs()...)

	if _, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeFillTarget, Seed: 3}); err != nil {
		t.Fatalf("start: %v", err)
	}
	summary := answerAll(t, f, "s", map[int]bool{0: true, 2: true})

	review, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeIncorrectReview, Type: entity.QuizTypeFillTarget, Seed: 3})
	if err != nil {
		t.Fatalf("start review: %v", err)
	}
	if review.Total() != 2 {
		t.Fatalf("expected the 2 missed items, got %v", review.OrderedKeys)
	}
	for _, key := range review.OrderedKeys {
		if countOf(summary.MissedKeys, key) != 1 {
			t.Fatalf("unexpected key %q in review session", key)
		}
	}
}

func TestQuizNoEligibleItems(t *testing.T) {
	ctx := context.Background()

	empty := newQuizFixture()
	if _, err := empty.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeSourceToTarget}); !errors.Is(err, entity.ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}

	unmarked := newQuizFixture(entity.SentencePair{Source: "no marker here", Target: "マーカーなし"})
	if _, err := unmarked.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeFillSource}); !errors.Is(err, entity.ErrNoEligibleItems) {
		t.Fatalf("items without an answer must be skipped, got %v", err)
	}

	f := newQuizFixture(samplePairs()...)
	for _, pair := range samplePairs() {
		f.progress.records = append(f.progress.records, progressDueIn(pair.Source, 3))
	}
	if _, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeReview, Type: entity.QuizTypeSourceToTarget}); !errors.Is(err, entity.ErrNoEligibleItems) {
		t.Fatalf("expected ErrNoEligibleItems, got %v", err)
	}
	if _, err := f.quiz.Start(ctx, "s", StartRequest{Mode: "weekly", Type: entity.QuizTypeSourceToTarget}); !errors.Is(err, entity.ErrInvalidQuizMode) {
		t.Fatalf("expected ErrInvalidQuizMode, got %v", err)
	}
	if _, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: "essay"}); !errors.Is(err, entity.ErrInvalidQuizType) {
		t.Fatalf("expected ErrInvalidQuizType, got %v", err)
	}
}

func TestQuizStaleAnswerIsNotCounted(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(samplePairs()...)
	state, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeSourceToTarget, Seed: 11})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	next, err := f.quiz.Next(ctx, "s")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	q := next.Question
	if _, err := f.quiz.Submit(ctx, "s", Answer{ItemKey: q.ItemKey, Chosen: q.CorrectAnswer, CorrectAnswer: q.CorrectAnswer}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Resubmitting the previous question must not count twice.
	_, err = f.quiz.Submit(ctx, "s", Answer{ItemKey: q.ItemKey, Chosen: q.CorrectAnswer, CorrectAnswer: q.CorrectAnswer})
	if !errors.Is(err, entity.ErrStaleAnswer) {
		t.Fatalf("expected ErrStaleAnswer, got %v", err)
	}
	current, err := f.quiz.State(ctx, "s")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if current.Position != 1 || current.CorrectCount != 1 {
		t.Fatalf("stale answer changed the session: %+v", current)
	}
	if record, _ := f.progress.record(state.OrderedKeys[0]); record.TotalCorrect != 1 {
		t.Fatalf("stale answer changed progress: %+v", record)
	}
}

func TestQuizPersistenceFailureDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(samplePairs()...)
	if _, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeSourceToTarget, Seed: 5}); err != nil {
		t.Fatalf("start: %v", err)
	}
	next, err := f.quiz.Next(ctx, "s")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	q := next.Question

	f.progress.failSave = true
	_, err = f.quiz.Submit(ctx, "s", Answer{ItemKey: q.ItemKey, Chosen: q.CorrectAnswer, CorrectAnswer: q.CorrectAnswer})
	if !errors.Is(err, entity.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	state, err := f.quiz.State(ctx, "s")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Position != 0 || state.CorrectCount != 0 {
		t.Fatalf("failed write must not advance the session: %+v", state)
	}

	f.progress.failSave = false
	result, err := f.quiz.Submit(ctx, "s", Answer{ItemKey: q.ItemKey, Chosen: q.CorrectAnswer, CorrectAnswer: q.CorrectAnswer})
	if err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if !result.Correct || result.Position != 1 || result.Remaining != 2 || result.Mastery == nil || result.Mastery.CorrectStreak != 1 {
		t.Fatalf("unexpected retry result: %+v", result)
	}
}

func TestQuizSessionWriteFailureAppliesProgressOnce(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(samplePairs()...)
	if _, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeSourceToTarget, Seed: 5}); err != nil {
		t.Fatalf("start: %v", err)
	}
	next, err := f.quiz.Next(ctx, "s")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	q := next.Question

	errRedisDown := errors.New("redis down")
	failed := false
	f.sessions.mu.Lock()
	f.sessions.failSet = func(state *entity.QuizSessionState) error {
		if state.Position == 1 && !failed {
			failed = true
			return errRedisDown
		}
		return nil
	}
	f.sessions.mu.Unlock()

	answer := Answer{ItemKey: q.ItemKey, Chosen: q.CorrectAnswer, CorrectAnswer: q.CorrectAnswer}
	if _, err := f.quiz.Submit(ctx, "s", answer); !errors.Is(err, errRedisDown) {
		t.Fatalf("expected session write error, got %v", err)
	}
	state, err := f.quiz.State(ctx, "s")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Position != 0 || state.Pending == nil || state.Pending.Position != 0 {
		t.Fatalf("expected pending answer at position 0, got %+v", state)
	}

	result, err := f.quiz.Submit(ctx, "s", answer)
	if err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if result.Position != 1 || result.Mastery == nil || result.Mastery.CorrectStreak != 1 {
		t.Fatalf("unexpected retry result: %+v", result)
	}
	record, ok := f.progress.record(q.ItemKey)
	if !ok || record.TotalCorrect != 1 || record.CorrectStreak != 1 {
		t.Fatalf("answer applied more than once: %+v", record)
	}
	state, err = f.quiz.State(ctx, "s")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Pending != nil || state.CorrectCount != 1 {
		t.Fatalf("unexpected state after retry: %+v", state)
	}
}

func TestQuizExpiredSession(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(samplePairs()...)

	if _, err := f.quiz.Next(ctx, "unknown"); !errors.Is(err, entity.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := f.quiz.Submit(ctx, "", Answer{}); !errors.Is(err, entity.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	if _, err := f.quiz.Start(ctx, "", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeSourceToTarget}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.quiz.Abandon(ctx, "generated-id"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := f.quiz.Next(ctx, "generated-id"); !errors.Is(err, entity.ErrSessionExpired) {
		t.Fatalf("abandoned session should be expired, got %v", err)
	}
}

func TestQuizItemRemovedMidSession(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture(samplePairs()...)
	if _, err := f.quiz.Start(ctx, "s", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeSourceToTarget, Seed: 9}); err != nil {
		t.Fatalf("start: %v", err)
	}
	next, err := f.quiz.Next(ctx, "s")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	q := next.Question

	var kept []entity.SentencePair
	for _, pair := range samplePairs() {
		if pair.Source != q.ItemKey {
			kept = append(kept, pair)
		}
	}
	f.vocabulary.pairs = kept

	result, err := f.quiz.Submit(ctx, "s", Answer{ItemKey: q.ItemKey, Chosen: q.CorrectAnswer, CorrectAnswer: q.CorrectAnswer})
	if err != nil {
		t.Fatalf("submit for removed item should still count: %v", err)
	}
	if result.Mastery != nil || result.Position != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestQuizMeaningSession(t *testing.T) {
	ctx := context.Background()
	f := newQuizFixture()
	f.meanings.items = []entity.MeaningItem{
		{Word: "apple", Meaning: "りんご"},
		{Word: "grape", Meaning: "ぶどう"},
		{Word: "peach", Meaning: "もも"},
		{Word: "blank", Meaning: ""},
	}

	state, err := f.quiz.Start(ctx, "m", StartRequest{Mode: entity.QuizModeRandom, Type: entity.QuizTypeMeaningToWord, Seed: 21})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Total() != 3 {
		t.Fatalf("incomplete meaning should be skipped: %v", state.OrderedKeys)
	}
	next, err := f.quiz.Next(ctx, "m")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next.Question.CorrectAnswer != next.Question.ItemKey || len(next.Question.Choices) != 3 {
		t.Fatalf("unexpected meaning question: %+v", next.Question)
	}

	summary := answerAll(t, f, "m", map[int]bool{0: true})
	if summary.Correct != 2 || len(summary.MissedKeys) != 1 {
		t.Fatalf("unexpected meaning summary: %+v", summary)
	}
	if f.progress.replaces != 0 {
		t.Fatalf("meaning quiz must not write progress")
	}

	if _, err := f.quiz.Start(ctx, "m", StartRequest{Mode: entity.QuizModeDifficult, Type: entity.QuizTypeWordToMeaning}); !errors.Is(err, entity.ErrInvalidQuizMode) {
		t.Fatalf("expected ErrInvalidQuizMode, got %v", err)
	}
}

func progressDueIn(key string, days int) repository.ProgressRecord {
	return repository.ProgressRecord{Key: key, NextReview: entity.Day(fixedToday).AddDate(0, 0, days)}
}
