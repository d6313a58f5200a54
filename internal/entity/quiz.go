package entity

import (
	"strings"
	"time"
)

// QuizMode selects which items are eligible for a session.
type QuizMode string

const (
	QuizModeRandom          QuizMode = "random"
	QuizModeReview          QuizMode = "review"
	QuizModeDifficult       QuizMode = "difficult"
	QuizModeIncorrectReview QuizMode = "incorrect_review"
)

// ParseQuizMode converts user input into a QuizMode. Empty input means random.
func ParseQuizMode(raw string) (QuizMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "random":
		return QuizModeRandom, nil
	case "review":
		return QuizModeReview, nil
	case "difficult":
		return QuizModeDifficult, nil
	case "incorrect_review", "incorrect-review", "incorrectreview", "missed":
		return QuizModeIncorrectReview, nil
	default:
		return "", ErrInvalidQuizMode
	}
}

// QuizType decides which text is asked and which word is expected.
type QuizType string

const (
	QuizTypeSourceToTarget QuizType = "source_to_target"
	QuizTypeTargetToSource QuizType = "target_to_source"
	QuizTypeFillSource     QuizType = "fill_source"
	QuizTypeFillTarget     QuizType = "fill_target"
	QuizTypeWordToMeaning  QuizType = "word_to_meaning"
	QuizTypeMeaningToWord  QuizType = "meaning_to_word"
)

// ParseQuizType converts user input into a QuizType. Empty input means source_to_target.
func ParseQuizType(raw string) (QuizType, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	switch normalized {
	case "", "source_to_target", "en_to_jp":
		return QuizTypeSourceToTarget, nil
	case "target_to_source", "jp_to_en":
		return QuizTypeTargetToSource, nil
	case "fill_source", "fill_en":
		return QuizTypeFillSource, nil
	case "fill_target", "fill_jp":
		return QuizTypeFillTarget, nil
	case "word_to_meaning":
		return QuizTypeWordToMeaning, nil
	case "meaning_to_word":
		return QuizTypeMeaningToWord, nil
	default:
		return "", ErrInvalidQuizType
	}
}

// IsMeaning reports whether the type quizzes the meaning bank instead of vocabulary.
func (t QuizType) IsMeaning() bool {
	return t == QuizTypeWordToMeaning || t == QuizTypeMeaningToWord
}

// Valid reports whether t is a known quiz type.
func (t QuizType) Valid() bool {
	switch t {
	case QuizTypeSourceToTarget, QuizTypeTargetToSource, QuizTypeFillSource, QuizTypeFillTarget,
		QuizTypeWordToMeaning, QuizTypeMeaningToWord:
		return true
	}
	return false
}

// SessionStatus is the state of the quiz session state machine.
type SessionStatus string

const (
	SessionUninitialized SessionStatus = ""
	SessionInProgress    SessionStatus = "in_progress"
	SessionCompleted     SessionStatus = "completed"
)

// QuizSessionState is the durable artifact of one quiz attempt. OrderedKeys is fixed at
// start; Position only moves forward, one step per answered question.
type QuizSessionState struct {
	ID           string         `json:"id"`
	Status       SessionStatus  `json:"status"`
	Mode         QuizMode       `json:"mode"`
	Type         QuizType       `json:"type"`
	Seed         int64          `json:"seed"`
	OrderedKeys  []string       `json:"ordered_keys"`
	Position     int            `json:"position"`
	CorrectCount int            `json:"correct_count"`
	MissedKeys   []string       `json:"missed_keys"`
	Pending      *PendingAnswer `json:"pending,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// PendingAnswer marks an answer whose progress write started but whose session write
// has not completed. Answers is the item's answer count before the write.
type PendingAnswer struct {
	Position int `json:"position"`
	Answers  int `json:"answers"`
}

// Total is the number of questions in the session.
func (s *QuizSessionState) Total() int { return len(s.OrderedKeys) }

// Remaining is the number of questions not answered yet.
func (s *QuizSessionState) Remaining() int {
	if s.Position >= len(s.OrderedKeys) {
		return 0
	}
	return len(s.OrderedKeys) - s.Position
}

// Finished reports whether every question has been answered.
func (s *QuizSessionState) Finished() bool { return s.Position >= len(s.OrderedKeys) }

// CurrentKey returns the key at Position.
func (s *QuizSessionState) CurrentKey() (string, bool) {
	if s.Finished() {
		return "", false
	}
	return s.OrderedKeys[s.Position], true
}

// Clone returns a deep copy of s.
func (s *QuizSessionState) Clone() *QuizSessionState {
	if s == nil {
		return nil
	}
	copy := *s
	copy.OrderedKeys = append([]string(nil), s.OrderedKeys...)
	copy.MissedKeys = append([]string(nil), s.MissedKeys...)
	if s.Pending != nil {
		pending := *s.Pending
		copy.Pending = &pending
	}
	return &copy
}

// Question is one rendered multiple-choice question.
type Question struct {
	SessionID     string
	Position      int
	Total         int
	ItemKey       string
	Text          string
	CorrectAnswer string
	Choices       []string
	Mode          QuizMode
	Type          QuizType
}

// Summary is emitted when a session completes.
type Summary struct {
	SessionID  string
	Mode       QuizMode
	Type       QuizType
	Total      int
	Correct    int
	Accuracy   float64 // percentage rounded to 2 decimals
	MissedKeys []string
}
