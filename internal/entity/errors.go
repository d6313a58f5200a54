package entity

import "errors"

// Domain errors for the vocabulary catalogue and quiz sessions.
var (
	ErrEmptyCatalog       = errors.New("no vocabulary items available")
	ErrVocabularyNotFound = errors.New("vocabulary item not found")
	ErrInvalidQuizMode    = errors.New("invalid quiz mode")
	ErrInvalidQuizType    = errors.New("invalid quiz type")
	ErrNoEligibleItems    = errors.New("nothing to quiz on in this mode")
	ErrNothingToReview    = errors.New("no missed items to review")
	ErrSessionNotFound    = errors.New("quiz session not found")
	ErrSessionExpired     = errors.New("quiz session expired, restart the quiz")
	ErrStaleAnswer        = errors.New("answer does not match the current question")
	ErrPersistence        = errors.New("persist progress failed, retry")
)
