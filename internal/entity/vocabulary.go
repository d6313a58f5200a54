package entity

import (
	"strings"
	"time"
)

// SentencePair is one raw row of the vocabulary source.
type SentencePair struct {
	Source string
	Target string
}

// Normalize trims both sides of the pair.
func (p SentencePair) Normalize() SentencePair {
	return SentencePair{Source: strings.TrimSpace(p.Source), Target: strings.TrimSpace(p.Target)}
}

// Complete reports whether both sentences are present.
func (p SentencePair) Complete() bool {
	return strings.TrimSpace(p.Source) != "" && strings.TrimSpace(p.Target) != ""
}

// Mastery is the persisted learning history of one vocabulary item.
type Mastery struct {
	LastReviewed   time.Time // zero when the item was never reviewed
	NextReview     time.Time
	CorrectStreak  int
	TotalCorrect   int
	TotalIncorrect int
}

// Accuracy is TotalCorrect over all answers, 0 when the item was never answered.
func (m Mastery) Accuracy() float64 {
	total := m.TotalCorrect + m.TotalIncorrect
	if total == 0 {
		return 0
	}
	return float64(m.TotalCorrect) / float64(total)
}

// Answers is the number of recorded answers.
func (m Mastery) Answers() int { return m.TotalCorrect + m.TotalIncorrect }

// Reviewed reports whether LastReviewed is set.
func (m Mastery) Reviewed() bool { return !m.LastReviewed.IsZero() }

// Clamp forces every counter to be non-negative.
func (m *Mastery) Clamp() {
	m.CorrectStreak = NonNegative(m.CorrectStreak)
	m.TotalCorrect = NonNegative(m.TotalCorrect)
	m.TotalIncorrect = NonNegative(m.TotalIncorrect)
}

// NewMastery returns the state of an item that was never answered.
func NewMastery(today time.Time) Mastery {
	return Mastery{NextReview: Day(today)}
}

// VocabularyItem is a sentence pair merged with its mastery state. Key is the full
// source sentence; Source and Translated are derived on load and never persisted.
type VocabularyItem struct {
	Key                string
	TranslatedSentence string
	Source             ParsedSentence
	Translated         ParsedSentence
	Mastery            Mastery
}

// NewVocabularyItem parses a sentence pair into an item with the given mastery.
func NewVocabularyItem(pair SentencePair, mastery Mastery) VocabularyItem {
	return VocabularyItem{
		Key:                pair.Source,
		TranslatedSentence: pair.Target,
		Source:             ParseSentence(pair.Source),
		Translated:         ParseSentence(pair.Target),
		Mastery:            mastery,
	}
}

// Pair returns the raw sentence pair of the item.
func (v VocabularyItem) Pair() SentencePair {
	return SentencePair{Source: v.Key, Target: v.TranslatedSentence}
}

// Accuracy is a shortcut for v.Mastery.Accuracy().
func (v VocabularyItem) Accuracy() float64 { return v.Mastery.Accuracy() }

// DueOn reports whether the item is eligible for review on the given day.
func (v VocabularyItem) DueOn(today time.Time) bool {
	return CompareDays(v.Mastery.NextReview, today) <= 0
}

// ReviewLadder is the review interval in days indexed by correct streak; streaks past
// the end reuse the last rung.
var ReviewLadder = []int{1, 2, 4, 8, 16, 32, 64}
