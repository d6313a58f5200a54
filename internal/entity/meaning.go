package entity

import "strings"

// MeaningItem is a flat word/meaning pair used by the meaning quiz. It carries no mastery.
type MeaningItem struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
}

// Normalize trims both fields.
func (m MeaningItem) Normalize() MeaningItem {
	return MeaningItem{Word: strings.TrimSpace(m.Word), Meaning: strings.TrimSpace(m.Meaning)}
}

// Complete reports whether both fields are present.
func (m MeaningItem) Complete() bool {
	return strings.TrimSpace(m.Word) != "" && strings.TrimSpace(m.Meaning) != ""
}
