package entity

import (
	"regexp"
	"strings"
)

const (
	// BlankPlaceholder replaces the marked span in masked sentences.
	BlankPlaceholder = "＿＿＿＿"

	emphasisOpen  = "<u>"
	emphasisClose = "</u>"
)

var markedSpan = regexp.MustCompile(`__(.*?)__`)

// ParsedSentence holds the display variants of a sentence that may carry a __marked__ span.
type ParsedSentence struct {
	Emphasized string
	Masked     string
	Target     string
	HasTarget  bool
}

// ParseSentence extracts the first __marked__ span of s. Later spans are left untouched.
// Sentences without a marker are returned unchanged with HasTarget false.
func ParseSentence(s string) ParsedSentence {
	loc := markedSpan.FindStringSubmatchIndex(s)
	if loc == nil {
		return ParsedSentence{Emphasized: s, Masked: s}
	}
	start, end := loc[0], loc[1]
	word := s[loc[2]:loc[3]]
	prefix, suffix := s[:start], s[end:]

	var b strings.Builder
	b.Grow(len(s) + len(emphasisOpen) + len(emphasisClose))
	b.WriteString(prefix)
	b.WriteString(emphasisOpen)
	b.WriteString(word)
	b.WriteString(emphasisClose)
	b.WriteString(suffix)

	return ParsedSentence{
		Emphasized: b.String(),
		Masked:     prefix + BlankPlaceholder + suffix,
		Target:     word,
		HasTarget:  true,
	}
}
