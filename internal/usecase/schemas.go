package usecase

import "github.com/eslsoft/vocquiz/pkg/filterexpr"

// Order keys accepted by ListVocabulary.
const (
	orderPosition       = "position"
	orderKey            = "key"
	orderAccuracy       = "accuracy"
	orderNextReview     = "next_review"
	orderLastReviewed   = "last_reviewed"
	orderCorrectStreak  = "correct_streak"
	orderTotalCorrect   = "total_correct"
	orderTotalIncorrect = "total_incorrect"
)

var listVocabularySchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"key": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ:       "Key",
				filterexpr.OpSW:       "KeyPrefix",
				filterexpr.OpContains: "Keyword",
				filterexpr.OpIN:       "Keys",
			},
		},
		"translation": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpContains: "TranslationKeyword"},
		},
		"accuracy": {
			Kind: filterexpr.KindNumber,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpLT:  "AccuracyBelow",
				filterexpr.OpGTE: "AccuracyAtLeast",
			},
		},
		"correct_streak": {
			Kind: filterexpr.KindNumber,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "MinStreak",
				filterexpr.OpLTE: "MaxStreak",
			},
		},
		"total_incorrect": {
			Kind: filterexpr.KindNumber,
			Ops:  map[filterexpr.Op]string{filterexpr.OpGTE: "MinIncorrect"},
		},
		"next_review": {
			Kind: filterexpr.KindDate,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpLTE: "DueBy",
				filterexpr.OpGT:  "DueAfter",
			},
		},
		"reviewed": {
			Kind: filterexpr.KindBool,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Reviewed"},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary: orderPosition,
		FallbackKey:    orderKey,
		Fields: map[string]filterexpr.OrderField{
			orderPosition:       {},
			orderKey:            {},
			orderAccuracy:       {},
			orderNextReview:     {},
			orderLastReviewed:   {Nulls: "last"},
			orderCorrectStreak:  {},
			orderTotalCorrect:   {},
			orderTotalIncorrect: {},
		},
	},
}
