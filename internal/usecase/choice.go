package usecase

import (
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"
)

// MaxDistractors is the number of wrong options offered next to the correct one.
const MaxDistractors = 4

// ChoiceGenerator builds shuffled multiple-choice option sets.
type ChoiceGenerator struct {
	rng *rand.Rand
}

// NewChoiceGenerator uses rng for sampling and shuffling. A nil rng draws from the
// runtime's random source.
func NewChoiceGenerator(rng *rand.Rand) *ChoiceGenerator {
	return &ChoiceGenerator{rng: rng}
}

// SeededChoiceGenerator returns a generator whose output depends only on the seeds.
func SeededChoiceGenerator(seed, stream uint64) *ChoiceGenerator {
	return NewChoiceGenerator(rand.New(rand.NewPCG(seed, stream)))
}

// Generate returns the correct answer plus up to MaxDistractors distinct wrong answers
// from pool, in random order. Blank pool entries are ignored.
func (g *ChoiceGenerator) Generate(correct string, pool []string) []string {
	candidates := lo.Uniq(lo.Filter(pool, func(candidate string, _ int) bool {
		return strings.TrimSpace(candidate) != "" && candidate != correct
	}))

	g.shuffle(candidates)
	if len(candidates) > MaxDistractors {
		candidates = candidates[:MaxDistractors]
	}

	choices := append(candidates, correct)
	g.shuffle(choices)
	return choices
}

func (g *ChoiceGenerator) shuffle(values []string) {
	swap := func(i, j int) { values[i], values[j] = values[j], values[i] }
	if g == nil || g.rng == nil {
		rand.Shuffle(len(values), swap)
		return
	}
	g.rng.Shuffle(len(values), swap)
}
