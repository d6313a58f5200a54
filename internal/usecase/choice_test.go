package usecase

import (
	"fmt"
	"testing"
)

func countOf(values []string, target string) int {
	n := 0
	for _, v := range values {
		if v == target {
			n++
		}
	}
	return n
}

func TestChoiceGeneratorSizes(t *testing.T) {
	gen := SeededChoiceGenerator(42, 7)

	for n := 0; n <= 8; n++ {
		pool := make([]string, 0, n)
		for i := 0; i < n; i++ {
			pool = append(pool, fmt.Sprintf("wrong-%d", i))
		}
		choices := gen.Generate("right", pool)

		want := n
		if want > MaxDistractors {
			want = MaxDistractors
		}
		if len(choices) != want+1 {
			t.Fatalf("pool %d: got %d choices, want %d", n, len(choices), want+1)
		}
		if countOf(choices, "right") != 1 {
			t.Fatalf("pool %d: correct answer must appear once: %v", n, choices)
		}
		seen := map[string]bool{}
		for _, c := range choices {
			if seen[c] {
				t.Fatalf("pool %d: duplicate choice %q in %v", n, c, choices)
			}
			seen[c] = true
		}
	}
}

func TestChoiceGeneratorDedupesPool(t *testing.T) {
	gen := NewChoiceGenerator(nil)
	choices := gen.Generate("cat", []string{"cat", "dog", "dog", "", "  ", "cat", "bird"})

	if len(choices) != 3 {
		t.Fatalf("expected dog, bird and cat, got %v", choices)
	}
	if countOf(choices, "cat") != 1 || countOf(choices, "dog") != 1 || countOf(choices, "bird") != 1 {
		t.Fatalf("unexpected choices: %v", choices)
	}
}

func TestChoiceGeneratorDeterministicWithSeed(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e", "f", "g"}
	first := SeededChoiceGenerator(99, 3).Generate("x", pool)
	second := SeededChoiceGenerator(99, 3).Generate("x", pool)

	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Fatalf("same seed should give same choices: %v vs %v", first, second)
	}
}
