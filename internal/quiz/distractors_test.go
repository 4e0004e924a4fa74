package quiz

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func countOf(options []string, value string) int {
	n := 0
	for _, o := range options {
		if o == value {
			n++
		}
	}
	return n
}

func TestOptionsProperties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		correct string
		pool    []string
		wantLen int
	}{
		{name: "large pool", correct: "2x", pool: []string{"2x", "3x^2", "cos(x)", "-sin(x)", "e^x", "1/x"}, wantLen: 4},
		{name: "exactly four", correct: "a", pool: []string{"a", "b", "c", "d"}, wantLen: 4},
		{name: "three answers", correct: "a", pool: []string{"a", "b", "c"}, wantLen: 3},
		{name: "single answer", correct: "a", pool: []string{"a"}, wantLen: 1},
		{name: "duplicate wrong answers", correct: "a", pool: []string{"a", "b", "b", "b", "c"}, wantLen: 3},
		{name: "correct repeated in pool", correct: "a", pool: []string{"a", "a", "b"}, wantLen: 2},
		{name: "correct missing from pool", correct: "z", pool: []string{"a", "b", "c", "d", "e"}, wantLen: 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rnd := rand.New(rand.NewSource(7))
			for i := 0; i < 50; i++ {
				options := Options(rnd, tc.correct, tc.pool)

				assert.Len(t, options, tc.wantLen)
				assert.Equal(t, 1, countOf(options, tc.correct), "correct answer must appear exactly once")

				unique := make(map[string]bool)
				for _, o := range options {
					assert.False(t, unique[o], "duplicate option %q", o)
					unique[o] = true
				}
			}
		})
	}
}

func TestOptionsSamplesWholePool(t *testing.T) {
	t.Parallel()

	pool := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		pool = append(pool, fmt.Sprintf("answer-%d", i))
	}

	rnd := rand.New(rand.NewSource(42))
	hits := make(map[string]int)
	for i := 0; i < 500; i++ {
		for _, o := range Options(rnd, "answer-0", pool) {
			hits[o]++
		}
	}

	for _, answer := range pool {
		assert.Positive(t, hits[answer], "%s was never offered", answer)
	}
}

func TestOptionsDoesNotMutatePool(t *testing.T) {
	t.Parallel()

	pool := []string{"a", "b", "c", "d", "e"}
	Options(rand.New(rand.NewSource(1)), "a", pool)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, pool)
}
