package quiz

import "math/rand"

// MaxDistractors is the number of wrong options shown next to the correct answer
const MaxDistractors = 3

// Options builds a multiple choice option list for correct.
// Up to MaxDistractors distinct wrong answers are sampled from pool without replacement,
// the correct answer is added exactly once and the combined list is shuffled.
func Options(rnd *rand.Rand, correct string, pool []string) []string {
	// Distinct wrong answers, in pool order
	seen := make(map[string]struct{}, len(pool))
	incorrect := make([]string, 0, len(pool))
	for _, answer := range pool {
		if answer == correct {
			continue
		}
		if _, dup := seen[answer]; dup {
			continue
		}
		seen[answer] = struct{}{}
		incorrect = append(incorrect, answer)
	}

	// Partial Fisher-Yates: the first k entries become a uniform sample
	k := MaxDistractors
	if len(incorrect) < k {
		k = len(incorrect)
	}
	for i := 0; i < k; i++ {
		j := i + rnd.Intn(len(incorrect)-i)
		incorrect[i], incorrect[j] = incorrect[j], incorrect[i]
	}

	options := make([]string, 0, k+1)
	options = append(options, incorrect[:k]...)
	options = append(options, correct)

	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
