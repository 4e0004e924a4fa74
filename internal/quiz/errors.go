package quiz

import "errors"

// Deck errors. Use errors.Is to check.
var (
	// ErrEmptySet is returned when an operation needs at least one active question.
	ErrEmptySet = errors.New("quiz: no active questions")

	// ErrNotExhausted is returned by Retake while the current pass is unfinished.
	ErrNotExhausted = errors.New("quiz: deck is not exhausted")

	// ErrNoCurrentQuestion is returned by Answer when nothing is being presented.
	ErrNoCurrentQuestion = errors.New("quiz: no question presented")

	// ErrUnknownPrompt is returned by Toggle for prompts outside the question set.
	ErrUnknownPrompt = errors.New("quiz: unknown prompt")
)
