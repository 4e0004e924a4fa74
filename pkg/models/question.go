package models

import "sort"

// Question is a single prompt/answer pair loaded from a question source
type Question struct {
	Prompt string `json:"prompt" db:"prompt"`
	Answer string `json:"answer" db:"answer"`
	Media  string `json:"media,omitempty" db:"media"` // Optional: local path or URL illustrating the prompt
}

// HasMedia reports whether the question carries a media reference
func (q Question) HasMedia() bool {
	return q.Media != ""
}

// QuestionSet maps a prompt to its question. Prompts are unique within a set.
type QuestionSet map[string]Question

// Prompts returns the prompts of the set in sorted order
func (s QuestionSet) Prompts() []string {
	prompts := make([]string, 0, len(s))
	for prompt := range s {
		prompts = append(prompts, prompt)
	}
	sort.Strings(prompts)
	return prompts
}

// Answers returns every answer of the set, one entry per question
func (s QuestionSet) Answers() []string {
	answers := make([]string, 0, len(s))
	for _, prompt := range s.Prompts() {
		answers = append(answers, s[prompt].Answer)
	}
	return answers
}
