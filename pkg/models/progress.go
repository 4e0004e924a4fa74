package models

// ProgressRecord is the persisted session state of one question set
type ProgressRecord struct {
	AnsweredCount     int      `json:"answered_count" db:"answered_count"`
	TotalQuestions    int      `json:"total_questions" db:"total_questions"`
	AnsweredQuestions []string `json:"answered_questions"`
	Queue             []string `json:"queue"`       // Main queue prompts in order
	WrongQueue        []string `json:"wrong_queue"` // Retry queue prompts in order
}
