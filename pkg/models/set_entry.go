package models

// SetEntry is a registered question set
type SetEntry struct {
	Alias        string `json:"-"`
	Path         string `json:"path"`     // Location of the question source
	ProgressPath string `json:"progress"` // Location of the progress record
}
