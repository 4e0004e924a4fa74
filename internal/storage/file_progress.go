package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/example/drillbot/pkg/models"
)

// FileProgressStore keeps each ProgressRecord in the JSON file named by the set's progress location
type FileProgressStore struct{}

// NewFileProgressStore creates a new file-backed progress store
func NewFileProgressStore() *FileProgressStore {
	return &FileProgressStore{}
}

// Load reads the record of entry. A missing file yields (nil, nil).
func (s *FileProgressStore) Load(_ context.Context, entry models.SetEntry) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	err := ReadJSON(entry.ProgressPath, &record)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save writes the record of entry
func (s *FileProgressStore) Save(_ context.Context, entry models.SetEntry, record models.ProgressRecord) error {
	if entry.ProgressPath == "" {
		return fmt.Errorf("set %q has no progress location", entry.Alias)
	}
	return WriteJSON(entry.ProgressPath, record)
}

// Delete removes the record file of entry
func (s *FileProgressStore) Delete(_ context.Context, entry models.SetEntry) error {
	return removeFile(entry.ProgressPath)
}

// Move renames the record file of from to the progress location of to
func (s *FileProgressStore) Move(_ context.Context, from, to models.SetEntry) error {
	if from.ProgressPath == to.ProgressPath {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(to.ProgressPath), 0o755); err != nil {
		return fmt.Errorf("failed to create progress directory: %w", err)
	}
	err := os.Rename(from.ProgressPath, to.ProgressPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to move progress of %q: %w", from.Alias, err)
	}
	return nil
}
