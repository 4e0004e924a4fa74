package storage

import (
	"context"
	"errors"
	"io/fs"
)

// FileCompletionStore keeps every completion count in one JSON object: alias -> count
type FileCompletionStore struct {
	path string
}

// NewFileCompletionStore creates a completion store backed by the file at path
func NewFileCompletionStore(path string) *FileCompletionStore {
	return &FileCompletionStore{path: path}
}

// Count returns the completion count of alias
func (s *FileCompletionStore) Count(_ context.Context, alias string) (int, error) {
	counts, err := s.read()
	return counts[alias], err
}

// Increment bumps the completion count of alias and returns the new value.
// A corrupt file is replaced, starting over from zero.
func (s *FileCompletionStore) Increment(_ context.Context, alias string) (int, error) {
	counts, _ := s.read()
	counts[alias]++
	return counts[alias], WriteJSON(s.path, counts)
}

// Delete forgets the completion count of alias
func (s *FileCompletionStore) Delete(_ context.Context, alias string) error {
	counts, _ := s.read()
	if _, ok := counts[alias]; !ok {
		return nil
	}
	delete(counts, alias)
	return WriteJSON(s.path, counts)
}

// Rename moves the completion count of from to to
func (s *FileCompletionStore) Rename(_ context.Context, from, to string) error {
	counts, _ := s.read()
	count, ok := counts[from]
	if !ok {
		return nil
	}
	delete(counts, from)
	counts[to] = count
	return WriteJSON(s.path, counts)
}

// read loads all counts. It always returns a usable map, even alongside an error.
func (s *FileCompletionStore) read() (map[string]int, error) {
	counts := make(map[string]int)
	err := ReadJSON(s.path, &counts)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]int), nil
	}
	if err != nil {
		return make(map[string]int), err
	}
	if counts == nil {
		counts = make(map[string]int)
	}
	return counts, nil
}
