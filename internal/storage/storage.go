// Package storage defines the persistence contracts for session progress and
// completion counts, and implements them on plain JSON files.
package storage

import (
	"context"
	"errors"

	"github.com/example/drillbot/pkg/models"
)

// ErrPersistenceCorrupt is returned when a persisted file exists but cannot be read or decoded.
// Callers recover by falling back to the empty value.
var ErrPersistenceCorrupt = errors.New("persisted data unreadable")

// ProgressStore persists the ProgressRecord of each registered set.
type ProgressStore interface {
	// Load returns the last saved record, or nil when none exists.
	Load(ctx context.Context, entry models.SetEntry) (*models.ProgressRecord, error)
	Save(ctx context.Context, entry models.SetEntry, record models.ProgressRecord) error
	// Delete removes the record; deleting a missing record is not an error.
	Delete(ctx context.Context, entry models.SetEntry) error
	// Move migrates the record of from to to, after a rename.
	Move(ctx context.Context, from, to models.SetEntry) error
}

// CompletionStore persists the number of full-deck completions per alias.
type CompletionStore interface {
	Count(ctx context.Context, alias string) (int, error)
	Increment(ctx context.Context, alias string) (int, error)
	Delete(ctx context.Context, alias string) error
	Rename(ctx context.Context, from, to string) error
}
