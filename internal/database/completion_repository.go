package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/drillbot/internal/storage"
	"github.com/jmoiron/sqlx"
)

// CompletionRepository stores completion counts in the set_completions table
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository creates a new repository instance
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

var _ storage.CompletionStore = (*CompletionRepository)(nil)

// Count returns the completion count of alias, zero when it has none
func (r *CompletionRepository) Count(ctx context.Context, alias string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind("SELECT completions FROM set_completions WHERE alias = ?"), alias)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get completions: %w", err)
	}
	return count, nil
}

// Increment bumps the completion count of alias and returns the new value
func (r *CompletionRepository) Increment(ctx context.Context, alias string) (int, error) {
	query := r.db.Rebind(`
		INSERT INTO set_completions (alias, completions) VALUES (?, 1)
		ON CONFLICT (alias) DO UPDATE SET
			completions = set_completions.completions + 1,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, alias); err != nil {
		return 0, fmt.Errorf("failed to increment completions: %w", err)
	}
	return r.Count(ctx, alias)
}

// Delete removes the completion count of alias
func (r *CompletionRepository) Delete(ctx context.Context, alias string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM set_completions WHERE alias = ?"), alias); err != nil {
		return fmt.Errorf("failed to delete completions: %w", err)
	}
	return nil
}

// Rename moves the completion count of from to to
func (r *CompletionRepository) Rename(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM set_completions WHERE alias = ?"), to); err != nil {
		return fmt.Errorf("failed to clear completions of %q: %w", to, err)
	}
	query := tx.Rebind("UPDATE set_completions SET alias = ?, updated_at = CURRENT_TIMESTAMP WHERE alias = ?")
	if _, err := tx.ExecContext(ctx, query, to, from); err != nil {
		return fmt.Errorf("failed to rename completions of %q: %w", from, err)
	}
	return tx.Commit()
}
