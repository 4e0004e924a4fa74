package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/drillbot/internal/storage"
	"github.com/example/drillbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ProgressRepository stores progress records in the set_progress table, keyed by alias
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

var _ storage.ProgressStore = (*ProgressRepository)(nil)

type progressRow struct {
	AnsweredCount     int    `db:"answered_count"`
	TotalQuestions    int    `db:"total_questions"`
	AnsweredQuestions string `db:"answered_questions"`
	Queue             string `db:"queue"`
	WrongQueue        string `db:"wrong_queue"`
}

// Load returns the stored record of entry, or nil when there is none
func (r *ProgressRepository) Load(ctx context.Context, entry models.SetEntry) (*models.ProgressRecord, error) {
	query := r.db.Rebind(`
		SELECT answered_count, total_questions, answered_questions, queue, wrong_queue
		FROM set_progress
		WHERE set_key = ?
	`)

	var row progressRow
	err := r.db.GetContext(ctx, &row, query, entry.Alias)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	record := &models.ProgressRecord{
		AnsweredCount:  row.AnsweredCount,
		TotalQuestions: row.TotalQuestions,
	}
	for _, field := range []struct {
		raw string
		dst *[]string
	}{
		{row.AnsweredQuestions, &record.AnsweredQuestions},
		{row.Queue, &record.Queue},
		{row.WrongQueue, &record.WrongQueue},
	} {
		if err := json.Unmarshal([]byte(field.raw), field.dst); err != nil {
			return nil, fmt.Errorf("%w: progress of %q: %v", storage.ErrPersistenceCorrupt, entry.Alias, err)
		}
	}
	return record, nil
}

// Save inserts or replaces the record of entry
func (r *ProgressRepository) Save(ctx context.Context, entry models.SetEntry, record models.ProgressRecord) error {
	answered, err := encodePrompts(record.AnsweredQuestions)
	if err != nil {
		return err
	}
	queue, err := encodePrompts(record.Queue)
	if err != nil {
		return err
	}
	wrongQueue, err := encodePrompts(record.WrongQueue)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO set_progress (
			set_key, answered_count, total_questions, answered_questions, queue, wrong_queue
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (set_key) DO UPDATE SET
			answered_count = excluded.answered_count,
			total_questions = excluded.total_questions,
			answered_questions = excluded.answered_questions,
			queue = excluded.queue,
			wrong_queue = excluded.wrong_queue,
			updated_at = CURRENT_TIMESTAMP
	`)
	_, err = r.db.ExecContext(ctx, query,
		entry.Alias,
		record.AnsweredCount,
		record.TotalQuestions,
		answered,
		queue,
		wrongQueue,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Delete removes the record of entry
func (r *ProgressRepository) Delete(ctx context.Context, entry models.SetEntry) error {
	query := r.db.Rebind("DELETE FROM set_progress WHERE set_key = ?")
	if _, err := r.db.ExecContext(ctx, query, entry.Alias); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

// Move re-keys the record of from to the alias of to, replacing any record stored there
func (r *ProgressRepository) Move(ctx context.Context, from, to models.SetEntry) error {
	if from.Alias == to.Alias {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM set_progress WHERE set_key = ?"), to.Alias); err != nil {
		return fmt.Errorf("failed to clear progress of %q: %w", to.Alias, err)
	}
	query := tx.Rebind("UPDATE set_progress SET set_key = ?, updated_at = CURRENT_TIMESTAMP WHERE set_key = ?")
	if _, err := tx.ExecContext(ctx, query, to.Alias, from.Alias); err != nil {
		return fmt.Errorf("failed to move progress of %q: %w", from.Alias, err)
	}
	return tx.Commit()
}

func encodePrompts(prompts []string) (string, error) {
	if prompts == nil {
		prompts = []string{}
	}
	data, err := json.Marshal(prompts)
	if err != nil {
		return "", fmt.Errorf("failed to encode prompts: %w", err)
	}
	return string(data), nil
}
