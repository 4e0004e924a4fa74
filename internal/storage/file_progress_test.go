package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/drillbot/pkg/models"
)

func testEntry(t *testing.T, alias string) models.SetEntry {
	t.Helper()
	dir := t.TempDir()
	return models.SetEntry{
		Alias:        alias,
		Path:         filepath.Join(dir, alias+".csv"),
		ProgressPath: filepath.Join(dir, "progress", alias+"_progress.json"),
	}
}

func TestFileProgressStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewFileProgressStore()
	entry := testEntry(t, "verbs")

	record := models.ProgressRecord{
		AnsweredCount:     2,
		TotalQuestions:    4,
		AnsweredQuestions: []string{"A", "B"},
		Queue:             []string{"C", "D"},
		WrongQueue:        []string{"B"},
	}
	require.NoError(t, store.Save(ctx, entry, record))

	loaded, err := store.Load(ctx, entry)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, record, *loaded)
}

func TestFileProgressStoreWireFormat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewFileProgressStore()
	entry := testEntry(t, "verbs")

	raw := `{"answered_count": 1, "total_questions": 2, "answered_questions": ["A"], "queue": ["B"], "wrong_queue": []}`
	require.NoError(t, os.MkdirAll(filepath.Dir(entry.ProgressPath), 0o755))
	require.NoError(t, os.WriteFile(entry.ProgressPath, []byte(raw), 0o644))

	loaded, err := store.Load(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.AnsweredCount)
	assert.Equal(t, 2, loaded.TotalQuestions)
	assert.Equal(t, []string{"A"}, loaded.AnsweredQuestions)
	assert.Equal(t, []string{"B"}, loaded.Queue)
	assert.Empty(t, loaded.WrongQueue)
}

func TestFileProgressStoreMissing(t *testing.T) {
	t.Parallel()

	loaded, err := NewFileProgressStore().Load(context.Background(), testEntry(t, "none"))
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileProgressStoreCorrupt(t *testing.T) {
	t.Parallel()
	entry := testEntry(t, "broken")
	require.NoError(t, os.MkdirAll(filepath.Dir(entry.ProgressPath), 0o755))
	require.NoError(t, os.WriteFile(entry.ProgressPath, []byte("{not json"), 0o644))

	loaded, err := NewFileProgressStore().Load(context.Background(), entry)
	assert.ErrorIs(t, err, ErrPersistenceCorrupt)
	assert.Nil(t, loaded)
}

func TestFileProgressStoreDeleteAndMove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewFileProgressStore()
	from := testEntry(t, "old")
	to := from
	to.Alias = "new"
	to.ProgressPath = filepath.Join(filepath.Dir(from.ProgressPath), "new_progress.json")

	// Moving or deleting a record that was never written is fine
	require.NoError(t, store.Move(ctx, from, to))
	require.NoError(t, store.Delete(ctx, from))

	require.NoError(t, store.Save(ctx, from, models.ProgressRecord{AnsweredCount: 1, TotalQuestions: 1}))
	require.NoError(t, store.Move(ctx, from, to))

	gone, err := store.Load(ctx, from)
	require.NoError(t, err)
	assert.Nil(t, gone)

	moved, err := store.Load(ctx, to)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, 1, moved.AnsweredCount)

	require.NoError(t, store.Delete(ctx, to))
	_, err = os.Stat(to.ProgressPath)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteJSONLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))
	require.NoError(t, WriteJSON(path, map[string]int{"a": 2}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var got map[string]int
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, 2, got["a"])
}
