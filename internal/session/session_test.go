package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/drillbot/internal/bank"
	"github.com/example/drillbot/internal/quiz"
	"github.com/example/drillbot/internal/registry"
	"github.com/example/drillbot/internal/storage"
	"github.com/example/drillbot/pkg/models"
)

var capitals = map[string]string{
	"France":  "Paris",
	"Germany": "Berlin",
	"Italy":   "Rome",
}

type fixture struct {
	dir         string
	source      string
	progress    *storage.FileProgressStore
	completions *storage.FileCompletionStore
	logger      *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "capitals.csv")
	content := "France,Paris\nGermany,Berlin\nItaly,Rome\n"
	require.NoError(t, os.WriteFile(source, []byte(content), 0o644))

	return &fixture{
		dir:         dir,
		source:      source,
		progress:    storage.NewFileProgressStore(),
		completions: storage.NewFileCompletionStore(filepath.Join(dir, "completions.json")),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (f *fixture) controller(opts ...Option) *Controller {
	reg := registry.Open(filepath.Join(f.dir, "registry.json"), filepath.Join(f.dir, "progress"), f.progress, f.completions, f.logger)
	opts = append([]Option{WithRand(rand.New(rand.NewSource(7)))}, opts...)
	return New(reg, f.progress, f.completions, f.logger, opts...)
}

func (f *fixture) progressPath(alias string) string {
	return filepath.Join(f.dir, "progress", alias+"_progress.json")
}

func wrongAnswer(v View) string {
	for _, option := range v.Options {
		if option != capitals[v.CurrentPrompt] {
			return option
		}
	}
	return ""
}

func TestAddActivatesSet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()

	v, err := c.Add(context.Background(), f.source)
	require.NoError(t, err)

	assert.True(t, v.Active())
	assert.Equal(t, "capitals", v.Alias)
	assert.True(t, v.HasQuestion())
	assert.Contains(t, v.Options, capitals[v.CurrentPrompt])
	assert.Equal(t, 1, v.AnsweredCount)
	assert.Equal(t, 3, v.Total)
	assert.FileExists(t, f.progressPath("capitals"))
}

func TestAddUnreadableSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()

	v, err := c.Add(context.Background(), filepath.Join(f.dir, "missing.csv"))
	assert.ErrorIs(t, err, bank.ErrSourceUnreadable)
	assert.False(t, v.Active())

	_, err = c.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveSet)
}

func TestSwitchKeepsPreviousSetOnFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()
	ctx := context.Background()

	_, err := c.Add(ctx, f.source)
	require.NoError(t, err)

	broken := filepath.Join(f.dir, "broken.csv")
	require.NoError(t, os.WriteFile(broken, []byte("a,b\n"), 0o644))
	_, err = c.Add(ctx, broken)
	require.NoError(t, err)
	require.NoError(t, os.Remove(broken))

	_, err = c.Switch(ctx, "capitals")
	require.NoError(t, err)
	v, err := c.Switch(ctx, "broken")
	assert.ErrorIs(t, err, bank.ErrSourceUnreadable)
	assert.Equal(t, "capitals", v.Alias)
}

func TestSwitchUnknownAlias(t *testing.T) {
	t.Parallel()
	c := newFixture(t).controller()

	_, err := c.Switch(context.Background(), "nope")
	assert.ErrorIs(t, err, registry.ErrUnknownAlias)
}

func TestFullPassAndRetake(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()
	ctx := context.Background()

	v, err := c.Add(ctx, f.source)
	require.NoError(t, err)

	_, err = c.Retake(ctx)
	assert.ErrorIs(t, err, quiz.ErrNotExhausted)

	wrongOnce := false
	for steps := 0; !v.Exhausted; steps++ {
		require.Less(t, steps, 20, "deck never exhausted")
		require.True(t, v.HasQuestion())

		selected := capitals[v.CurrentPrompt]
		if !wrongOnce {
			selected = wrongAnswer(v)
			wrongOnce = true
		}
		result, _, err := c.Answer(ctx, selected)
		require.NoError(t, err)
		assert.Equal(t, selected == capitals[result.Prompt], result.Correct)

		v, err = c.Next(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, v.AnsweredCount)
	assert.Equal(t, 0, v.Completions)

	v, err = c.Retake(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Completions)
	assert.False(t, v.Exhausted)
	assert.Equal(t, 1, v.AnsweredCount)

	count, err := f.completions.Count(ctx, "capitals")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWrongAnswerIsPersisted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()
	ctx := context.Background()

	v, err := c.Add(ctx, f.source)
	require.NoError(t, err)
	prompt := v.CurrentPrompt

	_, _, err = c.Answer(ctx, wrongAnswer(v))
	require.NoError(t, err)

	var record models.ProgressRecord
	require.NoError(t, storage.ReadJSON(f.progressPath("capitals"), &record))
	assert.Equal(t, []string{prompt}, record.WrongQueue)
	assert.Equal(t, []string{prompt}, record.AnsweredQuestions)
}

func TestProgressSurvivesRestart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first := f.controller()
	v, err := first.Add(ctx, f.source)
	require.NoError(t, err)
	_, _, err = first.Answer(ctx, capitals[v.CurrentPrompt])
	require.NoError(t, err)
	v, err = first.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, v.AnsweredCount)

	second := f.controller()
	v, err = second.Switch(ctx, "capitals")
	require.NoError(t, err)
	assert.Equal(t, 3, v.AnsweredCount)
	assert.True(t, v.HasQuestion())
}

func TestDeletedProgressStartsFresh(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	c := f.controller()
	v, err := c.Add(ctx, f.source)
	require.NoError(t, err)
	_, _, err = c.Answer(ctx, capitals[v.CurrentPrompt])
	require.NoError(t, err)
	_, err = c.Next(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(f.progressPath("capitals")))

	v, err = f.controller().Switch(ctx, "capitals")
	require.NoError(t, err)
	assert.Equal(t, 1, v.AnsweredCount)
}

func TestCorruptProgressStartsFresh(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	c := f.controller()
	_, err := c.Add(ctx, f.source)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.progressPath("capitals"), []byte("{not json"), 0o644))

	v, err := f.controller().Switch(ctx, "capitals")
	require.NoError(t, err)
	assert.Equal(t, 1, v.AnsweredCount)
	assert.Equal(t, 3, v.Total)
}

func TestToggle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()
	ctx := context.Background()

	_, err := c.Toggle(ctx, "France", false)
	assert.ErrorIs(t, err, ErrNoActiveSet)

	v, err := c.Add(ctx, f.source)
	require.NoError(t, err)

	_, err = c.Toggle(ctx, "Spain", false)
	assert.ErrorIs(t, err, quiz.ErrUnknownPrompt)

	v, err = c.Toggle(ctx, v.CurrentPrompt, false)
	require.NoError(t, err)
	assert.False(t, v.HasQuestion())
	assert.Equal(t, 2, v.Total)
	assert.Equal(t, 0, v.AnsweredCount)

	prompts, err := c.Prompts()
	require.NoError(t, err)
	enabled := 0
	for _, p := range prompts {
		if p.Enabled {
			enabled++
		}
	}
	assert.Len(t, prompts, 3)
	assert.Equal(t, 2, enabled)

	var record models.ProgressRecord
	require.NoError(t, storage.ReadJSON(f.progressPath("capitals"), &record))
	assert.Equal(t, 2, record.TotalQuestions)
}

func TestRenameActiveSet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()
	ctx := context.Background()

	_, err := c.Add(ctx, f.source)
	require.NoError(t, err)

	v, err := c.Rename(ctx, "capitals", "europe")
	require.NoError(t, err)
	assert.Equal(t, "europe", v.Alias)
	assert.FileExists(t, f.progressPath("europe"))
	assert.NoFileExists(t, f.progressPath("capitals"))

	_, _, err = c.Answer(ctx, wrongAnswer(v))
	require.NoError(t, err)
	var record models.ProgressRecord
	require.NoError(t, storage.ReadJSON(f.progressPath("europe"), &record))
	assert.Len(t, record.WrongQueue, 1)
}

func TestRemoveActiveSet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()
	ctx := context.Background()

	_, err := c.Add(ctx, f.source)
	require.NoError(t, err)

	v, err := c.Remove(ctx, "capitals")
	require.NoError(t, err)
	assert.False(t, v.Active())
	assert.Empty(t, c.Sets(ctx))
	assert.NoFileExists(t, f.progressPath("capitals"))

	_, err = c.Remove(ctx, "capitals")
	assert.ErrorIs(t, err, registry.ErrUnknownAlias)
}

func TestSets(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()
	ctx := context.Background()

	_, err := c.Add(ctx, f.source)
	require.NoError(t, err)
	_, err = c.Add(ctx, f.source)
	require.NoError(t, err)

	sets := c.Sets(ctx)
	require.Len(t, sets, 2)
	assert.Equal(t, "capitals", sets[0].Alias)
	assert.False(t, sets[0].Active)
	assert.Equal(t, "capitals_2", sets[1].Alias)
	assert.True(t, sets[1].Active)
}

func TestCustomLoader(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	failure := errors.New("boom")
	loader := func(path string) (models.QuestionSet, *bank.LoadResult, error) {
		if strings.Contains(path, "broken") {
			return models.QuestionSet{}, &bank.LoadResult{}, failure
		}
		return models.QuestionSet{"Q": {Prompt: "Q", Answer: "A"}}, nil, nil
	}
	c := f.controller(WithLoader(loader))
	ctx := context.Background()

	v, err := c.Add(ctx, f.source)
	require.NoError(t, err)
	assert.Equal(t, "Q", v.CurrentPrompt)
	assert.Equal(t, []string{"A"}, v.Options)

	v, err = c.Add(ctx, filepath.Join(f.dir, "broken.csv"))
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, "capitals", v.Alias)
}

func TestSwitchToActiveSetKeepsPresentedQuestion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.controller()
	ctx := context.Background()

	v, err := c.Add(ctx, f.source)
	require.NoError(t, err)
	pending := v.CurrentPrompt
	options := v.Options

	v, err = c.Switch(ctx, "capitals")
	require.NoError(t, err)
	assert.Equal(t, pending, v.CurrentPrompt)
	assert.Equal(t, options, v.Options)
	assert.Equal(t, 1, v.AnsweredCount)

	answered := map[string]bool{}
	for steps := 0; !v.Exhausted; steps++ {
		require.Less(t, steps, 10, "deck never exhausted")
		result, _, err := c.Answer(ctx, capitals[v.CurrentPrompt])
		require.NoError(t, err)
		answered[result.Prompt] = true
		v, err = c.Next(ctx)
		require.NoError(t, err)
	}
	assert.True(t, answered[pending], "the question shown before switching must still be answerable")
	assert.Len(t, answered, 3)
}
