// Package session owns the active deck and dispatches every user event to it.
//
// A Controller is driven by a single event loop: load set, answer, next, toggle,
// retake and registry operations are applied one at a time and each returns the
// resulting View. Persistence is synchronous and best effort: a failed write is
// logged and never rolls back the in-memory change that triggered it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/example/drillbot/internal/bank"
	"github.com/example/drillbot/internal/quiz"
	"github.com/example/drillbot/internal/registry"
	"github.com/example/drillbot/internal/storage"
	"github.com/example/drillbot/pkg/models"
)

// ErrNoActiveSet is returned by deck operations while no set is loaded
var ErrNoActiveSet = errors.New("no question set loaded")

// View is the state published to the UI after every event
type View struct {
	quiz.View
	Alias string
	// Source is the location the active set was loaded from
	Source      string
	Completions int
}

// Active reports whether a set is loaded
func (v View) Active() bool {
	return v.Alias != ""
}

// SetSummary describes a registered set for listings
type SetSummary struct {
	Alias       string
	Path        string
	Completions int
	Active      bool
}

// Loader reads a question source. A nil LoadResult is accepted.
type Loader func(path string) (models.QuestionSet, *bank.LoadResult, error)

// Controller is the session state: the registry plus at most one active deck
type Controller struct {
	registry    *registry.Registry
	progress    storage.ProgressStore
	completions storage.CompletionStore
	load        Loader
	logger      *slog.Logger
	rnd         *rand.Rand

	active *activeSet
}

type activeSet struct {
	entry       models.SetEntry
	deck        *quiz.Deck
	completions int
}

// Option configures a Controller
type Option func(*Controller)

// WithLoader replaces the question source loader
func WithLoader(load Loader) Option {
	return func(c *Controller) { c.load = load }
}

// WithRand fixes the random source used for shuffling
func WithRand(rnd *rand.Rand) Option {
	return func(c *Controller) { c.rnd = rnd }
}

// New creates a controller with no active set
func New(reg *registry.Registry, progress storage.ProgressStore, completions storage.CompletionStore, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		registry:    reg,
		progress:    progress,
		completions: completions,
		load:        bank.Load,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Add registers a new question source and activates it
func (c *Controller) Add(ctx context.Context, sourcePath string) (View, error) {
	entry, err := c.registry.Add(sourcePath)
	if err != nil {
		return c.View(), err
	}
	return c.Switch(ctx, entry.Alias)
}

// Switch loads the set registered under alias and makes it the active set.
// Switching to the active set leaves the session untouched. If the source cannot
// be read the previous session stays active.
func (c *Controller) Switch(ctx context.Context, alias string) (View, error) {
	entry, ok := c.registry.Get(alias)
	if !ok {
		return c.View(), fmt.Errorf("%w: %s", registry.ErrUnknownAlias, alias)
	}
	if c.active != nil && c.active.entry.Alias == alias {
		return c.View(), nil
	}

	set, result, err := c.load(entry.Path)
	if err != nil {
		c.logger.Error("failed to load question set", "alias", alias, "path", entry.Path, "error", err)
		return c.View(), err
	}
	if result == nil {
		result = &bank.LoadResult{Loaded: len(set)}
	}
	c.logger.Info("question set loaded",
		"alias", alias,
		"questions", result.Loaded,
		"skipped", result.Skipped,
		"duplicates", result.Duplicates)

	restored, err := c.progress.Load(ctx, entry)
	if err != nil {
		c.logger.Warn("progress unreadable, starting fresh", "alias", alias, "error", err)
		restored = nil
	}

	completions, err := c.completions.Count(ctx, alias)
	if err != nil {
		c.logger.Warn("completion count unreadable", "alias", alias, "error", err)
	}

	c.active = &activeSet{
		entry:       entry,
		deck:        quiz.NewDeck(set, restored, c.rnd),
		completions: completions,
	}
	c.active.deck.Next()
	c.saveProgress(ctx)
	return c.View(), nil
}

// Rename changes the alias of a set, following the active set if it is the one renamed
func (c *Controller) Rename(ctx context.Context, alias, newName string) (View, error) {
	renamed, err := c.registry.Rename(ctx, alias, newName)
	if err != nil {
		return c.View(), err
	}
	if c.active != nil && c.active.entry.Alias == alias {
		c.active.entry = renamed
	}
	return c.View(), nil
}

// Remove deletes a set with its progress and completion history.
// Removing the active set leaves the session with no set loaded.
func (c *Controller) Remove(ctx context.Context, alias string) (View, error) {
	if err := c.registry.Remove(ctx, alias); err != nil {
		return c.View(), err
	}
	if c.active != nil && c.active.entry.Alias == alias {
		c.active = nil
	}
	return c.View(), nil
}

// Next presents the next prompt of the active deck
func (c *Controller) Next(ctx context.Context) (View, error) {
	if c.active == nil {
		return c.View(), ErrNoActiveSet
	}
	if c.active.deck.Next() {
		c.saveProgress(ctx)
	}
	return c.View(), nil
}

// Answer grades selected against the presented prompt
func (c *Controller) Answer(ctx context.Context, selected string) (quiz.Result, View, error) {
	if c.active == nil {
		return quiz.Result{}, c.View(), ErrNoActiveSet
	}

	result, err := c.active.deck.Answer(selected)
	if err != nil {
		return result, c.View(), err
	}
	if !result.Correct {
		c.saveProgress(ctx)
	}
	c.logger.Debug("answer graded", "alias", c.active.entry.Alias, "prompt", result.Prompt, "correct", result.Correct)
	return result, c.View(), nil
}

// Toggle enables or disables a prompt of the active set
func (c *Controller) Toggle(ctx context.Context, prompt string, enabled bool) (View, error) {
	if c.active == nil {
		return c.View(), ErrNoActiveSet
	}
	if err := c.active.deck.Toggle(prompt, enabled); err != nil {
		return c.View(), err
	}
	c.saveProgress(ctx)
	return c.View(), nil
}

// Retake starts a new pass over an exhausted deck and counts the completed pass
func (c *Controller) Retake(ctx context.Context) (View, error) {
	if c.active == nil {
		return c.View(), ErrNoActiveSet
	}
	if err := c.active.deck.Retake(); err != nil {
		return c.View(), err
	}

	alias := c.active.entry.Alias
	count, err := c.completions.Increment(ctx, alias)
	if err != nil {
		c.logger.Error("failed to record completion", "alias", alias, "error", err)
		count = c.active.completions + 1
	}
	c.active.completions = count
	c.logger.Info("deck retaken", "alias", alias, "completions", count)

	c.active.deck.Next()
	c.saveProgress(ctx)
	return c.View(), nil
}

// Prompts lists the prompts of the active set with their toggle state
func (c *Controller) Prompts() ([]quiz.PromptStatus, error) {
	if c.active == nil {
		return nil, ErrNoActiveSet
	}
	return c.active.deck.Prompts(), nil
}

// View returns the current state. With no active set the zero View is returned.
func (c *Controller) View() View {
	if c.active == nil {
		return View{}
	}
	return View{
		View:        c.active.deck.View(),
		Alias:       c.active.entry.Alias,
		Source:      c.active.entry.Path,
		Completions: c.active.completions,
	}
}

// Sets lists every registered set
func (c *Controller) Sets(ctx context.Context) []SetSummary {
	entries := c.registry.List()
	summaries := make([]SetSummary, 0, len(entries))
	for _, entry := range entries {
		count, err := c.completions.Count(ctx, entry.Alias)
		if err != nil {
			c.logger.Warn("completion count unreadable", "alias", entry.Alias, "error", err)
		}
		summaries = append(summaries, SetSummary{
			Alias:       entry.Alias,
			Path:        entry.Path,
			Completions: count,
			Active:      c.active != nil && c.active.entry.Alias == entry.Alias,
		})
	}
	return summaries
}

// saveProgress writes the active deck's snapshot, logging failures
func (c *Controller) saveProgress(ctx context.Context) {
	if c.active == nil {
		return
	}
	if err := c.progress.Save(ctx, c.active.entry, c.active.deck.Snapshot()); err != nil {
		c.logger.Error("failed to save progress", "alias", c.active.entry.Alias, "error", err)
	}
}
