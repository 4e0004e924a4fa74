// Package registry tracks the named question sets known to the trainer.
//
// The registry is persisted as a JSON object mapping each alias to the location
// of its question source and of its progress record:
//
//	{"verbs": {"path": "/data/verbs.csv", "progress": "/data/progress/verbs_progress.json"}}
package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/example/drillbot/internal/storage"
	"github.com/example/drillbot/pkg/models"
)

// Registry errors
var (
	ErrDuplicateAlias = errors.New("alias already exists")
	ErrUnknownAlias   = errors.New("unknown alias")
	ErrInvalidName    = errors.New("invalid alias")
)

const progressSuffix = "_progress.json"

// Registry maps aliases to set entries. It is not safe for concurrent use.
type Registry struct {
	path        string
	progressDir string
	entries     map[string]models.SetEntry
	progress    storage.ProgressStore
	completions storage.CompletionStore
	logger      *slog.Logger
}

// Open loads the registry stored at path. Progress records of new sets are placed
// in progressDir. An unreadable registry file is logged and treated as empty.
func Open(path, progressDir string, progress storage.ProgressStore, completions storage.CompletionStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		path:        path,
		progressDir: progressDir,
		entries:     make(map[string]models.SetEntry),
		progress:    progress,
		completions: completions,
		logger:      logger,
	}

	stored := make(map[string]models.SetEntry)
	err := storage.ReadJSON(path, &stored)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		logger.Warn("registry unreadable, starting empty", "path", path, "error", err)
	default:
		for alias, entry := range stored {
			entry.Alias = alias
			r.entries[alias] = entry
		}
	}
	return r
}

// Add registers the question source at sourcePath under an alias derived from its
// file name. Colliding aliases get a numeric suffix: verbs, verbs_2, verbs_3, ...
func (r *Registry) Add(sourcePath string) (models.SetEntry, error) {
	base := DeriveAlias(sourcePath)
	if base == "" {
		return models.SetEntry{}, fmt.Errorf("%w: cannot derive a name from %q", ErrInvalidName, sourcePath)
	}

	alias := base
	for n := 2; r.exists(alias); n++ {
		alias = base + "_" + strconv.Itoa(n)
	}

	entry := models.SetEntry{
		Alias:        alias,
		Path:         sourcePath,
		ProgressPath: r.progressPath(alias),
	}
	r.entries[alias] = entry
	r.save()

	r.logger.Info("question set added", "alias", alias, "path", sourcePath)
	return entry, nil
}

// Rename changes the alias of a set and migrates its progress record and completion count.
// Renaming onto an existing alias is rejected with ErrDuplicateAlias and changes nothing.
func (r *Registry) Rename(ctx context.Context, alias, newName string) (models.SetEntry, error) {
	entry, ok := r.entries[alias]
	if !ok {
		return models.SetEntry{}, fmt.Errorf("%w: %s", ErrUnknownAlias, alias)
	}

	newName = strings.TrimSpace(newName)
	if newName == "" || strings.ContainsAny(newName, `/\`) {
		return models.SetEntry{}, fmt.Errorf("%w: %q", ErrInvalidName, newName)
	}
	if newName == alias {
		return entry, nil
	}
	if r.exists(newName) {
		return models.SetEntry{}, fmt.Errorf("%w: %s", ErrDuplicateAlias, newName)
	}

	renamed := models.SetEntry{
		Alias:        newName,
		Path:         entry.Path,
		ProgressPath: r.progressPath(newName),
	}
	if err := r.progress.Move(ctx, entry, renamed); err != nil {
		r.logger.Warn("failed to migrate progress", "alias", alias, "new_alias", newName, "error", err)
	}
	if err := r.completions.Rename(ctx, alias, newName); err != nil {
		r.logger.Warn("failed to migrate completion count", "alias", alias, "new_alias", newName, "error", err)
	}

	delete(r.entries, alias)
	r.entries[newName] = renamed
	r.save()

	r.logger.Info("question set renamed", "alias", alias, "new_alias", newName)
	return renamed, nil
}

// Remove deletes a set together with its progress record and completion count
func (r *Registry) Remove(ctx context.Context, alias string) error {
	entry, ok := r.entries[alias]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAlias, alias)
	}

	if err := r.progress.Delete(ctx, entry); err != nil {
		r.logger.Warn("failed to delete progress", "alias", alias, "error", err)
	}
	if err := r.completions.Delete(ctx, alias); err != nil {
		r.logger.Warn("failed to delete completion count", "alias", alias, "error", err)
	}

	delete(r.entries, alias)
	r.save()

	r.logger.Info("question set removed", "alias", alias)
	return nil
}

// Get returns the entry registered under alias
func (r *Registry) Get(alias string) (models.SetEntry, bool) {
	entry, ok := r.entries[alias]
	return entry, ok
}

// List returns every entry sorted by alias
func (r *Registry) List() []models.SetEntry {
	entries := make([]models.SetEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Alias < entries[j].Alias
	})
	return entries
}

func (r *Registry) exists(alias string) bool {
	_, ok := r.entries[alias]
	return ok
}

func (r *Registry) progressPath(alias string) string {
	return filepath.Join(r.progressDir, alias+progressSuffix)
}

// save persists the registry. Failures are logged; the in-memory registry stays authoritative
// until the next successful write.
func (r *Registry) save() {
	if err := storage.WriteJSON(r.path, r.entries); err != nil {
		r.logger.Error("failed to save registry", "path", r.path, "error", err)
	}
}

// DeriveAlias turns a source location into a readable alias: the file name without
// its extension, with whitespace and path separators replaced by underscores.
func DeriveAlias(sourcePath string) string {
	name := filepath.Base(strings.TrimSpace(sourcePath))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}
