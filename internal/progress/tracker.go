// Package progress tracks which input files a run has fully completed, so an
// interrupted run can resume where it stopped. The in-memory set is backed
// by a storage.Store and every completion is persisted before it is
// acknowledged.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"colsplit/internal/storage"
)

// DefaultApp is the key this tool stores its progress under.
const DefaultApp = "SplitToMultipleColumns"

// Tracker is safe for concurrent use; writes to the store are serialised.
type Tracker struct {
	store  storage.Store
	app    string
	logger *slog.Logger

	mu   sync.Mutex
	done mapset.Set[string]
}

// New returns a Tracker over store. An empty app uses DefaultApp.
func New(store storage.Store, app string, logger *slog.Logger) *Tracker {
	if app == "" {
		app = DefaultApp
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		app:    app,
		logger: logger,
		done:   mapset.NewThreadUnsafeSet[string](),
	}
}

// App returns the progress key.
func (t *Tracker) App() string { return t.app }

// Load replaces the in-memory set with what the store holds. Missing or
// corrupt progress is not an error: it is logged and the set starts empty.
// Other store failures are returned.
func (t *Tracker) Load(ctx context.Context) (mapset.Set[string], error) {
	paths, err := t.store.Load(ctx, t.app)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		t.logger.Warn("progress is unreadable, starting from scratch", "app", t.app, "error", err)
		paths = nil
	case err != nil:
		return nil, fmt.Errorf("load progress: %w", err)
	}

	set := mapset.NewThreadUnsafeSet[string]()
	for _, p := range paths {
		set.Add(Normalize(p))
	}

	t.mu.Lock()
	t.done = set
	t.mu.Unlock()
	return set.Clone(), nil
}

// ShouldSkip reports whether path was completed by this or an earlier run.
func (t *Tracker) ShouldSkip(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done.Contains(Normalize(path))
}

// MarkComplete records path as done. It returns only after the store has
// persisted the entry; on error the in-memory set is unchanged.
func (t *Tracker) MarkComplete(ctx context.Context, path string) error {
	p := Normalize(path)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done.Contains(p) {
		return nil
	}
	if err := t.store.Add(ctx, t.app, p); err != nil {
		return fmt.Errorf("mark %s complete: %w", p, err)
	}
	t.done.Add(p)
	return nil
}

// Reset discards all progress for the app, in memory and in the store.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Reset(ctx, t.app); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	t.done.Clear()
	return nil
}

// Completed returns the completed paths, sorted.
func (t *Tracker) Completed() []string {
	t.mu.Lock()
	out := t.done.ToSlice()
	t.mu.Unlock()
	sort.Strings(out)
	return out
}

// Len returns the number of completed paths.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done.Cardinality()
}

// Normalize makes path absolute and clean so the same file is recognised
// regardless of how the input directory was spelled.
func Normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
