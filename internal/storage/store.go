// Package storage holds the persistence contract for run progress and a
// registry of backends. Concrete backends live in subpackages and register
// themselves from init; import storage/all to enable every built-in kind.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/zeebo/xxh3"
)

// DefaultTable is the progress table name used by the SQL backends.
const DefaultTable = "colsplit_progress"

// ErrCorrupt is returned by Load when persisted progress exists but cannot
// be decoded. Callers treat it as "nothing completed" and overwrite it on the
// next write.
var ErrCorrupt = errors.New("progress data is corrupt")

// Store persists the set of completed input files, keyed by application
// name so several tools can share one store.
//
// Add must be durable when it returns nil: a crash afterwards must not lose
// the entry. Add of an existing path is a no-op.
type Store interface {
	Load(ctx context.Context, app string) ([]string, error)
	Add(ctx context.Context, app, path string) error
	Reset(ctx context.Context, app string) error
	Close()
}

// Config selects and parameterizes a backend.
type Config struct {
	// Kind is the registered backend name ("json", "sqlite", "postgres",
	// "mssql", "mysql").
	Kind string

	// Path is the JSON document location (json backend).
	Path string

	// DSN is the connection string (SQL backends).
	DSN string

	// Table overrides DefaultTable (SQL backends). It may be schema-qualified.
	Table string
}

// TableName returns the configured table or DefaultTable.
func (c Config) TableName() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens the Store registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported progress backend %q", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var tableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidTable reports whether name is a plain, optionally schema-qualified
// identifier that is safe to interpolate into SQL after quoting.
func ValidTable(name string) bool { return tableRe.MatchString(name) }

// PathKey is the fixed-width key SQL backends index paths by, so arbitrarily
// long paths fit every engine's primary-key limits.
func PathKey(path string) string { return fmt.Sprintf("%016x", xxh3.HashString(path)) }
