// Package jsonfile implements the "json" progress backend: a single JSON
// document mapping application name to its list of completed paths,
//
//	{"SplitToMultipleColumns": ["/data/in/a.csv", "/data/in/b.csv"]}
//
// Every write replaces the document atomically, so a crash leaves either the
// previous or the new version on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"colsplit/internal/datasource/file"
	"colsplit/internal/storage"
)

// Store is a storage.Store over one JSON file.
type Store struct {
	path string

	mu      sync.Mutex
	doc     map[string][]string
	loadErr error
}

var _ storage.Store = (*Store)(nil)

// Open reads path if it exists. A missing file is an empty document; an
// unreadable one is remembered and reported by Load, and the first write
// replaces it.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("json progress: path must not be empty")
	}
	s := &Store{path: path, doc: map[string][]string{}}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("json progress: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(b, &s.doc); err != nil || s.doc == nil {
			s.doc = map[string][]string{}
			s.loadErr = fmt.Errorf("%w: %s: %v", storage.ErrCorrupt, path, err)
		}
	}
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

func (s *Store) Load(_ context.Context, app string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return slices.Clone(s.doc[app]), nil
}

func (s *Store) Add(ctx context.Context, app, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.doc[app], path) {
		return nil
	}
	s.doc[app] = append(s.doc[app], path)
	if err := s.flush(); err != nil {
		s.doc[app] = s.doc[app][:len(s.doc[app])-1]
		return err
	}
	return nil
}

func (s *Store) Reset(ctx context.Context, app string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.doc[app]
	delete(s.doc, app)
	if err := s.flush(); err != nil {
		if had {
			s.doc[app] = prev
		}
		return err
	}
	return nil
}

func (s *Store) Close() {}

// flush writes the whole document. Callers hold s.mu.
func (s *Store) flush() error {
	b, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json progress: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("json progress: %w", err)
	}
	if err := file.WriteFileAtomic(s.path, append(b, '\n')); err != nil {
		return fmt.Errorf("json progress: %w", err)
	}
	s.loadErr = nil
	return nil
}

func init() {
	storage.Register("json", func(_ context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(cfg.Path)
	})
}
