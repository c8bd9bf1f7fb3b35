// Package storagetest holds a behavioral suite every storage.Store backend
// must pass.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colsplit/internal/storage"
)

// Run exercises open. Each subtest gets a fresh store and uses its own app
// keys, so backends sharing a database stay independent.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		s := open(t)
		got, err := s.Load(ctx, "empty-app")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("add_and_load", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Reset(ctx, "add-app"))
		require.NoError(t, s.Add(ctx, "add-app", "/in/a.csv"))
		require.NoError(t, s.Add(ctx, "add-app", "/in/b.csv"))

		got, err := s.Load(ctx, "add-app")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"/in/a.csv", "/in/b.csv"}, got)
	})

	t.Run("add_is_idempotent", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Reset(ctx, "dup-app"))
		require.NoError(t, s.Add(ctx, "dup-app", "/in/a.csv"))
		require.NoError(t, s.Add(ctx, "dup-app", "/in/a.csv"))

		got, err := s.Load(ctx, "dup-app")
		require.NoError(t, err)
		assert.Equal(t, []string{"/in/a.csv"}, got)
	})

	t.Run("apps_are_isolated", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Reset(ctx, "iso-one"))
		require.NoError(t, s.Reset(ctx, "iso-two"))
		require.NoError(t, s.Add(ctx, "iso-one", "/in/a.csv"))
		require.NoError(t, s.Add(ctx, "iso-two", "/in/b.csv"))

		require.NoError(t, s.Reset(ctx, "iso-one"))

		one, err := s.Load(ctx, "iso-one")
		require.NoError(t, err)
		assert.Empty(t, one)
		two, err := s.Load(ctx, "iso-two")
		require.NoError(t, err)
		assert.Equal(t, []string{"/in/b.csv"}, two)
	})

	t.Run("long_path", func(t *testing.T) {
		s := open(t)
		long := "/in/"
		for len(long) < 2000 {
			long += "very-long-directory-name/"
		}
		long += "x.csv"
		require.NoError(t, s.Reset(ctx, "long-app"))
		require.NoError(t, s.Add(ctx, "long-app", long))

		got, err := s.Load(ctx, "long-app")
		require.NoError(t, err)
		assert.Equal(t, []string{long}, got)
	})
}
