package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalOpen covers success, missing file, and pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	writeFile := func(t *testing.T, body string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "people.csv")
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	canceled := func() context.Context {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	cases := []struct {
		name        string
		path        func(t *testing.T) string
		ctx         context.Context
		wantErrIs   error
		wantContent string
	}{
		{
			name:        "reads_content",
			path:        func(t *testing.T) string { return writeFile(t, "id,name\n1,John Smith\n") },
			ctx:         context.Background(),
			wantContent: "id,name\n1,John Smith\n",
		},
		{
			name:      "missing_file",
			path:      func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			ctx:       context.Background(),
			wantErrIs: os.ErrNotExist,
		},
		{
			name:      "canceled_context_short_circuits",
			path:      func(t *testing.T) string { return writeFile(t, "ignored") },
			ctx:       canceled(),
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			p := c.path(t)
			src := NewLocal(p)
			assert.Equal(t, p, src.Path())

			rc, err := src.Open(c.ctx)
			if c.wantErrIs != nil {
				require.ErrorIs(t, err, c.wantErrIs)
				assert.Nil(t, rc)
				return
			}
			require.NoError(t, err)
			defer rc.Close()

			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, c.wantContent, string(b))
		})
	}
}

func TestLocalOpen_ErrorNamesPath(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "nope.csv")
	_, err := NewLocal(p).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open "+p)
}
