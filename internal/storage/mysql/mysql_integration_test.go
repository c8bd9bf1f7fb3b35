package mysql

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"colsplit/internal/storage"
	"colsplit/internal/storage/storagetest"
)

// Runs against a live server when COLSPLIT_TEST_MYSQL_DSN is set.
func TestMySQLStore_Integration(t *testing.T) {
	dsn := os.Getenv("COLSPLIT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("COLSPLIT_TEST_MYSQL_DSN not set")
	}
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := storage.New(context.Background(), storage.Config{
			Kind:  "mysql",
			DSN:   dsn,
			Table: "colsplit_progress_test",
		})
		require.NoError(t, err)
		t.Cleanup(s.Close)
		return s
	})
}
