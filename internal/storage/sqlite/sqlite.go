// Package sqlite registers the "sqlite" progress backend, backed by the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"

	"colsplit/internal/ddl"
	"colsplit/internal/storage"

	_ "modernc.org/sqlite"
)

// Dialect is the SQLite flavor of the progress table.
var Dialect = storage.SQLDialect{
	Dialect:     ddl.Dialect{Name: "sqlite", Quote: ddl.QuoteDouble},
	Driver:      "sqlite",
	Placeholder: storage.Question,
	Table: func(fqn string) ddl.TableDef {
		return ddl.TableDef{FQN: fqn, Columns: []ddl.ColumnDef{
			{Name: "app", SQLType: "TEXT", PrimaryKey: true},
			{Name: "path_key", SQLType: "TEXT", PrimaryKey: true},
			{Name: "path", SQLType: "TEXT"},
			{Name: "completed_at", SQLType: "TIMESTAMP"},
		}}
	},
	InsertIgnore: func(q string, ph []string) string {
		return fmt.Sprintf(`INSERT OR IGNORE INTO %s ("app", "path_key", "path", "completed_at") VALUES (%s, %s, %s, %s)`,
			q, ph[0], ph[1], ph[2], ph[3])
	},
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		// A bare file path is the common case; the driver accepts it as-is.
		if cfg.DSN == "" {
			cfg.DSN = cfg.Path
		}
		return storage.OpenDB(ctx, Dialect, cfg)
	})
}
