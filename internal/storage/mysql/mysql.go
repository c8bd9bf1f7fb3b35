// Package mysql registers the "mysql" progress backend.
package mysql

import (
	"context"
	"fmt"

	"colsplit/internal/ddl"
	"colsplit/internal/storage"

	drv "github.com/go-sql-driver/mysql"
)

// Dialect is the MySQL flavor of the progress table.
var Dialect = storage.SQLDialect{
	Dialect:     ddl.Dialect{Name: "mysql", Quote: ddl.QuoteBacktick},
	Driver:      "mysql",
	Placeholder: storage.Question,
	Table: func(fqn string) ddl.TableDef {
		return ddl.TableDef{FQN: fqn, Columns: []ddl.ColumnDef{
			{Name: "app", SQLType: "VARCHAR(255)", PrimaryKey: true},
			{Name: "path_key", SQLType: "CHAR(16)", PrimaryKey: true},
			{Name: "path", SQLType: "TEXT"},
			{Name: "completed_at", SQLType: "DATETIME(6)"},
		}}
	},
	InsertIgnore: func(q string, ph []string) string {
		return fmt.Sprintf("INSERT IGNORE INTO %s (`app`, `path_key`, `path`, `completed_at`) VALUES (%s, %s, %s, %s)",
			q, ph[0], ph[1], ph[2], ph[3])
	},
}

// normalizeDSN makes the driver return DATETIME columns as time.Time.
func normalizeDSN(dsn string) (string, error) {
	c, err := drv.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	c.ParseTime = true
	return c.FormatDSN(), nil
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		dsn, err := normalizeDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
		cfg.DSN = dsn
		return storage.OpenDB(ctx, Dialect, cfg)
	})
}
