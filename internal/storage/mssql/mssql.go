// Package mssql registers the "mssql" progress backend (SQL Server via
// go-mssqldb).
package mssql

import (
	"context"
	"fmt"
	"strings"

	"colsplit/internal/ddl"
	"colsplit/internal/storage"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// Dialect is the SQL Server flavor of the progress table. SQL Server has no
// CREATE TABLE IF NOT EXISTS or INSERT IGNORE, so both are guarded.
var Dialect = storage.SQLDialect{
	Dialect: ddl.Dialect{
		Name:  "mssql",
		Quote: ddl.QuoteBracket,
		Guard: func(q, create string) string {
			return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL %s", strings.ReplaceAll(q, "'", "''"), create)
		},
	},
	Driver:      "sqlserver",
	Placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
	Table: func(fqn string) ddl.TableDef {
		return ddl.TableDef{FQN: fqn, Columns: []ddl.ColumnDef{
			{Name: "app", SQLType: "NVARCHAR(255)", PrimaryKey: true},
			{Name: "path_key", SQLType: "CHAR(16)", PrimaryKey: true},
			{Name: "path", SQLType: "NVARCHAR(MAX)"},
			{Name: "completed_at", SQLType: "DATETIME2"},
		}}
	},
	InsertIgnore: func(q string, ph []string) string {
		return fmt.Sprintf(
			"IF NOT EXISTS (SELECT 1 FROM %s WHERE [app] = %s AND [path_key] = %s) "+
				"INSERT INTO %s ([app], [path_key], [path], [completed_at]) VALUES (%s, %s, %s, %s)",
			q, ph[0], ph[1], q, ph[0], ph[1], ph[2], ph[3])
	},
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		// Validate early to fail fast on obvious mistakes.
		if _, err := msdsn.Parse(cfg.DSN); err != nil {
			return nil, fmt.Errorf("mssql dsn: %w", err)
		}
		return storage.OpenDB(ctx, Dialect, cfg)
	})
}
