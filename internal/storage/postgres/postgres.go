// Package postgres implements the "postgres" progress backend on a pgx v5
// connection pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"colsplit/internal/ddl"
	"colsplit/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

var dialect = ddl.Dialect{Name: "postgres", Quote: ddl.QuoteDouble}

func tableDef(fqn string) ddl.TableDef {
	return ddl.TableDef{FQN: fqn, Columns: []ddl.ColumnDef{
		{Name: "app", SQLType: "TEXT", PrimaryKey: true},
		{Name: "path_key", SQLType: "CHAR(16)", PrimaryKey: true},
		{Name: "path", SQLType: "TEXT"},
		{Name: "completed_at", SQLType: "TIMESTAMPTZ", Default: "now()"},
	}}
}

// Store is a Postgres-backed storage.Store.
type Store struct {
	pool   *pgxpool.Pool
	table  string
	load   string
	insert string
	reset  string
}

var _ storage.Store = (*Store)(nil)

// Open connects, pings and creates the progress table when missing.
func Open(ctx context.Context, cfg storage.Config) (*Store, error) {
	table := cfg.TableName()
	if !storage.ValidTable(table) {
		return nil, fmt.Errorf("postgres: invalid table name %q", table)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	q := ddl.QuoteFQN(dialect, table)
	s := &Store{
		pool:  pool,
		table: table,
		load:  fmt.Sprintf(`SELECT "path" FROM %s WHERE "app" = $1 ORDER BY "completed_at", "path_key"`, q),
		insert: fmt.Sprintf(`INSERT INTO %s ("app", "path_key", "path", "completed_at") VALUES ($1, $2, $3, $4) `+
			`ON CONFLICT ("app", "path_key") DO NOTHING`, q),
		reset: fmt.Sprintf(`DELETE FROM %s WHERE "app" = $1`, q),
	}

	stmt, err := ddl.BuildCreateTableSQL(tableDef(table), dialect)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: build DDL: %w", err)
	}
	if _, err := pool.Exec(ctx, stmt); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create table %s: %w", table, err)
	}
	return s, nil
}

func (s *Store) Load(ctx context.Context, app string) ([]string, error) {
	rows, err := s.pool.Query(ctx, s.load, app)
	if err != nil {
		return nil, fmt.Errorf("postgres: load: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load: %w", err)
	}
	return out, nil
}

func (s *Store) Add(ctx context.Context, app, path string) error {
	if _, err := s.pool.Exec(ctx, s.insert, app, storage.PathKey(path), path, time.Now().UTC()); err != nil {
		return fmt.Errorf("postgres: add %s: %w", path, err)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context, app string) error {
	if _, err := s.pool.Exec(ctx, s.reset, app); err != nil {
		return fmt.Errorf("postgres: reset: %w", err)
	}
	return nil
}

func (s *Store) Close() { s.pool.Close() }

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(ctx, cfg)
	})
}
