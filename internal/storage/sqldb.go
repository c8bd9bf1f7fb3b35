package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"colsplit/internal/ddl"
)

// SQLDialect describes a database/sql backend.
type SQLDialect struct {
	ddl.Dialect

	// Driver is the database/sql driver name.
	Driver string

	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string

	// Table builds the progress table definition for fqn.
	Table func(fqn string) ddl.TableDef

	// InsertIgnore renders an INSERT of (app, path_key, path, completed_at)
	// that silently does nothing when the key already exists.
	InsertIgnore func(quotedTable string, ph []string) string
}

// Question is the "?" placeholder style.
func Question(int) string { return "?" }

// DB is a Store over database/sql, shared by the sqlite, mssql and mysql
// backends.
type DB struct {
	db      *sql.DB
	d       SQLDialect
	table   string
	load    string
	insert  string
	reset   string
	closeFn func()
}

var _ Store = (*DB)(nil)

// OpenDB opens cfg.DSN with the dialect's driver, pings it and creates the
// progress table when missing.
func OpenDB(ctx context.Context, d SQLDialect, cfg Config) (*DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", d.Name)
	}
	table := cfg.TableName()
	if !ValidTable(table) {
		return nil, fmt.Errorf("%s: invalid table name %q", d.Name, table)
	}

	db, err := sql.Open(d.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name, err)
	}

	s := NewDB(db, d, table)
	if err := s.EnsureTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.closeFn = func() { _ = db.Close() }
	return s, nil
}

// NewDB wraps an already-open handle. The caller keeps ownership of db.
func NewDB(db *sql.DB, d SQLDialect, table string) *DB {
	q := ddl.QuoteFQN(d.Dialect, table)
	ph := func(n int) string { return d.Placeholder(n) }
	col := d.Quote
	return &DB{
		db:    db,
		d:     d,
		table: table,
		load: fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY %s, %s",
			col("path"), q, col("app"), ph(1), col("completed_at"), col("path_key")),
		insert: d.InsertIgnore(q, []string{ph(1), ph(2), ph(3), ph(4)}),
		reset:  fmt.Sprintf("DELETE FROM %s WHERE %s = %s", q, col("app"), ph(1)),
	}
}

// EnsureTable runs the dialect's guarded CREATE TABLE.
func (s *DB) EnsureTable(ctx context.Context) error {
	stmt, err := ddl.BuildCreateTableSQL(s.d.Table(s.table), s.d.Dialect)
	if err != nil {
		return fmt.Errorf("%s: build DDL: %w", s.d.Name, err)
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: create table %s: %w", s.d.Name, s.table, err)
	}
	return nil
}

func (s *DB) Load(ctx context.Context, app string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.load, app)
	if err != nil {
		return nil, fmt.Errorf("%s: load: %w", s.d.Name, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", s.d.Name, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: load: %w", s.d.Name, err)
	}
	return out, nil
}

// Add inserts path in its own implicit transaction; the driver returns only
// after the engine has committed it.
func (s *DB) Add(ctx context.Context, app, path string) error {
	if _, err := s.db.ExecContext(ctx, s.insert, app, PathKey(path), path, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: add %s: %w", s.d.Name, path, err)
	}
	return nil
}

func (s *DB) Reset(ctx context.Context, app string) error {
	if _, err := s.db.ExecContext(ctx, s.reset, app); err != nil {
		return fmt.Errorf("%s: reset: %w", s.d.Name, err)
	}
	return nil
}

// Close releases the connection pool when OpenDB created it.
func (s *DB) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}
