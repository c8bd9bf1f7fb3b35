// Package ddl renders the CREATE TABLE statements the SQL progress backends
// run on startup. It models only what those tables need: typed columns, NOT
// NULL, defaults and a composite primary key.
package ddl

import (
	"fmt"
	"strings"
)

// QuoteDouble quotes an identifier ANSI-style ("name"), as used by Postgres
// and SQLite.
func QuoteDouble(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// QuoteBacktick quotes a MySQL identifier.
func QuoteBacktick(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// QuoteBracket quotes a SQL Server identifier.
func QuoteBracket(id string) string { return "[" + strings.ReplaceAll(id, "]", "]]") + "]" }

// QuoteFQN quotes a possibly schema-qualified name like "dbo.progress"
// segment by segment.
func QuoteFQN(d Dialect, fqn string) string {
	parts := strings.Split(fqn, ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement for t.
//
// Rules:
//   - t.FQN must be non-empty; each column needs a Name and SQLType.
//   - Primary-key columns are always NOT NULL and are rendered, in
//     declaration order, as a trailing PRIMARY KEY clause.
//   - Default is raw SQL in the target dialect.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	if d.Quote == nil {
		return "", fmt.Errorf("ddl: dialect %q has no quote func", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := QuoteFQN(d, fqn)
	body := fmt.Sprintf("(\n  %s\n)", strings.Join(cols, ",\n  "))
	if d.Guard != nil {
		return d.Guard(quoted, "CREATE TABLE "+quoted+" "+body), nil
	}
	return "CREATE TABLE IF NOT EXISTS " + quoted + " " + body, nil
}
