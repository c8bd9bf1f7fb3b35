package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = Dialect{Name: "ansi", Quote: QuoteDouble}

// TestBuildCreateTableSQL checks rendering and validation errors.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		dialect     Dialect
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			dialect:     ansi,
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns",
			def:         TableDef{FQN: "t"},
			dialect:     ansi,
			errContains: "at least one column is required",
		},
		{
			name:        "empty column name",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			dialect:     ansi,
			errContains: "column with empty name",
		},
		{
			name:        "missing type",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			dialect:     ansi,
			errContains: "missing SQLType",
		},
		{
			name:        "dialect without quote",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			dialect:     Dialect{Name: "broken"},
			errContains: "no quote func",
		},
		{
			name: "nullable column with default",
			def: TableDef{FQN: "t", Columns: []ColumnDef{
				{Name: "note", SQLType: "TEXT", Nullable: true, Default: "''"},
			}},
			dialect: ansi,
			wantSQL: "CREATE TABLE IF NOT EXISTS \"t\" (\n  \"note\" TEXT DEFAULT ''\n)",
		},
		{
			name: "composite key forces not null",
			def: TableDef{FQN: "public.progress", Columns: []ColumnDef{
				{Name: "app", SQLType: "TEXT", Nullable: true, PrimaryKey: true},
				{Name: "path_key", SQLType: "CHAR(16)", PrimaryKey: true},
				{Name: "path", SQLType: "TEXT"},
			}},
			dialect: ansi,
			wantSQL: "CREATE TABLE IF NOT EXISTS \"public\".\"progress\" (\n" +
				"  \"app\" TEXT NOT NULL,\n" +
				"  \"path_key\" CHAR(16) NOT NULL,\n" +
				"  \"path\" TEXT NOT NULL,\n" +
				"  PRIMARY KEY (\"app\", \"path_key\")\n)",
		},
		{
			name: "guarded dialect",
			def:  TableDef{FQN: "dbo.p", Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			dialect: Dialect{
				Name:  "mssql",
				Quote: QuoteBracket,
				Guard: func(q, create string) string { return "IF OBJECT_ID(N'" + q + "') IS NULL " + create },
			},
			wantSQL: "IF OBJECT_ID(N'[dbo].[p]') IS NULL CREATE TABLE [dbo].[p] (\n  [id] INT NOT NULL\n)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tc.def, tc.dialect)
			if tc.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, got)
		})
	}
}

func TestQuoting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"a""b"`, QuoteDouble(`a"b`))
	assert.Equal(t, "`a``b`", QuoteBacktick("a`b"))
	assert.Equal(t, "[a]]b]", QuoteBracket("a]b"))
	assert.Equal(t, "`db`.`t`", QuoteFQN(Dialect{Quote: QuoteBacktick}, "db.t"))
}
