package ddl

// TableDef is a minimal table definition used to render CREATE TABLE.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnDef describes one column. SQLType is emitted verbatim, so it must
// already be in the target dialect.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// Dialect captures the few places SQL backends disagree on table bootstrap.
type Dialect struct {
	Name string

	// Quote quotes a single identifier segment.
	Quote func(string) string

	// Guard wraps a CREATE TABLE statement so that it is a no-op when the
	// table already exists. The quoted FQN is passed for dialects that need
	// to look the table up. When nil, "CREATE TABLE IF NOT EXISTS" is used.
	Guard func(quotedFQN, create string) string
}
