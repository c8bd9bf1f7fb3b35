package transformer

import (
	"slices"

	"colsplit/internal/errs"
)

// Output column names used when a SplitConfig does not override them.
var (
	DefaultNameColumns    = []string{"firstName", "middleName", "lastName"}
	DefaultAddressColumns = []string{"city", "state", "country", "postalCode"}
)

const (
	nameArity    = 3
	addressArity = 4
)

// SplitConfig describes, for one file, which source columns to split and the
// derived columns each produces. An empty source column disables that
// splitter. Treat as immutable once built.
type SplitConfig struct {
	NameColumn    string
	AddressColumn string

	// NamePos and AddressPos are the 1-based header positions of the source
	// columns. Zero means "first column with that name"; headers may repeat
	// a name, so ResolveConfig always sets them.
	NamePos    int
	AddressPos int

	// NameColumns and AddressColumns default to DefaultNameColumns and
	// DefaultAddressColumns when nil.
	NameColumns    []string
	AddressColumns []string
}

// Enabled reports whether at least one splitter is on.
func (c SplitConfig) Enabled() bool {
	return c.NameColumn != "" || c.AddressColumn != ""
}

func (c SplitConfig) nameColumns() []string {
	if c.NameColumns == nil {
		return DefaultNameColumns
	}
	return c.NameColumns
}

func (c SplitConfig) addressColumns() []string {
	if c.AddressColumns == nil {
		return DefaultAddressColumns
	}
	return c.AddressColumns
}

// Selections are the operator's column choices against a full header, as
// 1-based indices. A zero index disables that splitter.
type Selections struct {
	NameIndex    int
	AddressIndex int

	NameColumns    []string
	AddressColumns []string
}

// ResolveConfig maps 1-based selections onto header names. It never prompts
// and never touches the filesystem.
func ResolveConfig(header []string, sel Selections) (SplitConfig, error) {
	cfg := SplitConfig{
		NameColumns:    sel.NameColumns,
		AddressColumns: sel.AddressColumns,
	}
	if sel.NameIndex == 0 && sel.AddressIndex == 0 {
		return cfg, errs.Configurationf("neither name nor address splitting is enabled")
	}
	pick := func(what string, idx int) (string, error) {
		if idx == 0 {
			return "", nil
		}
		if idx < 1 || idx > len(header) {
			return "", errs.Configurationf("%s column index %d out of range 1..%d", what, idx, len(header))
		}
		return header[idx-1], nil
	}
	var err error
	if cfg.NameColumn, err = pick("name", sel.NameIndex); err != nil {
		return cfg, err
	}
	if cfg.AddressColumn, err = pick("address", sel.AddressIndex); err != nil {
		return cfg, err
	}
	cfg.NamePos, cfg.AddressPos = sel.NameIndex, sel.AddressIndex
	if sel.NameIndex != 0 && sel.NameIndex == sel.AddressIndex {
		return cfg, errs.Configurationf("name and address both select column %d (%q)", sel.NameIndex, cfg.NameColumn)
	}
	if _, err := OutputColumns(header, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// OutputColumns returns the transformed header for header under cfg.
func OutputColumns(header []string, cfg SplitConfig) ([]string, error) {
	p, err := Compile(header, cfg)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.out), nil
}
