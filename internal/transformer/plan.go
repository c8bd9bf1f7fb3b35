package transformer

import (
	"fmt"
	"runtime/debug"
	"slices"

	"colsplit/internal/errs"
	"colsplit/internal/splitter"
)

// Plan is a SplitConfig compiled against one header: source indices, the
// retained columns and the output header are computed once per file so the
// per-row loop does no name lookups.
type Plan struct {
	in      []string
	out     []string
	keep    []int // input indices retained, in order
	nameIx  int   // -1 when disabled
	addrIx  int   // -1 when disabled
	enabled bool
}

// Compile validates cfg against header and builds a Plan.
//
// Derived columns are appended after the retained columns: name parts first,
// then address parts. A derived name colliding with a retained column or with
// another derived name is a configuration error.
func Compile(header []string, cfg SplitConfig) (*Plan, error) {
	p := &Plan{in: slices.Clone(header), nameIx: -1, addrIx: -1, enabled: cfg.Enabled()}
	var err error

	if cfg.NameColumn != "" {
		if p.nameIx, err = locate(header, "name", cfg.NameColumn, cfg.NamePos); err != nil {
			return nil, err
		}
		if n := len(cfg.nameColumns()); n != nameArity {
			return nil, errs.Configurationf("name output needs %d columns, got %d", nameArity, n)
		}
	}
	if cfg.AddressColumn != "" {
		if p.addrIx, err = locate(header, "address", cfg.AddressColumn, cfg.AddressPos); err != nil {
			return nil, err
		}
		if n := len(cfg.addressColumns()); n != addressArity {
			return nil, errs.Configurationf("address output needs %d columns, got %d", addressArity, n)
		}
	}
	if p.nameIx >= 0 && p.nameIx == p.addrIx {
		return nil, errs.Configurationf("name and address select the same column %q", cfg.NameColumn)
	}

	p.keep = make([]int, 0, len(header))
	p.out = make([]string, 0, len(header)+nameArity+addressArity)
	for i, h := range header {
		if p.enabled && (i == p.nameIx || i == p.addrIx) {
			continue
		}
		p.keep = append(p.keep, i)
		p.out = append(p.out, h)
	}
	if !p.enabled {
		return p, nil
	}

	seen := make(map[string]struct{}, len(p.out)+nameArity+addressArity)
	for _, h := range p.out {
		seen[h] = struct{}{}
	}
	add := func(cols []string) error {
		for _, c := range cols {
			if _, dup := seen[c]; dup {
				return errs.Configurationf("output column %q collides with an existing column", c)
			}
			seen[c] = struct{}{}
			p.out = append(p.out, c)
		}
		return nil
	}
	if p.nameIx >= 0 {
		if err := add(cfg.nameColumns()); err != nil {
			return nil, err
		}
	}
	if p.addrIx >= 0 {
		if err := add(cfg.addressColumns()); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// locate returns the 0-based index of a source column. With pos set the
// column at that 1-based position must carry name; otherwise the first column
// named name is used.
func locate(header []string, what, name string, pos int) (int, error) {
	if pos == 0 {
		if i := slices.Index(header, name); i >= 0 {
			return i, nil
		}
		return -1, errs.Configurationf("%s column %q not in header", what, name)
	}
	if pos < 1 || pos > len(header) || header[pos-1] != name {
		return -1, errs.Configurationf("%s column %q is not at position %d", what, name, pos)
	}
	return pos - 1, nil
}

// Columns returns the output header. The slice must not be modified.
func (p *Plan) Columns() []string { return p.out }

// Enabled reports whether Apply produces new rows (false: pass-through).
func (p *Plan) Enabled() bool { return p.enabled }

// Input returns the header the plan was compiled against.
func (p *Plan) Input() []string { return p.in }

// Apply transforms one chunk. The input chunk is left untouched; the returned
// chunk owns freshly pooled rows. When no splitter is enabled the input chunk
// is returned as-is.
//
// A panic raised while splitting is recovered and reported as an Unexpected
// error carrying the line number and stack.
func (p *Plan) Apply(c Chunk) (out Chunk, err error) {
	if !p.enabled {
		return c, nil
	}

	out = Chunk{Columns: p.out, Rows: make([]*Row, 0, len(c.Rows)), Line: c.Line}
	line := c.Line
	defer func() {
		if r := recover(); r != nil {
			out.Free()
			out = Chunk{}
			err = errs.NewUnexpected(fmt.Sprintf("split line %d", line), "",
				fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
		}
	}()

	width := len(p.out)
	for i, src := range c.Rows {
		line = c.Line + i
		dst := GetRow(width)
		j := 0
		for _, k := range p.keep {
			dst.V[j] = src.Get(k)
			j++
		}
		if p.nameIx >= 0 {
			j += copy(dst.V[j:], splitter.SplitName(src.Get(p.nameIx)).Values())
		}
		if p.addrIx >= 0 {
			copy(dst.V[j:], splitter.SplitAddress(src.Get(p.addrIx)).Values())
		}
		out.Rows = append(out.Rows, dst)
	}
	return out, nil
}

// Apply compiles cfg against c.Columns and transforms c. Prefer Compile +
// Plan.Apply when handling many chunks of the same file.
func Apply(c Chunk, cfg SplitConfig) (Chunk, error) {
	p, err := Compile(c.Columns, cfg)
	if err != nil {
		return Chunk{}, err
	}
	return p.Apply(c)
}
