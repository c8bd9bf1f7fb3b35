// Package probe samples the start of a CSV file and suggests which columns
// hold the free-text names and addresses, so an operator can pick column
// indices without opening the file.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"colsplit/internal/datasource/file"
	"colsplit/internal/parser/csv"
)

// Column roles.
const (
	RoleName    = "name"
	RoleAddress = "address"
)

// DefaultRows is the number of data rows sampled when Options.Rows is zero.
const DefaultRows = 5

// Options control sampling.
type Options struct {
	Rows  int
	Input csv.Options
}

// Column is one header cell with its sampled values.
type Column struct {
	Index   int      `json:"index"` // 1-based
	Name    string   `json:"name"`
	Samples []string `json:"samples"`
	Role    string   `json:"role,omitempty"`
}

// Report is the result of probing one file. NameIndex and AddressIndex are
// the suggested 1-based positions, 0 when nothing looked right.
type Report struct {
	Path         string   `json:"path"`
	Columns      []Column `json:"columns"`
	SampledRows  int      `json:"sampled_rows"`
	NameIndex    int      `json:"name_index"`
	AddressIndex int      `json:"address_index"`
}

// Flags renders the suggestion as run flags.
func (r Report) Flags() string {
	var parts []string
	if r.NameIndex > 0 {
		parts = append(parts, fmt.Sprintf("--split-names --name-column %d", r.NameIndex))
	}
	if r.AddressIndex > 0 {
		parts = append(parts, fmt.Sprintf("--split-address --address-column %d", r.AddressIndex))
	}
	return strings.Join(parts, " ")
}

// Probe reads the header and up to opt.Rows data rows of path.
func Probe(ctx context.Context, path string, opt Options) (Report, error) {
	n := opt.Rows
	if n <= 0 {
		n = DefaultRows
	}
	// Sampling tolerates ragged rows whatever the run will do.
	in := opt.Input
	in.FieldsPerRecord = -1

	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return Report{}, err
	}
	defer rc.Close()

	cr, err := csv.NewChunkReader(rc, in, n)
	if err != nil {
		return Report{}, fmt.Errorf("read header of %s: %w", path, err)
	}

	rep := Report{Path: path}
	for i, h := range cr.Header() {
		rep.Columns = append(rep.Columns, Column{Index: i + 1, Name: h, Samples: []string{}})
	}

	chunk, err := cr.Next(ctx)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		return Report{}, fmt.Errorf("sample %s: %w", path, err)
	default:
		for _, row := range chunk.Rows {
			for i := range rep.Columns {
				rep.Columns[i].Samples = append(rep.Columns[i].Samples, row.Get(i))
			}
		}
		rep.SampledRows = chunk.Len()
		chunk.Free()
	}

	rep.NameIndex = best(rep.Columns, nameScore)
	rep.AddressIndex = best(rep.Columns, addressScore)
	if rep.NameIndex == rep.AddressIndex {
		rep.AddressIndex = 0
	}
	for i := range rep.Columns {
		switch rep.Columns[i].Index {
		case rep.NameIndex:
			rep.Columns[i].Role = RoleName
		case rep.AddressIndex:
			rep.Columns[i].Role = RoleAddress
		}
	}
	return rep, nil
}

// best returns the index of the highest scoring column; ties go to the
// leftmost. Zero scores never win.
func best(cols []Column, score func(Column) int) int {
	idx, top := 0, 0
	for _, c := range cols {
		if s := score(c); s > top {
			idx, top = c.Index, s
		}
	}
	return idx
}

var (
	nameExact   = map[string]bool{"name": true, "full_name": true, "fullname": true, "nombre": true, "jmeno": true}
	nameParts   = []string{"first", "middle", "last", "given", "family", "sur", "file", "user", "company", "street", "city"}
	addrExact   = map[string]bool{"address": true, "full_address": true, "fulladdress": true, "addr": true, "direccion": true, "adresa": true}
	addrPartial = []string{"address", "addr"}
)

func nameScore(c Column) int {
	h := normalizeHeader(c.Name)
	switch {
	case nameExact[h]:
		return 3
	case strings.Contains(h, "name"):
		for _, p := range nameParts {
			if strings.Contains(h, p) {
				return 0
			}
		}
		return 2 + spaced(c.Samples)
	}
	return 0
}

func addressScore(c Column) int {
	h := normalizeHeader(c.Name)
	if addrExact[h] {
		return 3
	}
	for _, p := range addrPartial {
		if strings.Contains(h, p) && !strings.Contains(h, "email") && !strings.Contains(h, "ip") {
			return 2
		}
	}
	return 0
}

// spaced is 1 when most samples contain a space, as free-text values do.
func spaced(samples []string) int {
	if len(samples) == 0 {
		return 0
	}
	n := 0
	for _, s := range samples {
		if strings.Contains(strings.TrimSpace(s), " ") {
			n++
		}
	}
	if n*2 > len(samples) {
		return 1
	}
	return 0
}

// normalizeHeader lower-cases s, strips accents and maps separators to
// underscores, so "Full Name", "full-name" and "FULL_NAME" compare equal.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
