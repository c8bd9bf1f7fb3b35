// Package transformer splits the configured name/address columns of row
// chunks into their derived columns.
// This file defines a pooled Row type used across reader → transformer →
// writer to keep heap churn flat while streaming multi-million-row files.
package transformer

import "sync"

// Row is a pooled container holding one positional CSV row.
//
// Contract:
//   - The owner writes into r.V[0:colCount] (no re-slice growth).
//   - Once the row has been written out, the writer **must** call r.Free()
//     to return it to the pool.
//   - Do not retain references to r or r.V beyond the owning stage.
type Row struct {
	V []string
}

var rowPool sync.Pool

// GetRow returns a pooled Row with length colCount. All cells are reset to "".
func GetRow(colCount int) *Row {
	if v := rowPool.Get(); v != nil {
		r := v.(*Row)
		if cap(r.V) < colCount {
			r.V = make([]string, colCount)
		}
		r.V = r.V[:colCount]
		for i := range r.V {
			r.V[i] = ""
		}
		return r
	}
	return &Row{V: make([]string, colCount)}
}

// Free returns the Row to the pool. The caller must not use r after Free().
func (r *Row) Free() {
	rowPool.Put(r)
}

// Get returns cell i, or "" when the row is shorter than i+1 cells.
func (r *Row) Get(i int) string {
	if i < 0 || i >= len(r.V) {
		return ""
	}
	return r.V[i]
}
