package csv

import (
	"encoding/csv"
	"io"

	"colsplit/internal/transformer"
)

// Writer writes a header and transformed chunks as UTF-8 CSV.
type Writer struct {
	cw   *csv.Writer
	rows int64
}

// NewWriter returns a Writer using opt's delimiter.
func NewWriter(w io.Writer, opt Options) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = opt.comma()
	return &Writer{cw: cw}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader(cols []string) error {
	return w.cw.Write(cols)
}

// WriteChunk writes every row of c and returns them to the pool, including
// on error.
func (w *Writer) WriteChunk(c transformer.Chunk) error {
	defer c.Free()
	for _, r := range c.Rows {
		if err := w.cw.Write(r.V); err != nil {
			return err
		}
		w.rows++
	}
	return w.cw.Error()
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int64 { return w.rows }

// Flush flushes buffered output and reports any write error.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}
