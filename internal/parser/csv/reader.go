package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"colsplit/internal/transformer"
)

// ErrEmptyHeader is returned when the first row of a file has no cells.
var ErrEmptyHeader = errors.New("csv: empty header row")

// ChunkReader reads a CSV stream as a header followed by row chunks of at
// most Size rows.
type ChunkReader struct {
	cr     *csv.Reader
	header []string
	size   int
	done   bool
}

// NewChunkReader decodes r per opt and consumes exactly the header row.
// Header errors are returned as-is; callers classify them.
func NewChunkReader(r io.Reader, opt Options, size int) (*ChunkReader, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	dr, err := decode(r, opt.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dr)
	cr.Comma = opt.comma()
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = opt.FieldsPerRecord
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: %w", io.ErrUnexpectedEOF)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// ReuseRecord: the slice is ours only until the next Read.
	header := StripHeaderBOM(append([]string(nil), hdr...))
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return nil, ErrEmptyHeader
	}
	return &ChunkReader{cr: cr, header: header, size: size}, nil
}

// ReadHeader returns only the first row of r, without reading further.
func ReadHeader(r io.Reader, opt Options) ([]string, error) {
	cr, err := NewChunkReader(r, opt, 1)
	if err != nil {
		return nil, err
	}
	return cr.Header(), nil
}

// Header returns the header row. The slice must not be modified.
func (c *ChunkReader) Header() []string { return c.header }

// Next returns the next chunk of pooled rows, or io.EOF when the input is
// exhausted. A malformed row aborts the read with a *csv.ParseError.
// The returned chunk's rows must be freed by the consumer.
func (c *ChunkReader) Next(ctx context.Context) (transformer.Chunk, error) {
	if c.done {
		return transformer.Chunk{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return transformer.Chunk{}, err
	}

	ch := transformer.Chunk{Columns: c.header, Rows: make([]*transformer.Row, 0, min(c.size, 4096))}
	for len(ch.Rows) < c.size {
		rec, err := c.cr.Read()
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			ch.Free()
			return transformer.Chunk{}, err
		}
		if len(ch.Rows) == 0 {
			ch.Line, _ = c.cr.FieldPos(0)
		}
		row := transformer.GetRow(len(rec))
		copy(row.V, rec)
		ch.Rows = append(ch.Rows, row)
	}
	if len(ch.Rows) == 0 {
		return transformer.Chunk{}, io.EOF
	}
	return ch, nil
}

// IsFormatError reports whether err means the input is not well-formed CSV,
// as opposed to an I/O failure while reading it.
func IsFormatError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrEmptyHeader) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
