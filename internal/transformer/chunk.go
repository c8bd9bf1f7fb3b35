package transformer

// Chunk is a bounded batch of rows sharing one column schema. Line is the
// 1-based input line number of Rows[0] (the header is line 1).
type Chunk struct {
	Columns []string
	Rows    []*Row
	Line    int
}

// Len returns the number of rows in the chunk.
func (c Chunk) Len() int { return len(c.Rows) }

// Free returns every row to the pool. The chunk must not be used afterwards.
func (c Chunk) Free() {
	for _, r := range c.Rows {
		if r != nil {
			r.Free()
		}
	}
}
