// Package csv streams CSV files in bounded row chunks and writes transformed
// chunks back out. It never buffers a whole file: memory stays proportional
// to the chunk size.
package csv

// DefaultChunkSize is the number of rows per chunk when none is configured.
const DefaultChunkSize = 100_000

// Options configures reading and writing. All fields are optional; zero
// values select the defaults noted per field.
type Options struct {
	// Comma is the field delimiter for input and output. Default ','.
	Comma rune

	// LazyQuotes tolerates bare quotes inside unquoted fields.
	LazyQuotes bool

	// FieldsPerRecord follows encoding/csv: 0 = every row must match the
	// header width, -1 = variable, >0 = fixed count.
	FieldsPerRecord int

	// Encoding names the input text encoding (WHATWG labels such as
	// "utf-8", "windows-1252", "iso-8859-2"). Default UTF-8.
	Encoding string
}

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}
