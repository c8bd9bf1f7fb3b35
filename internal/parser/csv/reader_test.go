package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colsplit/internal/transformer"
)

func drain(t *testing.T, cr *ChunkReader) []transformer.Chunk {
	t.Helper()
	var out []transformer.Chunk
	for {
		ch, err := cr.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, ch)
	}
}

func cells(ch transformer.Chunk) [][]string {
	out := make([][]string, len(ch.Rows))
	for i, r := range ch.Rows {
		out[i] = append([]string(nil), r.V...)
	}
	return out
}

// TestChunkReader_Chunks verifies chunk boundaries, row order and the line
// number recorded for each chunk's first row.
func TestChunkReader_Chunks(t *testing.T) {
	t.Parallel()

	in := "id,name\n1,a\n2,b\n3,c\n4,d\n5,e\n"
	cr, err := NewChunkReader(strings.NewReader(in), Options{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cr.Header())

	chunks := drain(t, cr)
	require.Len(t, chunks, 3)
	assert.Equal(t, [][]string{{"1", "a"}, {"2", "b"}}, cells(chunks[0]))
	assert.Equal(t, [][]string{{"3", "c"}, {"4", "d"}}, cells(chunks[1]))
	assert.Equal(t, [][]string{{"5", "e"}}, cells(chunks[2]))
	assert.Equal(t, []int{2, 4, 6}, []int{chunks[0].Line, chunks[1].Line, chunks[2].Line})
	for _, ch := range chunks {
		assert.Equal(t, []string{"id", "name"}, ch.Columns)
	}

	// Exhausted readers keep returning EOF.
	_, err = cr.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestChunkReader_ExactMultiple(t *testing.T) {
	t.Parallel()

	cr, err := NewChunkReader(strings.NewReader("a\n1\n2\n"), Options{}, 2)
	require.NoError(t, err)
	chunks := drain(t, cr)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Len())
}

func TestChunkReader_HeaderOnly(t *testing.T) {
	t.Parallel()

	cr, err := NewChunkReader(strings.NewReader("a,b\n"), Options{}, 10)
	require.NoError(t, err)
	assert.Empty(t, drain(t, cr))
}

func TestChunkReader_HeaderErrors(t *testing.T) {
	t.Parallel()

	_, err := NewChunkReader(strings.NewReader(""), Options{}, 10)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = NewChunkReader(strings.NewReader("\"unterminated\n"), Options{}, 10)
	var pe *stdcsv.ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = NewChunkReader(strings.NewReader("a,b\n"), Options{Encoding: "klingon"}, 10)
	assert.Error(t, err)
}

// TestChunkReader_MalformedRow checks that a width mismatch surfaces as a
// ParseError carrying the offending line.
func TestChunkReader_MalformedRow(t *testing.T) {
	t.Parallel()

	cr, err := NewChunkReader(strings.NewReader("a,b\n1,2\n3\n"), Options{}, 10)
	require.NoError(t, err)

	_, err = cr.Next(context.Background())
	var pe *stdcsv.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
	assert.ErrorIs(t, err, stdcsv.ErrFieldCount)
}

func TestChunkReader_VariableWidth(t *testing.T) {
	t.Parallel()

	cr, err := NewChunkReader(strings.NewReader("a,b\n1\n2,3,4\n"), Options{FieldsPerRecord: -1}, 10)
	require.NoError(t, err)
	chunks := drain(t, cr)
	require.Len(t, chunks, 1)
	assert.Equal(t, [][]string{{"1"}, {"2", "3", "4"}}, cells(chunks[0]))
}

func TestChunkReader_BOMAndDelimiter(t *testing.T) {
	t.Parallel()

	cr, err := NewChunkReader(strings.NewReader("\uFEFFid;name\n1;John Smith\n"), Options{Comma: ';'}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cr.Header())
	assert.Equal(t, [][]string{{"1", "John Smith"}}, cells(drain(t, cr)[0]))
}

// TestChunkReader_Windows1252 decodes a legacy single-byte file into UTF-8.
func TestChunkReader_Windows1252(t *testing.T) {
	t.Parallel()

	in := "name\nJos\xe9 Garc\xeda\n"
	cr, err := NewChunkReader(strings.NewReader(in), Options{Encoding: "windows-1252"}, 10)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"José García"}}, cells(drain(t, cr)[0]))
}

func TestChunkReader_Canceled(t *testing.T) {
	t.Parallel()

	cr, err := NewChunkReader(strings.NewReader("a\n1\n"), Options{}, 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cr.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadHeader(t *testing.T) {
	t.Parallel()

	// The body is malformed; ReadHeader must not look at it.
	h, err := ReadHeader(strings.NewReader("id,fullName,fullAddress\n\"broken\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "fullName", "fullAddress"}, h)
}

func TestLookupEncoding(t *testing.T) {
	t.Parallel()

	for _, label := range []string{"", "utf-8", "UTF8", "windows-1252", "latin1", "iso-8859-2"} {
		_, err := LookupEncoding(label)
		assert.NoError(t, err, label)
	}
	_, err := LookupEncoding("nope")
	assert.Error(t, err)
}

func TestIsFormatError(t *testing.T) {
	t.Parallel()

	_, err := NewChunkReader(strings.NewReader(""), Options{}, 10)
	assert.True(t, IsFormatError(err))

	_, err = NewChunkReader(strings.NewReader("\n"), Options{}, 10)
	assert.True(t, IsFormatError(err))

	_, err = NewChunkReader(strings.NewReader("a,\"b\n"), Options{}, 10)
	assert.True(t, IsFormatError(err))

	assert.False(t, IsFormatError(errors.New("read: input/output error")))
}
