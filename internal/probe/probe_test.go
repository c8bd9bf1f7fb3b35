package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colsplit/internal/parser/csv"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestProbe(t *testing.T) {
	t.Parallel()

	p := write(t, "id,fullName,fullAddress\n"+
		"1,John Smith,Springfield IL USA 62704\n"+
		"2,Mary Ann Lee,Paris France 75001\n"+
		"3,Cher\n")

	rep, err := Probe(context.Background(), p, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, rep.SampledRows)
	assert.Equal(t, 2, rep.NameIndex)
	assert.Equal(t, 3, rep.AddressIndex)
	assert.Equal(t, "--split-names --name-column 2 --split-address --address-column 3", rep.Flags())

	require.Len(t, rep.Columns, 3)
	assert.Equal(t, Column{Index: 2, Name: "fullName", Samples: []string{"John Smith", "Mary Ann Lee", "Cher"}, Role: RoleName}, rep.Columns[1])
	assert.Equal(t, []string{"Springfield IL USA 62704", "Paris France 75001", ""}, rep.Columns[2].Samples)
	assert.Empty(t, rep.Columns[0].Role)
}

func TestProbe_RowLimitAndDelimiter(t *testing.T) {
	t.Parallel()

	p := write(t, "Nombre;Dirección\nAna Ruiz;Madrid 28001\nLuis Gil;Sevilla 41001\nEva Sol;Cádiz 11001\n")
	rep, err := Probe(context.Background(), p, Options{Rows: 2, Input: csv.Options{Comma: ';'}})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.SampledRows)
	assert.Equal(t, 1, rep.NameIndex)
	assert.Equal(t, 2, rep.AddressIndex)
}

func TestProbe_NoSuggestion(t *testing.T) {
	t.Parallel()

	p := write(t, "firstName,lastName,emailAddress\n")
	rep, err := Probe(context.Background(), p, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.SampledRows)
	assert.Equal(t, 0, rep.NameIndex)
	assert.Equal(t, 0, rep.AddressIndex)
	assert.Empty(t, rep.Flags())
	assert.Equal(t, []string{}, rep.Columns[0].Samples)
}

func TestProbe_Errors(t *testing.T) {
	t.Parallel()

	_, err := Probe(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)

	_, err = Probe(context.Background(), write(t, ""), Options{})
	assert.Error(t, err)
}

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Full Name":   "full_name",
		" full-name ": "full_name",
		"Dirección":   "direccion",
		"ADDR.LINE":   "addr_line",
		"!!":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeHeader(in), in)
	}
}
