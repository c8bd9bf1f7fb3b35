package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"

	"colsplit/internal/errs"
	"colsplit/internal/parser/csv"
	"colsplit/internal/transformer"
)

func both(header []string) (transformer.SplitConfig, error) {
	return transformer.ResolveConfig(header, transformer.Selections{NameIndex: 2, AddressIndex: 3})
}

func setup(t *testing.T, name, body string) (in, outDir string) {
	t.Helper()
	inDir := t.TempDir()
	outDir = t.TempDir()
	in = filepath.Join(inDir, name)
	require.NoError(t, os.WriteFile(in, []byte(body), 0o644))
	return in, outDir
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

// TestProcess_EndToEnd runs the three-row example through both splitters.
func TestProcess_EndToEnd(t *testing.T) {
	t.Parallel()

	in, outDir := setup(t, "people.csv", "id,fullName,fullAddress\n"+
		"1,John Smith,Springfield IL USA 62704\n"+
		"2,Mary Ann Lee,Paris France 75001\n"+
		"3,Cher,Nowhere\n")

	var seen []int
	res, err := Chunked{OnChunk: func(n int) { seen = append(seen, n) }}.Process(context.Background(), Job{
		InputPath: in,
		OutputDir: outDir,
		ChunkSize: 2,
		Resolve:   both,
	})
	require.NoError(t, err)

	want := "id,firstName,middleName,lastName,city,state,country,postalCode\n" +
		"1,John,,Smith,Springfield,IL,USA,62704\n" +
		"2,Mary,Ann,Lee,Paris,France,Paris,75001\n" +
		"3,Cher,,Cher,,,,\n"
	got := readFile(t, filepath.Join(outDir, "people.csv"))
	assert.Equal(t, want, got)

	assert.Equal(t, in, res.Input)
	assert.Equal(t, filepath.Join(outDir, "people.csv"), res.Output)
	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, []int{2, 1}, seen)
	assert.Equal(t, xxh3.HashString(want), res.Checksum)
	assert.Equal(t, []string{"id", "firstName", "middleName", "lastName", "city", "state", "country", "postalCode"}, res.Columns)
}

func TestProcess_HeaderOnly(t *testing.T) {
	t.Parallel()

	in, outDir := setup(t, "empty.csv", "id,fullName,fullAddress\n")
	res, err := Chunked{}.Process(context.Background(), Job{InputPath: in, OutputDir: outDir, Resolve: both})
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
	assert.Zero(t, res.Chunks)
	assert.Equal(t, "id,firstName,middleName,lastName,city,state,country,postalCode\n", readFile(t, res.Output))
}

func TestProcess_DelimitersAndEncoding(t *testing.T) {
	t.Parallel()

	in, outDir := setup(t, "legacy.csv", "id;name\n1;Jos\xe9 Garc\xeda\n")
	res, err := Chunked{}.Process(context.Background(), Job{
		InputPath: in,
		OutputDir: outDir,
		Input:     csv.Options{Comma: ';', Encoding: "windows-1252"},
		Output:    csv.Options{Comma: '\t'},
		Resolve: func(h []string) (transformer.SplitConfig, error) {
			return transformer.ResolveConfig(h, transformer.Selections{NameIndex: 2})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "id\tfirstName\tmiddleName\tlastName\n1\tJosé\t\tGarcía\n", readFile(t, res.Output))
}

func TestProcess_ShortRowsReadAsEmpty(t *testing.T) {
	t.Parallel()

	in, outDir := setup(t, "short.csv", "id,fullName,fullAddress\n1,Ann Bo\n")
	res, err := Chunked{}.Process(context.Background(), Job{
		InputPath: in,
		OutputDir: outDir,
		Input:     csv.Options{FieldsPerRecord: -1},
		Resolve:   both,
	})
	require.NoError(t, err)
	assert.Contains(t, readFile(t, res.Output), "1,Ann,,Bo,,,,\n")
}

// TestProcess_Errors checks classification and that no output is published.
func TestProcess_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		input    csv.Options
		resolve  Resolver
		missing  bool
		wantKind errs.Kind
		contains string
	}{
		{name: "missing input", missing: true, resolve: both, wantKind: errs.IO},
		{name: "empty file", body: "", resolve: both, wantKind: errs.FileFormat},
		{name: "malformed quote", body: "id,fullName,fullAddress\n1,\"John,x\n", resolve: both, wantKind: errs.FileFormat},
		{name: "ragged row", body: "id,fullName,fullAddress\n1,John\n", resolve: both, wantKind: errs.FileFormat},
		{
			name:     "too many fields",
			body:     "id,fullName,fullAddress\n1,a b,c d,extra\n",
			input:    csv.Options{FieldsPerRecord: -1},
			resolve:  both,
			wantKind: errs.FileFormat,
			contains: "line 2",
		},
		{
			name: "resolver rejects",
			body: "id\n1\n",
			resolve: func(h []string) (transformer.SplitConfig, error) {
				return transformer.ResolveConfig(h, transformer.Selections{NameIndex: 5})
			},
			wantKind: errs.Configuration,
		},
		{name: "unknown encoding", body: "id\n", input: csv.Options{Encoding: "klingon"}, resolve: both, wantKind: errs.Configuration},
		{name: "no resolver", body: "id\n", wantKind: errs.Configuration},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in, outDir := setup(t, "f.csv", tc.body)
			if tc.missing {
				require.NoError(t, os.Remove(in))
			}
			_, err := Chunked{}.Process(context.Background(), Job{
				InputPath: in, OutputDir: outDir, Input: tc.input, Resolve: tc.resolve,
			})
			require.Error(t, err)
			assert.Equal(t, tc.wantKind, errs.KindOf(err), err.Error())
			if tc.contains != "" {
				assert.Contains(t, err.Error(), tc.contains)
			}

			entries, err := os.ReadDir(outDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing may be left in the output dir")
		})
	}
}

// TestProcess_FailureKeepsPreviousOutput checks that a failed rerun leaves the
// earlier output untouched.
func TestProcess_FailureKeepsPreviousOutput(t *testing.T) {
	t.Parallel()

	in, outDir := setup(t, "p.csv", "id,fullName,fullAddress\n1,A B,\"unterminated\n")
	prev := filepath.Join(outDir, "p.csv")
	require.NoError(t, os.WriteFile(prev, []byte("previous"), 0o644))

	_, err := Chunked{}.Process(context.Background(), Job{InputPath: in, OutputDir: outDir, Resolve: both})
	require.Error(t, err)
	assert.Equal(t, "previous", readFile(t, prev))
}

func TestProcess_OutputDirMissing(t *testing.T) {
	t.Parallel()

	in, outDir := setup(t, "p.csv", "id,fullName,fullAddress\n1,A B,C D\n")
	_, err := Chunked{}.Process(context.Background(), Job{
		InputPath: in, OutputDir: filepath.Join(outDir, "gone"), Resolve: both,
	})
	require.Error(t, err)
	assert.Equal(t, errs.IO, errs.KindOf(err))
}

func TestProcess_Canceled(t *testing.T) {
	t.Parallel()

	in, outDir := setup(t, "p.csv", "id,fullName,fullAddress\n1,A B,C D\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Chunked{}.Process(ctx, Job{InputPath: in, OutputDir: outDir, Resolve: both})
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcess_LargeFileManyChunks(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("id,fullName,fullAddress\n")
	for i := 0; i < 1000; i++ {
		sb.WriteString("7,Ada King Lovelace,London UK GB 10001\n")
	}
	in, outDir := setup(t, "big.csv", sb.String())

	res, err := Chunked{}.Process(context.Background(), Job{InputPath: in, OutputDir: outDir, ChunkSize: 64, Resolve: both})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Rows)
	assert.Equal(t, 16, res.Chunks)

	lines := strings.Split(strings.TrimSuffix(readFile(t, res.Output), "\n"), "\n")
	require.Len(t, lines, 1001)
	assert.Equal(t, "7,Ada,King,Lovelace,London,UK,GB,10001", lines[1000])
}

// TestProcess_DuplicateHeader selects the second of two same-named columns.
func TestProcess_DuplicateHeader(t *testing.T) {
	t.Parallel()

	in, outDir := setup(t, "dup.csv", "name,id,name\nALIAS X,1,John Paul Smith\n")
	res, err := Chunked{}.Process(context.Background(), Job{
		InputPath: in,
		OutputDir: outDir,
		Resolve: func(header []string) (transformer.SplitConfig, error) {
			return transformer.ResolveConfig(header, transformer.Selections{NameIndex: 3})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "name,id,firstName,middleName,lastName\nALIAS X,1,John,Paul,Smith\n", readFile(t, res.Output))
}
