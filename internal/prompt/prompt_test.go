package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colsplit/internal/transformer"
)

func newPrompter(input string) (*Prompter, *strings.Builder) {
	var out strings.Builder
	return New(strings.NewReader(input), &out), &out
}

func TestYesNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    bool
		retries int
	}{
		{"y\n", true, 0},
		{"YES\n", true, 0},
		{"n\n", false, 0},
		{"maybe\n\nno\n", false, 2},
		{"y", true, 0}, // final line without newline
	}
	for _, tc := range tests {
		p, out := newPrompter(tc.in)
		got, err := p.YesNo("Split names? (y/n)")
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.retries, strings.Count(out.String(), "Please answer y or n."), tc.in)
	}
}

func TestYesNo_EOF(t *testing.T) {
	t.Parallel()

	p, _ := newPrompter("what\n")
	_, err := p.YesNo("?")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	p, out := newPrompter("0\nabc\n4\n2\n")
	got, err := p.Index("Pick a column.", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, 3, strings.Count(out.String(), "between 1 and 3"))
	assert.Contains(t, out.String(), "Pick a column. (1-3)")
}

func TestPath(t *testing.T) {
	t.Parallel()

	p, _ := newPrompter("\n  \"/data/My Files\"  \n")
	got, err := p.Path("Enter the input files location:")
	require.NoError(t, err)
	assert.Equal(t, "/data/My Files", got)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestAsk_ReadError(t *testing.T) {
	t.Parallel()

	p := New(errReader{}, &strings.Builder{})
	_, err := p.Path("?")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoInput)
}

func TestConfirmResume(t *testing.T) {
	t.Parallel()

	p, out := newPrompter("n\n")
	keep, err := p.ConfirmResume(3)
	require.NoError(t, err)
	assert.False(t, keep)
	assert.Contains(t, out.String(), "3 file(s) were completed")
}

// TestSelector prints the header as a numbered list and asks per splitter.
func TestSelector(t *testing.T) {
	t.Parallel()

	p, out := newPrompter("2\n3\n")
	s := &Selector{P: p, Base: transformer.Selections{NameColumns: []string{"f", "m", "l"}}, AskName: true, AskAddress: true}

	sel, err := s.Select("/in/people.csv", []string{"id", "fullName", "fullAddress"})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.NameIndex)
	assert.Equal(t, 3, sel.AddressIndex)
	assert.Equal(t, []string{"f", "m", "l"}, sel.NameColumns)
	assert.Contains(t, out.String(), "Columns of people.csv:\n1. id\n2. fullName\n3. fullAddress\n")
}

func TestSelector_NothingToAsk(t *testing.T) {
	t.Parallel()

	p, out := newPrompter("")
	s := &Selector{P: p, Base: transformer.Selections{NameIndex: 4}}
	sel, err := s.Select("a.csv", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 4, sel.NameIndex)
	assert.Empty(t, out.String())
}
