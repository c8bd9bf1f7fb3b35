package prompt

import (
	"fmt"
	"path/filepath"

	"colsplit/internal/transformer"
)

// Selector asks for the source column positions of each file it is given,
// after printing that file's header.
type Selector struct {
	P *Prompter

	// Base carries the output column names and any indices already known.
	Base transformer.Selections

	// AskName and AskAddress select which splitters need a column.
	AskName    bool
	AskAddress bool
}

// Select implements the pipeline's column selector.
func (s *Selector) Select(file string, header []string) (transformer.Selections, error) {
	sel := s.Base
	if !s.AskName && !s.AskAddress {
		return sel, nil
	}
	if len(header) == 0 {
		return sel, fmt.Errorf("%s has no columns", file)
	}

	fmt.Fprintf(s.P.out, "\nColumns of %s:\n", filepath.Base(file))
	s.P.List(header)

	var err error
	if s.AskName {
		if sel.NameIndex, err = s.P.Index("Enter the index of the column containing the names.", 1, len(header)); err != nil {
			return sel, err
		}
	}
	if s.AskAddress {
		if sel.AddressIndex, err = s.P.Index("Enter the index of the column containing the addresses.", 1, len(header)); err != nil {
			return sel, err
		}
	}
	return sel, nil
}
