package splitter

import "strings"

// NameParts is the result of SplitName. Middle may be empty.
type NameParts struct {
	First  string
	Middle string
	Last   string
}

// Values returns the parts in output-column order.
func (p NameParts) Values() []string {
	return []string{p.First, p.Middle, p.Last}
}

// SplitName splits s on single spaces. The first token is the first name,
// the last token the last name, and everything in between (rejoined with
// single spaces) the middle name. No trimming is applied, so repeated or
// leading spaces produce empty tokens that take part in the positional rule.
func SplitName(s string) NameParts {
	toks := strings.Split(s, " ")
	p := NameParts{First: toks[0], Last: toks[len(toks)-1]}
	if len(toks) > 2 {
		p.Middle = strings.Join(toks[1:len(toks)-1], " ")
	}
	return p
}
