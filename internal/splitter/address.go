package splitter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxStateCodeLen is the longest alphabetic token still read as a state code.
const maxStateCodeLen = 3

// AddressParts is the result of SplitAddress.
type AddressParts struct {
	City       string
	State      string
	Country    string
	PostalCode string
}

// Values returns the parts in output-column order.
func (p AddressParts) Values() []string {
	return []string{p.City, p.State, p.Country, p.PostalCode}
}

// SplitAddress decomposes "... City State Country Zip" (or "... City Country
// State Zip") into its parts.
//
// The last space-separated token is the postal code. The remainder is split
// from the right into at most three pieces; the first is the city. Of the last
// two pieces, the second-to-last is taken as the state code when it is
// alphabetic and at most three letters long (and the last as the country),
// otherwise it is the country and the last piece the state. With only two
// pieces the second-to-last piece is the city piece itself.
//
// Input without any space yields all-empty parts.
func SplitAddress(s string) AddressParts {
	var p AddressParts

	rest, zip, ok := cutLast(s, " ")
	if !ok {
		return p
	}
	p.PostalCode = zip

	parts := rsplit(rest, " ", 2)
	p.City = parts[0]
	if len(parts) >= 2 {
		second := parts[len(parts)-2]
		last := parts[len(parts)-1]
		if isStateCode(second) {
			p.State, p.Country = second, last
		} else {
			p.Country, p.State = second, last
		}
	}
	return p
}

func isStateCode(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > maxStateCodeLen {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// cutLast slices s around the last instance of sep.
func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

// rsplit splits s on sep starting from the right, performing at most n
// splits, and returns the pieces in left-to-right order.
func rsplit(s, sep string, n int) []string {
	var tail []string
	for ; n > 0; n-- {
		before, after, ok := cutLast(s, sep)
		if !ok {
			break
		}
		tail = append(tail, after)
		s = before
	}
	out := make([]string, 0, len(tail)+1)
	out = append(out, s)
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out
}
