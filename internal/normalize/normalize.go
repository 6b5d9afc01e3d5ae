// Package normalize standardizes the formatting of bibliography entries.
package normalize

import (
	"strings"

	"github.com/matsen/bibfix/internal/reference"
	"github.com/matsen/bibfix/internal/textutil"
)

// Entry returns a cleaned copy of e. Field values are trimmed and internal
// whitespace runs collapsed, empty fields are dropped, the type tag is
// lowercased and the DOI is stripped of resolver prefixes. Values with
// unbalanced braces are kept exactly as they were.
func Entry(e reference.Entry) reference.Entry {
	out := reference.NewEntry(strings.ToLower(strings.TrimSpace(e.Type)), strings.TrimSpace(e.ID))
	out.Line = e.Line

	e.Fields.Each(func(name, value string) {
		if !balanced(value) {
			out.Set(name, value)
			return
		}
		value = textutil.CollapseSpace(value)
		if name == reference.IdentifierField {
			value = reference.NormalizeDOI(value)
		}
		if strings.TrimSpace(value) == "" {
			return
		}
		out.Set(name, value)
	})
	return out
}

// Entries normalizes every entry, preserving order.
func Entries(entries []reference.Entry) []reference.Entry {
	out := make([]reference.Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry(e)
	}
	return out
}

// balanced reports whether braces in s nest correctly.
func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
