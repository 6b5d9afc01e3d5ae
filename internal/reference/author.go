package reference

import (
	"strings"
)

// Author represents a parsed name from an author or editor field.
type Author struct {
	First string // First/given name(s)
	Last  string // Last/family name
}

// Common name suffixes to keep with the last name.
var nameSuffixes = map[string]bool{
	"jr":  true,
	"jr.": true,
	"sr":  true,
	"sr.": true,
	"ii":  true,
	"iii": true,
	"iv":  true,
}

// ParseAuthors splits a BibTeX name list ("A and B and C") into authors.
// Separators inside braces are ignored, so "{Smith and Sons}" stays one name.
func ParseAuthors(field string) []Author {
	var authors []Author
	for _, name := range splitNames(field) {
		if a, ok := parseName(name); ok {
			authors = append(authors, a)
		}
	}
	return authors
}

// AuthorSurnames returns the last names from a BibTeX name list.
func AuthorSurnames(field string) []string {
	authors := ParseAuthors(field)
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		out = append(out, a.Last)
	}
	return out
}

// FirstAuthorSurname returns the first author's last name, falling back to
// the first editor when the entry has no author field.
func FirstAuthorSurname(e Entry) string {
	field := e.Get("author")
	if strings.TrimSpace(field) == "" {
		field = e.Get("editor")
	}
	names := AuthorSurnames(field)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// splitNames splits on the word "and" at brace depth zero.
func splitNames(field string) []string {
	var names []string
	depth := 0
	start := 0
	lower := strings.ToLower(field)
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		if depth != 0 || !isSpace(field[i]) {
			continue
		}
		// Look for whitespace "and" whitespace
		if i+4 < len(field) && lower[i+1:i+4] == "and" && isSpace(field[i+4]) {
			names = append(names, field[start:i])
			start = i + 5
			i += 4
		}
	}
	names = append(names, field[start:])

	out := names[:0]
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// parseName handles "Last, First", "Last, Jr, First" and "First Last".
//
// Known limitations:
// - Multi-part surnames without a comma (von Neumann) keep only the last word
// - A braced corporate name is treated as a single last name
func parseName(name string) (Author, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Author{}, false
	}

	if parts := splitTopLevel(name, ','); len(parts) > 1 {
		last := stripBraces(parts[0])
		first := stripBraces(parts[len(parts)-1])
		if len(parts) == 3 {
			last = last + " " + stripBraces(parts[1])
		}
		return Author{First: first, Last: last}, last != ""
	}

	words := fieldsTopLevel(name)
	if len(words) == 1 {
		return Author{Last: stripBraces(words[0])}, true
	}

	lastWord := strings.ToLower(words[len(words)-1])
	if nameSuffixes[lastWord] && len(words) > 2 {
		return Author{
			First: stripBraces(strings.Join(words[:len(words)-2], " ")),
			Last:  stripBraces(words[len(words)-2] + " " + words[len(words)-1]),
		}, true
	}
	return Author{
		First: stripBraces(strings.Join(words[:len(words)-1], " ")),
		Last:  stripBraces(words[len(words)-1]),
	}, true
}

// splitTopLevel splits s on sep outside braces.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

// fieldsTopLevel splits on whitespace outside braces.
func fieldsTopLevel(s string) []string {
	var words []string
	var cur strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case isSpace(c) && depth == 0:
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteByte(c)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

func stripBraces(s string) string {
	return strings.TrimSpace(strings.NewReplacer("{", "", "}", "").Replace(s))
}
