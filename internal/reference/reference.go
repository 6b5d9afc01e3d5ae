// Package reference defines the core domain types for bibliography entries.
package reference

import (
	"regexp"
	"strings"
)

// IdentifierField is the field holding an entry's canonical external identifier.
const IdentifierField = "doi"

// Entry represents one bibliographic record.
type Entry struct {
	// Identity
	ID   string // Citation key, unique within an output set
	Type string // article, book, inproceedings, ...

	// Fields maps lowercase field names to values in insertion order.
	Fields *Fields

	// Line is the 1-based line of the record in its source (0 if unknown).
	Line int
}

// NewEntry creates an entry with an empty field set.
func NewEntry(typ, id string) Entry {
	return Entry{ID: id, Type: typ, Fields: NewFields()}
}

// Get returns the value of a field, or "" if absent.
func (e Entry) Get(name string) string {
	if e.Fields == nil {
		return ""
	}
	v, _ := e.Fields.Get(name)
	return v
}

// Set sets a field value.
func (e *Entry) Set(name, value string) {
	if e.Fields == nil {
		e.Fields = NewFields()
	}
	e.Fields.Set(name, value)
}

// Title returns the title field.
func (e Entry) Title() string {
	return e.Get("title")
}

// Identifier returns the entry's DOI, or "" if it has none.
func (e Entry) Identifier() string {
	return strings.TrimSpace(e.Get(IdentifierField))
}

// HasIdentifier reports whether the entry carries a non-empty identifier.
func (e Entry) HasIdentifier() bool {
	return e.Identifier() != ""
}

// SetIdentifier fills the identifier if the entry does not already have one.
// An existing non-empty identifier is never overwritten. Returns true if the
// value was written.
func (e *Entry) SetIdentifier(id string) bool {
	if e.HasIdentifier() || strings.TrimSpace(id) == "" {
		return false
	}
	e.Set(IdentifierField, id)
	return true
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	c := e
	c.Fields = e.Fields.Clone()
	return c
}

// CloneEntries deep-copies a slice of entries.
func CloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

// Document is a parsed bibliography file.
type Document struct {
	Preambles []string // Raw @preamble contents, in source order
	Strings   *Fields  // @string macro definitions, in source order
	Entries   []Entry
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{Strings: NewFields()}
}

// Keys returns the citation keys of all entries in order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		keys[i] = e.ID
	}
	return keys
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// Year returns the first four-digit run of the year (or date) field.
func Year(e Entry) string {
	for _, name := range []string{"year", "date"} {
		if m := yearPattern.FindString(e.Get(name)); m != "" {
			return m
		}
	}
	return ""
}
