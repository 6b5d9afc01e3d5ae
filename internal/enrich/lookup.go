// Package enrich fills in missing identifiers by querying a lookup service.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/matsen/bibfix/internal/reference"
	"github.com/matsen/bibfix/internal/textutil"
)

// Status is the outcome class of a lookup.
type Status int

const (
	// Found means the service returned a candidate.
	Found Status = iota
	// NotFound means the service answered but had no acceptable candidate.
	NotFound
	// Failed means the lookup did not complete (network, timeout, service error).
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Query is the bibliographic data sent to a lookup service. Empty fields are
// unknown.
type Query struct {
	Title     string
	Author    string   // first author surname
	Authors   []string // all author surnames
	Year      string
	Container string // journal or booktitle
	Volume    string
	Issue     string
	Pages     string
}

// Candidate is a record proposed by a lookup service.
type Candidate struct {
	Identifier   string  `json:"identifier"`
	MatchedTitle string  `json:"matched_title"`
	Confidence   float64 `json:"confidence"`
}

// Result is the explicit outcome of one lookup.
type Result struct {
	Status    Status
	Candidate Candidate
	Reason    string // why nothing was found, when known
	Err       error  // set when Status is Failed
}

// Lookup resolves bibliographic data to an identifier. Implementations
// report every outcome through Result and must respect ctx.
type Lookup interface {
	Lookup(ctx context.Context, q Query) Result
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, q Query) Result

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, q Query) Result {
	return f(ctx, q)
}

// QueryFor builds the lookup query for an entry. The title is stripped of
// LaTeX markup and braces.
func QueryFor(e reference.Entry) Query {
	authorField := e.Get("author")
	if strings.TrimSpace(authorField) == "" {
		authorField = e.Get("editor")
	}
	surnames := reference.AuthorSurnames(authorField)

	q := Query{
		Title:     cleanTitle(e.Title()),
		Authors:   surnames,
		Year:      reference.Year(e),
		Container: firstNonEmpty(e.Get("journal"), e.Get("booktitle")),
		Volume:    e.Get("volume"),
		Issue:     e.Get("number"),
		Pages:     e.Get("pages"),
	}
	if len(surnames) > 0 {
		q.Author = surnames[0]
	}
	return q
}

func cleanTitle(s string) string {
	s = textutil.StripLaTeX(s)
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return textutil.CollapseSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
