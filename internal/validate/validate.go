// Package validate reports problems in a bibliography without changing it.
package validate

import (
	"fmt"
	"strings"

	"github.com/matsen/bibfix/internal/dedupe"
	"github.com/matsen/bibfix/internal/reference"
)

// RequiredFields must be present and non-empty on every entry.
var RequiredFields = []string{"author", "title", "year"}

// Warning kinds.
const (
	KindMissingFields     = "missing_fields"
	KindPossibleDuplicate = "possible_duplicate"
)

// Warning is one validation finding.
type Warning struct {
	Kind    string   `json:"kind"`
	Key     string   `json:"key"`
	Fields  []string `json:"fields,omitempty"`
	Related string   `json:"related,omitempty"`
	Message string   `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// MissingFields warns about entries lacking any required field.
func MissingFields(entries []reference.Entry) []Warning {
	var warnings []Warning
	for _, e := range entries {
		var missing []string
		for _, f := range RequiredFields {
			if strings.TrimSpace(e.Get(f)) == "" {
				missing = append(missing, f)
			}
		}
		if len(missing) == 0 {
			continue
		}
		warnings = append(warnings, Warning{
			Kind:    KindMissingFields,
			Key:     e.ID,
			Fields:  missing,
			Message: fmt.Sprintf("entry %s missing fields: %s", e.ID, strings.Join(missing, ", ")),
		})
	}
	return warnings
}

// PossibleDuplicates turns unmerged look-alike pairs into warnings.
func PossibleDuplicates(entries []reference.Entry) []Warning {
	var warnings []Warning
	for _, p := range dedupe.PossibleDuplicates(entries) {
		warnings = append(warnings, Warning{
			Kind:    KindPossibleDuplicate,
			Key:     p.Key,
			Related: p.Other,
			Message: fmt.Sprintf("possible duplicate (not merged): %s and %s have the same title", p.Key, p.Other),
		})
	}
	return warnings
}

// Validate runs every check.
func Validate(entries []reference.Entry) []Warning {
	return append(MissingFields(entries), PossibleDuplicates(entries)...)
}
