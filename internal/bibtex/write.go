package bibtex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/bibfix/internal/reference"
)

// FormatEntry renders one entry with two-space indented, brace-delimited
// fields in the entry's field order.
func FormatEntry(e reference.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.ID)
	e.Fields.Each(func(name, value string) {
		fmt.Fprintf(&b, "  %s = {%s},\n", name, value)
	})
	b.WriteString("}\n")
	return b.String()
}

// Format renders a whole document: preambles, then @string macros, then the
// entries in order.
func Format(doc *reference.Document) string {
	var parts []string
	for _, p := range doc.Preambles {
		parts = append(parts, fmt.Sprintf("@preamble{%s}\n", p))
	}
	doc.Strings.Each(func(name, value string) {
		parts = append(parts, fmt.Sprintf("@string{%s = {%s}}\n", name, value))
	})
	for _, e := range doc.Entries {
		parts = append(parts, FormatEntry(e))
	}
	return strings.Join(parts, "\n")
}

// Write writes the formatted document to w.
func Write(w io.Writer, doc *reference.Document) error {
	_, err := io.WriteString(w, Format(doc))
	return err
}

// WriteFile writes doc to path through a temporary file in the same
// directory, so a failed write never leaves a truncated file behind.
func WriteFile(path string, doc *reference.Document) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".bibfix-*.bib")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Write(tmp, doc); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}
