package bibtex

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/bibfix/internal/reference"
)

const sampleBib = `% exported from a reference manager
@string{jnl = "Journal of Tests"}

@preamble{ "\providecommand{\noopsort}[1]{}" }

@comment{ignore @article{x, title = {y}} }

@Article{smith2020,
  author = {Smith, John},
  title = "A {GPU} Study",
  journal = jnl,
  year = 2020,
  month = jan,
  note = "Part " # {one},
}

@book(knuth1984, title = {The {\TeX}book}, publisher = {Addison-Wesley})
`

func TestParse_Values(t *testing.T) {
	res, err := Parse([]byte(sampleBib))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	doc := res.Document
	if len(res.Errors) != 0 {
		t.Errorf("Parse() errors = %v, want none", res.Errors)
	}
	if got := doc.Keys(); !reflect.DeepEqual(got, []string{"smith2020", "knuth1984"}) {
		t.Fatalf("Keys() = %v", got)
	}

	e := doc.Entries[0]
	if e.Type != "Article" {
		t.Errorf("Type = %q, want type as written", e.Type)
	}
	if e.Line != 8 {
		t.Errorf("Line = %d, want 8", e.Line)
	}
	want := map[string]string{
		"author":  "Smith, John",
		"title":   "A {GPU} Study",
		"journal": "Journal of Tests",
		"year":    "2020",
		"month":   "January",
		"note":    "Part one",
	}
	for name, v := range want {
		if got := e.Get(name); got != v {
			t.Errorf("%s = %q, want %q", name, got, v)
		}
	}
	wantOrder := []string{"author", "title", "journal", "year", "month", "note"}
	if got := e.Fields.Names(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("field order = %v, want %v", got, wantOrder)
	}

	if got := doc.Entries[1].Get("title"); got != `The {\TeX}book` {
		t.Errorf("paren-delimited title = %q", got)
	}
}

func TestParse_StringsAndPreambles(t *testing.T) {
	res, err := Parse([]byte(sampleBib))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	doc := res.Document
	if v, _ := doc.Strings.Get("jnl"); v != "Journal of Tests" {
		t.Errorf("@string jnl = %q", v)
	}
	if len(doc.Preambles) != 1 || doc.Preambles[0] != `"\providecommand{\noopsort}[1]{}"` {
		t.Errorf("Preambles = %q", doc.Preambles)
	}
}

func TestParse_RecoversFromBadRecord(t *testing.T) {
	input := `@article{good1, title = {One}}

@article{bad1, title {missing equals}}

@article{good2, title = {Two}}
`
	res, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := res.Document.Keys(); !reflect.DeepEqual(got, []string{"good1", "good2"}) {
		t.Errorf("Keys() = %v, want [good1 good2]", got)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want 1", res.Errors)
	}
	if res.Errors[0].Line != 3 || res.Errors[0].Key != "bad1" {
		t.Errorf("error = %+v, want line 3 key bad1", res.Errors[0])
	}
}

func TestParse_UnterminatedValueStopsAtNextRecord(t *testing.T) {
	input := "@article{a, title = {never closed\n@article{b, title = {ok}}\n"
	res, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := res.Document.Keys(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Keys() = %v, want [b]", got)
	}
	if len(res.Errors) != 1 || res.Errors[0].Key != "a" {
		t.Errorf("Errors = %v, want one error for a", res.Errors)
	}
}

func TestParse_DuplicateFieldFirstWins(t *testing.T) {
	res, err := Parse([]byte(`@misc{d, title = {First}, Title = {Second}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := res.Document.Entries[0].Get("title"); got != "First" {
		t.Errorf("title = %q, want First", got)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1", res.Warnings)
	}
}

func TestParse_Unparseable(t *testing.T) {
	_, err := Parse([]byte(`@article{title = {no key here}}`))
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("Parse() error = %v, want ErrUnparseable", err)
	}
}

func TestParse_BlankAndPlainText(t *testing.T) {
	for _, input := range []string{"", "   \n\n", "just some notes, no records"} {
		res, err := Parse([]byte(input))
		if err != nil {
			t.Errorf("Parse(%q) error = %v", input, err)
			continue
		}
		if len(res.Document.Entries) != 0 {
			t.Errorf("Parse(%q) entries = %d, want 0", input, len(res.Document.Entries))
		}
	}
}

func TestParse_StrayAtSignIsText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		entries int
	}{
		{"email between records", "Contact me@example.org for updates.\n@article{a, title = {T}}\n", 1},
		{"email only", "mail me@example.org", 0},
		{"bare at sign", "@ \n@misc(b, title = {U})", 1},
		{"name without brace", "@article is described below\n@article{c, title = {V}}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(res.Errors) != 0 {
				t.Errorf("errors = %+v, want none", res.Errors)
			}
			if got := len(res.Document.Entries); got != tt.entries {
				t.Errorf("entries = %d, want %d", got, tt.entries)
			}
		})
	}
}

func TestFormatEntry(t *testing.T) {
	e := reference.NewEntry("article", "Smith2026-ab")
	e.Set("author", "Smith, John")
	e.Set("title", "Test Paper Title")
	e.Set("doi", "10.1234/test")

	got := FormatEntry(e)
	want := "@article{Smith2026-ab,\n" +
		"  author = {Smith, John},\n" +
		"  title = {Test Paper Title},\n" +
		"  doi = {10.1234/test},\n" +
		"}\n"
	if got != want {
		t.Errorf("FormatEntry() =\n%s\nwant:\n%s", got, want)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	first, err := Parse([]byte(sampleBib))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := Format(first.Document)
	if !strings.HasPrefix(out, "@preamble{") {
		t.Errorf("Format() should start with the preamble, got:\n%s", out)
	}

	second, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("re-Parse() error = %v", err)
	}
	if len(second.Document.Entries) != len(first.Document.Entries) {
		t.Fatalf("re-parsed %d entries, want %d", len(second.Document.Entries), len(first.Document.Entries))
	}
	for i, e := range first.Document.Entries {
		got := second.Document.Entries[i]
		if got.ID != e.ID {
			t.Errorf("entry %d key = %q, want %q", i, got.ID, e.ID)
		}
		e.Fields.Each(func(name, value string) {
			if v := got.Get(name); v != value {
				t.Errorf("%s.%s = %q, want %q", e.ID, name, v, value)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bib")

	doc := reference.NewDocument()
	e := reference.NewEntry("misc", "k")
	e.Set("title", "T")
	doc.Entries = append(doc.Entries, e)

	if err := WriteFile(path, doc); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != FormatEntry(e) {
		t.Errorf("file content = %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d files, want only the output", len(entries))
	}
}
