// Package bibtex reads and writes BibTeX bibliography files.
package bibtex

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/matsen/bibfix/internal/reference"
)

// ErrUnparseable is returned when non-blank input yields no entries at all
// and every record in it failed to parse.
var ErrUnparseable = errors.New("input is not a readable BibTeX file")

// monthMacros are the predefined BibTeX month abbreviations.
var monthMacros = map[string]string{
	"jan": "January",
	"feb": "February",
	"mar": "March",
	"apr": "April",
	"may": "May",
	"jun": "June",
	"jul": "July",
	"aug": "August",
	"sep": "September",
	"oct": "October",
	"nov": "November",
	"dec": "December",
}

// ParseError describes a problem with one record of the input.
type ParseError struct {
	Line    int    `json:"line"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

func (e ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("line %d (%s): %s", e.Line, e.Key, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Result is the outcome of parsing a file.
type Result struct {
	Document *reference.Document

	// Errors lists records that were skipped.
	Errors []ParseError

	// Warnings lists problems inside records that were kept, such as a
	// repeated field name whose later value was ignored.
	Warnings []ParseError
}

// ParseFile reads and parses the BibTeX file at path.
func ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	res, err := Parse(data)
	if err != nil {
		return res, fmt.Errorf("parsing %s: %w", path, err)
	}
	return res, nil
}

// Parse parses BibTeX source. Records that cannot be parsed are reported in
// Result.Errors and skipped; parsing resumes at the next record. The only
// returned error is ErrUnparseable.
func Parse(data []byte) (*Result, error) {
	p := newParser(string(data))
	p.run()

	res := &Result{Document: p.doc, Errors: p.errs, Warnings: p.warns}
	if len(p.doc.Entries) == 0 && len(p.errs) > 0 {
		return res, fmt.Errorf("%w: %d malformed records and no entries", ErrUnparseable, len(p.errs))
	}
	return res, nil
}

// recordError aborts the current record. pos is where scanning resumes.
type recordError struct {
	pos int
	msg string
}

type parser struct {
	src        string
	pos        int
	lineStarts []int

	doc   *reference.Document
	errs  []ParseError
	warns []ParseError
}

func newParser(src string) *parser {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &parser{src: src, lineStarts: starts, doc: reference.NewDocument()}
}

// lineAt returns the 1-based line number containing offset.
func (p *parser) lineAt(offset int) int {
	return sort.Search(len(p.lineStarts), func(i int) bool {
		return p.lineStarts[i] > offset
	})
}

func (p *parser) run() {
	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return
		}
		start := p.pos + at
		p.pos = start + 1
		if !p.recordAt(p.pos) {
			continue
		}

		key, rerr := p.record(start)
		if rerr != nil {
			p.errs = append(p.errs, ParseError{
				Line:    p.lineAt(start),
				Key:     key,
				Message: rerr.msg,
			})
			if rerr.pos > start {
				p.pos = rerr.pos
			} else {
				p.pos = start + 1
			}
		}
	}
}

// recordAt reports whether a record type followed by '{' or '(' begins at
// offset. Any other '@' is plain text between records.
func (p *parser) recordAt(offset int) bool {
	i := skipSpaceAt(p.src, offset)
	j := i
	for j < len(p.src) && isNameByte(p.src[j]) {
		j++
	}
	if j == i {
		return false
	}
	j = skipSpaceAt(p.src, j)
	return j < len(p.src) && (p.src[j] == '{' || p.src[j] == '(')
}

func skipSpaceAt(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}
	return i
}

// record parses one @-record starting at start. It returns the citation key
// when one was read, for error reporting.
func (p *parser) record(start int) (string, *recordError) {
	p.skipSpace()
	typ := p.readName()
	if typ == "" {
		return "", p.fail("expected record type after '@'")
	}
	p.skipSpace()
	closer, ok := p.openDelim()
	if !ok {
		return "", p.fail(fmt.Sprintf("expected '{' or '(' after @%s", typ))
	}

	switch strings.ToLower(typ) {
	case "comment":
		p.skipComment(closer)
		return "", nil
	case "preamble":
		return "", p.preamble(closer)
	case "string":
		return "", p.stringDef(closer)
	}
	return p.entry(typ, start, closer)
}

func (p *parser) openDelim() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	switch p.src[p.pos] {
	case '{':
		p.pos++
		return '}', true
	case '(':
		p.pos++
		return ')', true
	}
	return 0, false
}

func (p *parser) skipComment(closer byte) {
	depth := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch {
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == closer && depth == 0:
			return
		}
	}
}

func (p *parser) preamble(closer byte) *recordError {
	start := p.pos
	if _, rerr := p.readValue(closer); rerr != nil {
		return rerr
	}
	raw := strings.TrimSpace(p.src[start:p.pos])
	p.skipSpace()
	if !p.consume(closer) {
		return p.fail("unterminated @preamble")
	}
	p.doc.Preambles = append(p.doc.Preambles, raw)
	return nil
}

func (p *parser) stringDef(closer byte) *recordError {
	p.skipSpace()
	name := p.readName()
	if name == "" {
		return p.fail("expected macro name in @string")
	}
	p.skipSpace()
	if !p.consume('=') {
		return p.fail(fmt.Sprintf("missing '=' after macro %q", name))
	}
	value, rerr := p.readValue(closer)
	if rerr != nil {
		return rerr
	}
	p.skipSpace()
	if !p.consume(closer) {
		return p.fail(fmt.Sprintf("unterminated @string %q", name))
	}
	p.doc.Strings.Set(name, value)
	return nil
}

func (p *parser) entry(typ string, start int, closer byte) (string, *recordError) {
	p.skipSpace()
	keyStart := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ',' || c == closer || c == '@' || c == '=' || c == '\n' {
			break
		}
		p.pos++
	}
	key := strings.TrimSpace(p.src[keyStart:p.pos])
	if key == "" || strings.ContainsAny(key, " \t{}\"") || p.pos >= len(p.src) ||
		(p.src[p.pos] != ',' && p.src[p.pos] != closer) {
		p.pos = keyStart
		return "", p.fail("missing citation key")
	}

	e := reference.NewEntry(typ, key)
	e.Line = p.lineAt(start)

	if p.consume(closer) {
		p.doc.Entries = append(p.doc.Entries, e)
		return key, nil
	}
	p.pos++ // ','

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return key, p.fail("unterminated record")
		}
		if p.consume(closer) {
			break
		}
		fieldPos := p.pos
		name := p.readName()
		if name == "" {
			return key, p.fail(fmt.Sprintf("expected field name, found %q", p.src[p.pos]))
		}
		p.skipSpace()
		if !p.consume('=') {
			return key, p.fail(fmt.Sprintf("missing '=' after field %q", name))
		}
		value, rerr := p.readValue(closer)
		if rerr != nil {
			return key, rerr
		}
		if e.Fields.Has(name) {
			p.warns = append(p.warns, ParseError{
				Line:    p.lineAt(fieldPos),
				Key:     key,
				Message: fmt.Sprintf("duplicate field %q ignored", strings.ToLower(name)),
			})
		} else {
			e.Set(name, value)
		}

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(closer) {
			break
		}
		return key, p.fail(fmt.Sprintf("expected ',' or '%c' after field %q", closer, name))
	}

	p.doc.Entries = append(p.doc.Entries, e)
	return key, nil
}

// readValue reads a value expression: braced, quoted, numeric or macro
// parts joined with '#'.
func (p *parser) readValue(closer byte) (string, *recordError) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return "", p.fail("missing value")
		}
		switch c := p.src[p.pos]; {
		case c == '{':
			s, rerr := p.readDelimited('}')
			if rerr != nil {
				return "", rerr
			}
			b.WriteString(s)
		case c == '"':
			s, rerr := p.readDelimited('"')
			if rerr != nil {
				return "", rerr
			}
			b.WriteString(s)
		case isDigit(c):
			start := p.pos
			for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
				p.pos++
			}
			b.WriteString(p.src[start:p.pos])
		case isNameByte(c):
			b.WriteString(p.expand(p.readName()))
		case c == closer || c == ',':
			return "", p.fail("missing value")
		default:
			return "", p.fail(fmt.Sprintf("unexpected %q in value", c))
		}

		p.skipSpace()
		if !p.consume('#') {
			return b.String(), nil
		}
	}
}

// readDelimited reads a braced or quoted value and returns its contents.
// Braces must balance; a quote only ends the value at brace depth zero.
func (p *parser) readDelimited(close byte) (string, *recordError) {
	start := p.pos
	p.pos++
	depth := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == close && depth == 0:
			s := p.src[start+1 : p.pos]
			p.pos++
			return s, nil
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return "", &recordError{pos: start + 1, msg: "unbalanced '}' in value"}
			}
			depth--
		case c == '@' && depth == 0 && p.atLineStart():
			// A new record began before this value closed.
			return "", &recordError{pos: p.pos, msg: "unterminated value"}
		}
		p.pos++
	}
	return "", &recordError{pos: start + 1, msg: "unterminated value"}
}

// atLineStart reports whether only whitespace precedes pos on its line.
func (p *parser) atLineStart() bool {
	for i := p.pos - 1; i >= 0; i-- {
		switch p.src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

// expand resolves a macro name through @string definitions and the month
// abbreviations. Unknown names are kept as written.
func (p *parser) expand(name string) string {
	if v, ok := p.doc.Strings.Get(name); ok {
		return v
	}
	if v, ok := monthMacros[strings.ToLower(name)]; ok {
		return v
	}
	return name
}

func (p *parser) readName() string {
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) fail(msg string) *recordError {
	return &recordError{pos: p.pos, msg: msg}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isNameByte accepts the characters BibTeX allows in type, field and macro
// names.
func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', isDigit(c):
		return true
	}
	return strings.IndexByte("_-:.+/", c) >= 0
}
