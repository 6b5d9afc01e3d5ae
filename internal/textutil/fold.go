package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// multiRuneFolds covers letters that do not decompose into base + mark.
var multiRuneFolds = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
	"ı", "i",
)

// LaTeX markup commonly found in .bib titles and names. Accent macros are
// dropped so the base letter survives, letter macros keep their letters and
// formatting commands (\emph, \textit, ...) disappear.
var (
	latexAccent  = regexp.MustCompile("\\\\[\"'`^~=.]")
	latexLetter  = regexp.MustCompile(`\\(ss|ae|AE|oe|OE|aa|AA|o|O|l|L|i|j)\b`)
	latexCommand = regexp.MustCompile(`\\[a-zA-Z]+\s*`)
	latexEscape  = regexp.MustCompile(`\\([&%$#_])`)
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fold converts s to its closest ASCII form: accents are stripped and
// ligatures expanded. Characters with no ASCII equivalent are dropped.
func Fold(s string) string {
	s = StripLaTeX(s)
	s = multiRuneFolds.Replace(s)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripLaTeX removes LaTeX accent and formatting macros, keeping the text.
func StripLaTeX(s string) string {
	s = latexAccent.ReplaceAllString(s, "")
	s = latexLetter.ReplaceAllString(s, "$1")
	s = latexCommand.ReplaceAllString(s, "")
	return latexEscape.ReplaceAllString(s, "$1")
}

// CollapseSpace trims s and replaces every whitespace run with one space.
func CollapseSpace(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// NormalizeText folds s to lowercase ASCII, drops BibTeX grouping braces and
// collapses whitespace. It is the comparison form for titles.
func NormalizeText(s string) string {
	s = Fold(s)
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return strings.ToLower(CollapseSpace(s))
}

// AlphaNum keeps only lowercase ASCII letters and digits of the folded text.
func AlphaNum(s string) string {
	s = strings.ToLower(Fold(s))
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Signature builds the reduced comparison key for an entry from its title
// and first-author surname. An empty title yields an empty signature.
func Signature(title, surname string) string {
	t := AlphaNum(title)
	if t == "" {
		return ""
	}
	if a := AlphaNum(surname); a != "" {
		return t + "|" + a
	}
	return t
}
