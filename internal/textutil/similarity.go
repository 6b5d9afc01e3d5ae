package textutil

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0, 1]:
// twice the number of matching characters divided by the total character
// count. Two empty strings are identical.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

// TitleSimilarity compares two titles after folding and whitespace cleanup.
func TitleSimilarity(a, b string) float64 {
	return Ratio(NormalizeText(a), NormalizeText(b))
}

// chars splits s into one element per UTF-8 character.
func chars(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}
