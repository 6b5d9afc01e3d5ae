package texfilter

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// citeCommand matches \cite, \citep, \citet*, \parencite, \nocite and friends
// with up to two optional arguments.
var citeCommand = regexp.MustCompile(`\\([a-zA-Z]*cite[a-zA-Z]*\*?)\s*(?:\[[^\]]*\]\s*){0,2}\{([^}]*)\}`)

// Citations is the set of keys a document cites.
type Citations struct {
	Keys       []string // sorted, unique
	IncludeAll bool     // \nocite{*} was present
}

// ExtractKeys finds cited keys in LaTeX source, ignoring commented text.
func ExtractKeys(text string) Citations {
	text = StripComments(text)

	var c Citations
	seen := make(map[string]bool)
	for _, m := range citeCommand.FindAllStringSubmatch(text, -1) {
		nocite := m[1] == "nocite"
		for _, key := range strings.Split(m[2], ",") {
			key = strings.TrimSpace(key)
			switch {
			case key == "":
			case key == "*" && nocite:
				c.IncludeAll = true
			case !seen[key]:
				seen[key] = true
				c.Keys = append(c.Keys, key)
			}
		}
	}
	sort.Strings(c.Keys)
	return c
}

// ExtractFile reads a .tex file and extracts its citations.
func ExtractFile(path string) (Citations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Citations{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ExtractKeys(string(data)), nil
}
