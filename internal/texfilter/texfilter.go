// Package texfilter keeps the bibliography entries a LaTeX document cites.
package texfilter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/bibfix/internal/reference"
	"github.com/matsen/bibfix/internal/textutil"
)

// Defaults for Suggest, matching what authors usually need to spot a typo.
const (
	DefaultSuggestions = 3
	DefaultCutoff      = 0.6
)

// StripComments removes TeX comments: everything from an unescaped % to the
// end of its line.
func StripComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for j := 0; j < len(line); j++ {
			if line[j] == '%' && (j == 0 || line[j-1] != '\\') {
				lines[i] = line[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Filter keeps entries whose key is in keys, in input order, and returns the
// cited keys that have no entry (sorted). With includeAll every entry is kept.
func Filter(entries []reference.Entry, keys []string, includeAll bool) (kept []reference.Entry, missing []string) {
	if includeAll {
		return reference.CloneEntries(entries), nil
	}

	cited := make(map[string]bool, len(keys))
	for _, k := range keys {
		cited[k] = true
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.ID] = true
		if cited[e.ID] {
			kept = append(kept, e.Clone())
		}
	}
	for k := range cited {
		if !present[k] {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return kept, missing
}

// Suggest returns up to n keys from available that resemble key with a
// similarity of at least cutoff, best first. Ties are ordered by key.
func Suggest(key string, available []string, n int, cutoff float64) []string {
	if n <= 0 {
		return nil
	}
	type scored struct {
		key   string
		score float64
	}
	var matches []scored
	seen := make(map[string]bool, len(available))
	for _, k := range available {
		if seen[k] {
			continue
		}
		seen[k] = true
		if s := textutil.Ratio(key, k); s >= cutoff {
			matches = append(matches, scored{k, s})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].key < matches[j].key
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.key
	}
	return out
}

// Report renders the markdown alert file for a filter run.
func Report(texName string, missing, available []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Citation Alerts for `%s`\n", texName)

	if len(missing) == 0 {
		b.WriteString("\nAll cited keys were found in the bibliography.\n")
		return b.String()
	}

	b.WriteString("\n## Missing Citations\n")
	b.WriteString("The following keys are cited in the .tex file but found no match in the .bib file:\n")
	for _, key := range missing {
		fmt.Fprintf(&b, "\n- **%s**\n", key)
		if s := Suggest(key, available, DefaultSuggestions, DefaultCutoff); len(s) > 0 {
			fmt.Fprintf(&b, "  - *Did you mean?* %s\n", strings.Join(s, ", "))
		} else {
			b.WriteString("  - *No similar keys found.*\n")
		}
	}
	return b.String()
}
