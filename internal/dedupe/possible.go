package dedupe

import (
	"github.com/matsen/bibfix/internal/reference"
	"github.com/matsen/bibfix/internal/textutil"
)

// minPossibleTitle is the shortest folded title considered by
// PossibleDuplicates; shorter titles ("Introduction") collide too often.
const minPossibleTitle = 15

// Pair is two surviving entries that look alike but were not merged.
type Pair struct {
	Key   string `json:"key"`
	Other string `json:"other"` // the earlier entry
	Title string `json:"title"`
}

// PossibleDuplicates lists entries whose folded titles are identical to an
// earlier entry's, typically because author or year differ. Nothing is
// merged.
func PossibleDuplicates(entries []reference.Entry) []Pair {
	var pairs []Pair
	seen := make(map[string]string)
	for _, e := range entries {
		title := textutil.AlphaNum(e.Title())
		if len(title) < minPossibleTitle {
			continue
		}
		if prev, ok := seen[title]; ok {
			pairs = append(pairs, Pair{Key: e.ID, Other: prev, Title: e.Title()})
			continue
		}
		seen[title] = e.ID
	}
	return pairs
}
