package crossref

import (
	"fmt"
	"regexp"

	"github.com/matsen/bibfix/internal/enrich"
	"github.com/matsen/bibfix/internal/textutil"
)

// DefaultMinTitleScore is the title similarity below which a candidate is
// not considered.
const DefaultMinTitleScore = 0.85

// Work is one item of a Crossref /works search.
type Work struct {
	DOI       string
	Title     string
	Families  []string // author family names
	Year      string
	Container string
	Volume    string
	Issue     string
	Page      string
	Score     float64 // Crossref relevance score
}

// Rejection explains why a candidate was discarded.
type Rejection struct {
	DOI    string
	Title  string
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s: %s", r.DOI, r.Reason)
}

// Screen picks the candidate that best matches q. A candidate is discarded
// when its title similarity is below minTitle, none of its authors share a
// family name with the query, or its year, container, volume, issue or pages
// disagree with known query values. The highest title similarity among the
// rest wins. It returns nil when every candidate was rejected.
func Screen(q enrich.Query, works []Work, minTitle float64) (*Work, float64, []Rejection) {
	var (
		best      *Work
		bestScore float64
		rejected  []Rejection
	)
	for i := range works {
		w := &works[i]
		score := textutil.TitleSimilarity(q.Title, w.Title)
		if reason := rejectReason(q, w, score, minTitle); reason != "" {
			rejected = append(rejected, Rejection{DOI: w.DOI, Title: w.Title, Reason: reason})
			continue
		}
		if score > bestScore {
			best, bestScore = w, score
		}
	}
	return best, bestScore, rejected
}

func rejectReason(q enrich.Query, w *Work, score, minTitle float64) string {
	if score < minTitle {
		return fmt.Sprintf("title similarity %.2f", score)
	}
	if !authorsOverlap(q.Authors, w.Families) {
		return "author mismatch"
	}
	if q.Year != "" && w.Year != "" && q.Year != w.Year {
		return fmt.Sprintf("year mismatch (%s vs %s)", q.Year, w.Year)
	}
	checks := []struct {
		name        string
		ours, their string
		norm        func(string) string
	}{
		{"journal", q.Container, w.Container, textutil.NormalizeText},
		{"volume", q.Volume, w.Volume, textutil.NormalizeText},
		{"issue", q.Issue, w.Issue, textutil.NormalizeText},
		{"pages", q.Pages, w.Page, normalizePages},
	}
	for _, c := range checks {
		a, b := c.norm(c.ours), c.norm(c.their)
		if a != "" && b != "" && a != b {
			return c.name + " mismatch"
		}
	}
	return ""
}

// authorsOverlap reports whether any family name matches a query surname.
// Missing data on either side counts as a match.
func authorsOverlap(surnames, families []string) bool {
	if len(surnames) == 0 || len(families) == 0 {
		return true
	}
	want := make(map[string]bool, len(surnames))
	for _, s := range surnames {
		if n := textutil.AlphaNum(s); n != "" {
			want[n] = true
		}
	}
	for _, f := range families {
		if want[textutil.AlphaNum(f)] {
			return true
		}
	}
	return false
}

var (
	nonPageChars = regexp.MustCompile(`[^0-9\-–—]`)
	dashRun      = regexp.MustCompile(`[\-–—]+`)
)

// normalizePages keeps digits and a single dash, so "12--19" equals "12-19".
func normalizePages(p string) string {
	p = nonPageChars.ReplaceAllString(p, "")
	return dashRun.ReplaceAllString(p, "-")
}
