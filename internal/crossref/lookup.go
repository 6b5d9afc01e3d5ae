package crossref

import (
	"context"
	"fmt"
	"strings"

	"github.com/matsen/bibfix/internal/enrich"
)

var _ enrich.Lookup = (*Client)(nil)

// maxReasons caps how many rejections are spelled out in a result.
const maxReasons = 3

// Lookup implements enrich.Lookup: it searches by title and first author and
// screens the candidates. Errors are reported in the result, never returned.
func (c *Client) Lookup(ctx context.Context, q enrich.Query) enrich.Result {
	if strings.TrimSpace(q.Title) == "" {
		return enrich.Result{Status: enrich.NotFound, Reason: "no title to search"}
	}

	works, err := c.SearchWorks(ctx, q.Title, q.Author)
	if err != nil {
		switch {
		case IsNotFound(err):
			return enrich.Result{Status: enrich.NotFound, Reason: "no results"}
		case IsRateLimited(err):
			return enrich.Result{Status: enrich.Failed, Reason: "rate limited", Err: err}
		}
		return enrich.Result{Status: enrich.Failed, Err: err}
	}

	best, score, rejected := Screen(q, works, c.minTitleScore)
	if best == nil {
		return enrich.Result{Status: enrich.NotFound, Reason: summarize(rejected)}
	}
	return enrich.Result{
		Status: enrich.Found,
		Candidate: enrich.Candidate{
			Identifier:   best.DOI,
			MatchedTitle: best.Title,
			Confidence:   score,
		},
	}
}

func summarize(rejected []Rejection) string {
	if len(rejected) == 0 {
		return "no candidates"
	}
	reasons := make([]string, 0, maxReasons)
	for i, r := range rejected {
		if i == maxReasons {
			reasons = append(reasons, fmt.Sprintf("%d more", len(rejected)-maxReasons))
			break
		}
		reasons = append(reasons, r.String())
	}
	return fmt.Sprintf("%d candidates rejected: %s", len(rejected), strings.Join(reasons, "; "))
}
