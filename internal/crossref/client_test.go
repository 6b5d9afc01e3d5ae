package crossref

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matsen/bibfix/internal/enrich"
)

const worksResponse = `{
  "status": "ok",
  "message-type": "work-list",
  "message": {
    "items": [
      {
        "DOI": "10.1038/nature14539",
        "title": ["Deep learning"],
        "author": [{"given": "Yann", "family": "LeCun"}, {"given": "Yoshua", "family": "Bengio"}],
        "container-title": ["Nature"],
        "volume": "521",
        "issue": "7553",
        "page": "436-444",
        "issued": {"date-parts": [[2015, 5, 27]]},
        "score": 88.2
      },
      {
        "DOI": "10.1007/978-3-319-12345-6",
        "title": ["Deep Learning in Practice: A Survey of Everything"],
        "author": [{"family": "Other"}],
        "issued": {"date-parts": [[2019]]},
        "score": 40.1
      }
    ]
  }
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestSearchWorks_RequestAndParse(t *testing.T) {
	var gotQuery, gotUA string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			t.Errorf("path = %q, want /works", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(worksResponse))
	})
	c.mailto = "me@example.org"

	works, err := c.SearchWorks(context.Background(), "Deep learning", "LeCun")
	if err != nil {
		t.Fatalf("SearchWorks() error = %v", err)
	}

	for _, want := range []string{"query.title=Deep+learning", "query.author=LeCun", "rows=5"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if gotUA != "bibfix/1.0 (mailto:me@example.org)" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	if len(works) != 2 {
		t.Fatalf("got %d works, want 2", len(works))
	}
	w := works[0]
	if w.DOI != "10.1038/nature14539" || w.Title != "Deep learning" || w.Year != "2015" {
		t.Errorf("work = %+v", w)
	}
	if len(w.Families) != 2 || w.Families[0] != "LeCun" {
		t.Errorf("families = %v", w.Families)
	}
	if w.Container != "Nature" || w.Volume != "521" || w.Issue != "7553" || w.Page != "436-444" {
		t.Errorf("work = %+v", w)
	}
}

func TestSearchWorks_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(error) bool
	}{
		{"rate limited", http.StatusTooManyRequests, "", IsRateLimited},
		{"server error", http.StatusServiceUnavailable, "", func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 503
		}},
		{"not json", http.StatusOK, "<html>", func(err error) bool { return errors.Is(err, ErrInvalidResponse) }},
		{"no items", http.StatusOK, `{"status":"ok","message":{"items":[]}}`, IsNotFound},
		{"missing envelope", http.StatusOK, `{"status":"ok"}`, func(err error) bool { return errors.Is(err, ErrInvalidResponse) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.SearchWorks(context.Background(), "x", "")
			if err == nil || !tt.checkFn(err) {
				t.Errorf("SearchWorks() error = %v", err)
			}
		})
	}
}

func TestSearchWorks_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(WithBaseURL(url))
	_, err := c.SearchWorks(context.Background(), "x", "")
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("SearchWorks() error = %v, want ErrNetworkError", err)
	}
}

func TestLookup(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(worksResponse))
	})

	tests := []struct {
		name       string
		query      enrich.Query
		wantStatus enrich.Status
		wantDOI    string
	}{
		{
			name:       "matching title and author",
			query:      enrich.Query{Title: "Deep Learning", Author: "LeCun", Authors: []string{"LeCun"}, Year: "2015"},
			wantStatus: enrich.Found,
			wantDOI:    "10.1038/nature14539",
		},
		{
			name:       "author mismatch",
			query:      enrich.Query{Title: "Deep Learning", Author: "Smith", Authors: []string{"Smith"}},
			wantStatus: enrich.NotFound,
		},
		{
			name:       "year mismatch",
			query:      enrich.Query{Title: "Deep Learning", Year: "2012"},
			wantStatus: enrich.NotFound,
		},
		{
			name:       "pages with double dash match",
			query:      enrich.Query{Title: "Deep Learning", Pages: "436--444", Volume: "521"},
			wantStatus: enrich.Found,
			wantDOI:    "10.1038/nature14539",
		},
		{
			name:       "volume mismatch",
			query:      enrich.Query{Title: "Deep Learning", Volume: "12"},
			wantStatus: enrich.NotFound,
		},
		{
			name:       "generic title",
			query:      enrich.Query{Title: "Introduction"},
			wantStatus: enrich.NotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Lookup(context.Background(), tt.query)
			if res.Status != tt.wantStatus {
				t.Fatalf("Status = %v, want %v (reason %q, err %v)", res.Status, tt.wantStatus, res.Reason, res.Err)
			}
			if res.Candidate.Identifier != tt.wantDOI {
				t.Errorf("Identifier = %q, want %q", res.Candidate.Identifier, tt.wantDOI)
			}
		})
	}
}

func TestLookup_TimeoutIsFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := c.Lookup(ctx, enrich.Query{Title: "Deep Learning"})
	if res.Status != enrich.Failed {
		t.Fatalf("Status = %v, want failed", res.Status)
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want deadline exceeded", res.Err)
	}
}

func TestLookup_RateLimitedIsFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	res := c.Lookup(context.Background(), enrich.Query{Title: "Deep Learning"})
	if res.Status != enrich.Failed {
		t.Fatalf("Status = %v, want failed", res.Status)
	}
	if res.Reason != "rate limited" {
		t.Errorf("Reason = %q, want %q", res.Reason, "rate limited")
	}
	if !IsRateLimited(res.Err) {
		t.Errorf("Err = %v, want rate limit error", res.Err)
	}
}

func TestNormalizePages(t *testing.T) {
	tests := map[string]string{
		"436--444": "436-444",
		"436-444":  "436-444",
		"pp. 1–9":  "1-9",
		"e1001":    "1001",
	}
	for in, want := range tests {
		if got := normalizePages(in); got != want {
			t.Errorf("normalizePages(%q) = %q, want %q", in, got, want)
		}
	}
}
