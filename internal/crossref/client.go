// Package crossref queries the Crossref REST API for DOIs.
package crossref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout bounds a whole HTTP exchange. Callers usually pass a
	// shorter per-lookup deadline through the context.
	DefaultTimeout = 30 * time.Second

	// DefaultRows is the number of candidates requested per search.
	DefaultRows = 5

	// RateLimit is the default request rate. Crossref asks polite clients to
	// stay well under 50 requests per second.
	RateLimit = 10.0

	// UserAgent identifies bibfix to Crossref.
	UserAgent = "bibfix/1.0"

	maxResponseBytes = 8 << 20
)

// Client is a rate-limited HTTP client for the Crossref works API.
type Client struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	baseURL       string
	mailto        string
	rows          int
	minTitleScore float64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithMailto sets the contact address sent in the User-Agent, which routes
// requests to Crossref's polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithRows sets how many candidates each search requests.
func WithRows(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.rows = n
		}
	}
}

// WithRateLimit sets the maximum requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMinTitleScore sets the title similarity below which candidates are
// rejected during screening.
func WithMinTitleScore(score float64) ClientOption {
	return func(c *Client) {
		if score > 0 {
			c.minTitleScore = score
		}
	}
}

// NewClient creates a new Crossref API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		limiter:       rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:       BaseURL,
		rows:          DefaultRows,
		minTitleScore: DefaultMinTitleScore,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// userAgent follows Crossref's etiquette: tool name plus a mailto contact.
func (c *Client) userAgent() string {
	if c.mailto == "" {
		return UserAgent
	}
	return fmt.Sprintf("%s (mailto:%s)", UserAgent, c.mailto)
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrNetworkError, err)
	}
	return body, nil
}

// SearchWorks runs a field query against /works and returns the candidates
// in Crossref's relevance order. An empty result is ErrNotFound.
func (c *Client) SearchWorks(ctx context.Context, title, author string) ([]Work, error) {
	params := url.Values{}
	params.Set("query.title", title)
	if author != "" {
		params.Set("query.author", author)
	}
	params.Set("rows", strconv.Itoa(c.rows))
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	body, err := c.get(ctx, "/works", params)
	if err != nil {
		return nil, err
	}

	works, err := parseWorks(body)
	if err != nil {
		return nil, err
	}
	if len(works) == 0 {
		return nil, ErrNotFound
	}
	return works, nil
}

// parseWorks extracts works from a /works response envelope.
func parseWorks(body []byte) ([]Work, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrInvalidResponse)
	}
	root := gjson.ParseBytes(body)
	if status := root.Get("status").String(); status != "" && status != "ok" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("status %q", status)}
	}
	items := root.Get("message.items")
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: missing message.items", ErrInvalidResponse)
	}

	var works []Work
	items.ForEach(func(_, item gjson.Result) bool {
		works = append(works, workFromJSON(item))
		return true
	})
	return works, nil
}

func workFromJSON(item gjson.Result) Work {
	w := Work{
		DOI:       item.Get("DOI").String(),
		Title:     item.Get("title.0").String(),
		Container: item.Get("container-title.0").String(),
		Volume:    item.Get("volume").String(),
		Issue:     item.Get("issue").String(),
		Page:      item.Get("page").String(),
		Score:     item.Get("score").Float(),
	}
	for _, f := range item.Get("author.#.family").Array() {
		if s := f.String(); s != "" {
			w.Families = append(w.Families, s)
		}
	}
	for _, key := range []string{"issued", "published-print", "published-online"} {
		if y := item.Get(key + ".date-parts.0.0").Int(); y > 0 {
			w.Year = strconv.FormatInt(y, 10)
			break
		}
	}
	return w
}
