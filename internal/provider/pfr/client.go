// Package pfr scrapes player pages from pro-football-reference.com.
//
// The site has no API, so everything here works on HTML: a rate-limited
// fetcher, table locators that tolerate renamed tables, a row normalizer
// keyed by the site's data-stat attributes, and the player search used to
// turn a free-text name into PFR ids.
package pfr

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.pro-football-reference.com"
	DefaultDelay   = 2 * time.Second
	defaultTimeout = 30 * time.Second
	defaultUA      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// ErrStatus is returned when the site answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL   string
	UserAgent string
	// Delay is the minimum spacing between two requests. Negative disables
	// pacing (tests only).
	Delay   time.Duration
	Timeout time.Duration
}

// Client is the shared HTTP client for every pro-football-reference request.
// All requests go through one token bucket with a single token, so the site
// never sees more than one request per Delay.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a PFR client with rate limiting.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUA
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// page is a fetched and parsed HTML document.
type page struct {
	// url is the final URL after redirects.
	url *url.URL
	doc *goquery.Document
}

// Document fetches path (relative to the base URL) and parses it.
func (c *Client) Document(ctx context.Context, path string) (*goquery.Document, error) {
	p, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.doc, nil
}

// get performs a rate-limited GET request and parses the body as HTML.
func (c *Client) get(ctx context.Context, path string) (*page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	c.logger.Info("Fetching", "url", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "http request %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(ErrStatus, "%s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(uncomment(body)))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}

	return &page{url: resp.Request.URL, doc: doc}, nil
}

// uncomment removes HTML comment markers. PFR ships every table below the
// first one inside <!-- --> and reveals them with javascript.
func uncomment(body []byte) []byte {
	body = bytes.ReplaceAll(body, []byte("<!--"), nil)
	return bytes.ReplaceAll(body, []byte("-->"), nil)
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
