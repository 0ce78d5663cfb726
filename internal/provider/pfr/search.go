package pfr

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
)

// ErrNoCandidates is returned when a name search yields no player pages.
var ErrNoCandidates = errors.New("no matching players")

var playerIDRe = regexp.MustCompile(`^[A-Za-z.'-]{3,4}[A-Za-z.'-]{2}\d{2}$`)

// IsPlayerID reports whether s looks like a PFR id (MahoPa00) rather than a
// free-text name.
func IsPlayerID(s string) bool {
	return playerIDRe.MatchString(s)
}

// Search runs the site search for name. The site redirects straight to the
// player page on a unique match, so the final URL is returned alongside the
// document.
func (c *Client) Search(ctx context.Context, name string) (*url.URL, *goquery.Document, error) {
	p, err := c.get(ctx, "/search/search.fcgi?search="+url.QueryEscape(name))
	if err != nil {
		return nil, nil, err
	}
	return p.url, p.doc, nil
}

// Resolve turns a name or id into candidate PFR ids in the site's order.
func (s *Scraper) Resolve(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if IsPlayerID(query) {
		return []string{query}, nil
	}

	final, doc, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "search %q", query)
	}

	if id := idFromPath(final.Path); id != "" {
		s.logger.Info("Search redirected to player page", "query", query, "player", id)
		return []string{id}, nil
	}

	ids := SearchResults(doc)
	if len(ids) == 0 {
		return nil, errors.Wrapf(ErrNoCandidates, "%q", query)
	}
	s.logger.Info("Search candidates", "query", query, "count", len(ids))
	return ids, nil
}

// SearchResults extracts player ids from a search listing page.
func SearchResults(doc *goquery.Document) []string {
	var ids []string
	seen := make(map[string]bool)
	doc.Find("div#players div.search-item").Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find(`a[href*="/players/"]`).First().Attr("href")
		if !ok {
			return
		}
		if u, err := url.Parse(href); err == nil {
			href = u.Path
		}
		if id := idFromPath(href); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	})
	return ids
}

// idFromPath returns the id in /players/X/<id>.htm, or "".
func idFromPath(p string) string {
	if !strings.Contains(p, "/players/") || !strings.HasSuffix(p, ".htm") {
		return ""
	}
	id := strings.TrimSuffix(path.Base(p), ".htm")
	if !IsPlayerID(id) {
		return ""
	}
	return id
}
