package pfr

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/ffdraft/draftboard/internal/provider"
)

// ErrNoPlayerInfo is returned when a fetched page has no player header.
var ErrNoPlayerInfo = errors.New("no player info on page")

var (
	positionRe = regexp.MustCompile(`Position\s*:\s*([A-Z][A-Z/-]*)`)
	heightWtRe = regexp.MustCompile(`(\d-\d{1,2})\s*,\s*(\d{2,3})\s*lb`)
	draftRe    = regexp.MustCompile(`Draft:\s*.+?\s+in the\s+(\d+)(?:st|nd|rd|th) round\s+\((\d+)(?:st|nd|rd|th) overall\)\s+of the\s+(\d{4})`)
)

// PlayerURL returns the site path of a player page, e.g.
// /players/M/MahoPa00.htm.
func PlayerURL(id string) string {
	if id == "" {
		return "/players/"
	}
	return "/players/" + id[:1] + "/" + id + ".htm"
}

// ParsePlayerInfo reads the profile block at the top of a player page.
func ParsePlayerInfo(doc *goquery.Document, id string) (provider.PlayerInfo, error) {
	info := doc.Find("div#info").First()
	if info.Length() == 0 {
		return provider.PlayerInfo{}, errors.Wrapf(ErrNoPlayerInfo, "player %s", id)
	}

	name := collapse(doc.Find(`h1[itemprop="name"]`).First().Text())
	if name == "" {
		name = collapse(doc.Find("h1").First().Text())
	}
	if name == "" {
		return provider.PlayerInfo{}, errors.Wrapf(ErrNoPlayerInfo, "player %s: no name", id)
	}

	p := provider.PlayerInfo{PFRID: id, Name: name}
	meta := collapse(info.Text())

	if m := positionRe.FindStringSubmatch(meta); m != nil {
		p.Position = m[1]
	}

	p.Height = collapse(info.Find(`span[itemprop="height"]`).First().Text())
	if wt := collapse(info.Find(`span[itemprop="weight"]`).First().Text()); wt != "" {
		p.Weight, _ = ParseInt(strings.TrimSuffix(wt, "lb"))
	}
	if m := heightWtRe.FindStringSubmatch(meta); m != nil {
		if p.Height == "" {
			p.Height = m[1]
		}
		if p.Weight == nil {
			p.Weight, _ = ParseInt(m[2])
		}
	}

	p.BirthDate = info.Find("span#necro-birth").First().AttrOr("data-birth", "")

	info.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "College") {
			return true
		}
		s.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if t := collapse(a.Text()); t != "" && !strings.Contains(t, "College Stats") {
				p.College = t
				return false
			}
			return true
		})
		return false
	})

	if m := draftRe.FindStringSubmatch(meta); m != nil {
		round, _ := strconv.Atoi(m[1])
		pick, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		p.DraftedRound, p.DraftedPick, p.DraftedYear = &round, &pick, &year
	}

	return p, nil
}

// collapse folds runs of whitespace, including the non-breaking spaces the
// site pads its profile block with.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PlayerPage is everything read from one player page.
type PlayerPage struct {
	Info  provider.PlayerInfo
	Stats provider.PlayerStats
}

// Scraper combines the client, the resolver and the parsers into the
// operations the collector needs.
type Scraper struct {
	client *Client
	logger *slog.Logger
}

// NewScraper creates a scraper over client.
func NewScraper(client *Client, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{client: client, logger: logger}
}

// FetchPlayer downloads a player page once and parses both the profile and
// every stat table from it.
func (s *Scraper) FetchPlayer(ctx context.Context, id string) (*PlayerPage, error) {
	doc, err := s.client.Document(ctx, PlayerURL(id))
	if err != nil {
		return nil, errors.Wrapf(err, "fetch player %s", id)
	}

	info, err := ParsePlayerInfo(doc, id)
	if err != nil {
		return nil, err
	}

	stats := ParseStats(doc, id, s.logger)
	s.logger.Debug("Parsed player page",
		"player", id,
		"passing", len(stats.Passing),
		"rushing", len(stats.Rushing),
		"receiving", len(stats.Receiving))

	return &PlayerPage{Info: info, Stats: stats}, nil
}
