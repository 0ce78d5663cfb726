package seed

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ffdraft/draftboard/internal/provider/pfr"
)

// Choose picks the candidate page a name search most likely meant: the one
// with the most recent season, then the most stat rows, then the name
// closest to query. Pages without any rows are never chosen; nil means no
// candidate qualified.
func Choose(pages []*pfr.PlayerPage, query string) *pfr.PlayerPage {
	var best *pfr.PlayerPage
	bestDist := 0
	q := strings.ToLower(strings.TrimSpace(query))

	for _, p := range pages {
		if p == nil || p.Stats.Total() == 0 {
			continue
		}
		dist := fuzzy.LevenshteinDistance(q, strings.ToLower(p.Info.Name))
		if best == nil || better(p, dist, best, bestDist) {
			best, bestDist = p, dist
		}
	}
	return best
}

func better(p *pfr.PlayerPage, dist int, than *pfr.PlayerPage, thanDist int) bool {
	if a, b := p.Stats.LatestSeason(), than.Stats.LatestSeason(); a != b {
		return a > b
	}
	if a, b := p.Stats.Total(), than.Stats.Total(); a != b {
		return a > b
	}
	return dist < thanDist
}
