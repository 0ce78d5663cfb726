// Package research produces LLM scouting reports for draft candidates.
package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Researcher writes a scouting report for one player.
type Researcher interface {
	Research(ctx context.Context, playerName string, season int) (*Report, error)
}

// Report is a scouting report. Text fields may contain markdown links.
type Report struct {
	PlayingTime  string  `json:"playing_time"`
	InjuryRisk   string  `json:"injury_risk"`
	BreakoutRisk string  `json:"breakout_risk"`
	BustRisk     string  `json:"bust_risk"`
	KeyChanges   string  `json:"key_changes"`
	Outlook      string  `json:"outlook"`
	Scores       *Scores `json:"scores,omitempty"`
}

// Scores rate a report numerically. PlayingTime runs -5..5 (change versus
// last season); the risks run 0..5.
type Scores struct {
	PlayingTime  int `json:"playing_time"`
	InjuryRisk   int `json:"injury_risk"`
	BreakoutRisk int `json:"breakout_risk"`
	BustRisk     int `json:"bust_risk"`
}

// Clamp forces every score into its range.
func (s *Scores) Clamp() {
	s.PlayingTime = clamp(s.PlayingTime, -5, 5)
	s.InjuryRisk = clamp(s.InjuryRisk, 0, 5)
	s.BreakoutRisk = clamp(s.BreakoutRisk, 0, 5)
	s.BustRisk = clamp(s.BustRisk, 0, 5)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Linkified returns a copy of r with markdown links in every text field
// turned into anchors.
func (r Report) Linkified() Report {
	r.PlayingTime = LinkifyMarkdown(r.PlayingTime)
	r.InjuryRisk = LinkifyMarkdown(r.InjuryRisk)
	r.BreakoutRisk = LinkifyMarkdown(r.BreakoutRisk)
	r.BustRisk = LinkifyMarkdown(r.BustRisk)
	r.KeyChanges = LinkifyMarkdown(r.KeyChanges)
	r.Outlook = LinkifyMarkdown(r.Outlook)
	return r
}

// AnalysisText joins the sections into the single text blob the board shows.
func (r Report) AnalysisText() string {
	parts := []string{
		fmt.Sprintf("**Playing Time**: %s", r.PlayingTime),
		fmt.Sprintf("**Injury Risk**: %s", r.InjuryRisk),
		fmt.Sprintf("**Breakout Risk**: %s", r.BreakoutRisk),
		fmt.Sprintf("**Bust Risk**: %s", r.BustRisk),
		fmt.Sprintf("**Key Changes**: %s", r.KeyChanges),
		fmt.Sprintf("**Outlook**: %s", r.Outlook),
	}
	return LinkifyMarkdown(strings.Join(parts, "\n\n"))
}

var markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)

// LinkifyMarkdown converts [text](http://url) into HTML anchors that open in
// a new tab. Link text and URL are escaped.
func LinkifyMarkdown(s string) string {
	return markdownLinkRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := markdownLinkRe.FindStringSubmatch(m)
		return `<a href="` + attrEscape(sub[2]) + `" target="_blank" rel="noopener" class="text-blue-600 hover:text-blue-800 underline">` +
			textEscape(sub[1]) + `</a>`
	})
}

var (
	attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")
	textEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")
)

func attrEscape(s string) string { return attrEscaper.Replace(s) }
func textEscape(s string) string { return textEscaper.Replace(s) }
