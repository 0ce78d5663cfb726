package pfr

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/ffdraft/draftboard/internal/provider"
)

// ErrBadToken marks a cell whose text is neither a number nor a placeholder.
var ErrBadToken = errors.New("unexpected token")

// columnAliases maps a semantic field to the data-stat keys it has used on
// the site, most recent first. Cells are always located by these keys, never
// by position, so added or removed columns cannot shift values.
var columnAliases = map[string][]string{
	"season":        {"year_id", "year"},
	"team":          {"team_name_abbr", "team"},
	"games":         {"games", "g"},
	"games_started": {"games_started", "gs"},

	"pass_cmp":         {"pass_cmp"},
	"pass_att":         {"pass_att"},
	"pass_cmp_pct":     {"pass_cmp_pct", "pass_cmp_perc"},
	"pass_yds":         {"pass_yds"},
	"pass_td":          {"pass_td"},
	"pass_int":         {"pass_int"},
	"pass_yds_per_att": {"pass_yds_per_att"},
	"pass_yds_per_cmp": {"pass_yds_per_cmp"},
	"pass_rating":      {"pass_rating"},
	"pass_sacked":      {"pass_sacked"},
	"pass_sacked_yds":  {"pass_sacked_yds"},

	"rush_att":         {"rush_att"},
	"rush_yds":         {"rush_yds"},
	"rush_yds_per_att": {"rush_yds_per_att"},
	"rush_td":          {"rush_td"},
	"rush_long":        {"rush_long"},

	"targets":         {"targets"},
	"rec":             {"rec"},
	"rec_yds":         {"rec_yds"},
	"rec_yds_per_rec": {"rec_yds_per_rec"},
	"rec_td":          {"rec_td"},
	"rec_long":        {"rec_long"},
	"catch_pct":       {"catch_pct", "rec_catch_pct"},
	"rec_yds_per_tgt": {"rec_yds_per_tgt"},

	"fumbles":      {"fumbles"},
	"fumbles_lost": {"fumbles_lost"},
}

// categoryFields are the fields that make a row count as data for its
// category. A quarterback's row in the shared rushing/receiving table has
// empty receiving cells and is not a receiving record.
var categoryFields = map[provider.Category][]string{
	provider.CategoryPassing:   {"pass_cmp", "pass_att", "pass_yds", "pass_td", "pass_int", "pass_rating"},
	provider.CategoryRushing:   {"rush_att", "rush_yds", "rush_td", "rush_long"},
	provider.CategoryReceiving: {"targets", "rec", "rec_yds", "rec_td", "rec_long"},
}

var (
	seasonRe        = regexp.MustCompile(`^\d{4}$`)
	multiTeamRe     = regexp.MustCompile(`^\d+TM$`)
	placeholderText = map[string]bool{"": true, "-": true, "--": true, "—": true, "–": true}
)

// --------------------------------------------------------------------------
// Coercion
// --------------------------------------------------------------------------

// ParseInt converts cell text to an int. Thousands separators are stripped.
// Placeholders ("", "-", "--") yield nil: absent, not zero.
func ParseInt(text string) (*int, error) {
	text = strings.TrimSpace(text)
	if placeholderText[text] {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return nil, errors.Wrapf(ErrBadToken, "int %q", text)
	}
	return &n, nil
}

// ParseFloat converts cell text to a float64 with the same placeholder rules
// as ParseInt.
func ParseFloat(text string) (*float64, error) {
	text = strings.TrimSpace(text)
	if placeholderText[text] {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil {
		return nil, errors.Wrapf(ErrBadToken, "float %q", text)
	}
	return &f, nil
}

// ParsePercent converts "64.2%" or "64.2" to 64.2.
func ParsePercent(text string) (*float64, error) {
	return ParseFloat(strings.TrimSuffix(strings.TrimSpace(text), "%"))
}

// --------------------------------------------------------------------------
// Row reading
// --------------------------------------------------------------------------

// RowResult is the outcome of normalizing one table row: either a record, or
// a skip with the reason. Err is set when the skip was caused by a malformed
// cell rather than by an expected non-data row.
type RowResult[T any] struct {
	Record  T
	Skipped bool
	Reason  string
	Err     error
}

func skip[T any](reason string) RowResult[T] {
	return RowResult[T]{Skipped: true, Reason: reason}
}

// rowReader looks up cells by semantic field and keeps the first coercion
// error so a parse function can read every field without checking each one.
type rowReader struct {
	row *goquery.Selection
	err error
}

// cell returns the trimmed text for field and whether the row has a column
// for it under any alias.
func (r *rowReader) cell(field string) (string, bool) {
	for _, key := range columnAliases[field] {
		c := r.row.Find(`th[data-stat="` + key + `"], td[data-stat="` + key + `"]`).First()
		if c.Length() > 0 {
			return strings.TrimSpace(c.Text()), true
		}
	}
	return "", false
}

// hasValue reports whether any of fields holds a non-placeholder value.
func (r *rowReader) hasValue(fields []string) bool {
	for _, f := range fields {
		if text, ok := r.cell(f); ok && !placeholderText[text] {
			return true
		}
	}
	return false
}

func (r *rowReader) int(field string) *int {
	text, ok := r.cell(field)
	if !ok || r.err != nil {
		return nil
	}
	v, err := ParseInt(text)
	if err != nil {
		r.err = errors.Wrapf(err, "column %s", field)
	}
	return v
}

func (r *rowReader) float(field string) *float64 {
	text, ok := r.cell(field)
	if !ok || r.err != nil {
		return nil
	}
	v, err := ParseFloat(text)
	if err != nil {
		r.err = errors.Wrapf(err, "column %s", field)
	}
	return v
}

func (r *rowReader) percent(field string) *float64 {
	text, ok := r.cell(field)
	if !ok || r.err != nil {
		return nil
	}
	v, err := ParsePercent(text)
	if err != nil {
		r.err = errors.Wrapf(err, "column %s", field)
	}
	return v
}

// parseRow applies the checks shared by every category, then fill.
func parseRow[T any](row *goquery.Selection, playerID string, cat provider.Category, fill func(*rowReader, provider.SeasonKey) T) RowResult[T] {
	if strings.Contains(row.AttrOr("class", ""), "thead") {
		return skip[T]("header row")
	}

	r := &rowReader{row: row}

	seasonText, ok := r.cell("season")
	if !ok {
		return skip[T]("no season cell")
	}
	seasonText = strings.TrimRight(seasonText, "*+")
	if !seasonRe.MatchString(seasonText) {
		return skip[T]("non-season label " + strconv.Quote(seasonText))
	}
	season, _ := strconv.Atoi(seasonText)

	team, ok := r.cell("team")
	if !ok || team == "" {
		return skip[T]("no team")
	}
	if multiTeamRe.MatchString(team) {
		return skip[T]("multi-team season total")
	}

	if !r.hasValue(categoryFields[cat]) {
		return skip[T]("no " + string(cat) + " values")
	}

	rec := fill(r, provider.SeasonKey{PlayerID: playerID, Season: season, Team: team})
	if r.err != nil {
		return RowResult[T]{Skipped: true, Reason: "malformed cell", Err: r.err}
	}
	return RowResult[T]{Record: rec}
}

// ParsePassingRow normalizes one row of the passing table.
func ParsePassingRow(row *goquery.Selection, playerID string) RowResult[provider.PassingStats] {
	return parseRow(row, playerID, provider.CategoryPassing, func(r *rowReader, k provider.SeasonKey) provider.PassingStats {
		return provider.PassingStats{
			SeasonKey:          k,
			Games:              r.int("games"),
			GamesStarted:       r.int("games_started"),
			Completions:        r.int("pass_cmp"),
			Attempts:           r.int("pass_att"),
			CompletionPct:      r.percent("pass_cmp_pct"),
			PassingYards:       r.int("pass_yds"),
			PassingTDs:         r.int("pass_td"),
			Interceptions:      r.int("pass_int"),
			YardsPerAttempt:    r.float("pass_yds_per_att"),
			YardsPerCompletion: r.float("pass_yds_per_cmp"),
			QuarterbackRating:  r.float("pass_rating"),
			Sacks:              r.int("pass_sacked"),
			SackYards:          r.int("pass_sacked_yds"),
		}
	})
}

// ParseRushingRow normalizes one row of the rushing/receiving table as
// rushing stats.
func ParseRushingRow(row *goquery.Selection, playerID string) RowResult[provider.RushingStats] {
	return parseRow(row, playerID, provider.CategoryRushing, func(r *rowReader, k provider.SeasonKey) provider.RushingStats {
		return provider.RushingStats{
			SeasonKey:       k,
			Games:           r.int("games"),
			GamesStarted:    r.int("games_started"),
			Attempts:        r.int("rush_att"),
			Yards:           r.int("rush_yds"),
			YardsPerAttempt: r.float("rush_yds_per_att"),
			TDs:             r.int("rush_td"),
			Longest:         r.int("rush_long"),
			Fumbles:         r.int("fumbles"),
			FumblesLost:     r.int("fumbles_lost"),
		}
	})
}

// ParseReceivingRow normalizes one row of the rushing/receiving table as
// receiving stats.
func ParseReceivingRow(row *goquery.Selection, playerID string) RowResult[provider.ReceivingStats] {
	return parseRow(row, playerID, provider.CategoryReceiving, func(r *rowReader, k provider.SeasonKey) provider.ReceivingStats {
		return provider.ReceivingStats{
			SeasonKey:         k,
			Games:             r.int("games"),
			GamesStarted:      r.int("games_started"),
			Targets:           r.int("targets"),
			Receptions:        r.int("rec"),
			Yards:             r.int("rec_yds"),
			YardsPerReception: r.float("rec_yds_per_rec"),
			TDs:               r.int("rec_td"),
			Longest:           r.int("rec_long"),
			CatchPct:          r.percent("catch_pct"),
			YardsPerTarget:    r.float("rec_yds_per_tgt"),
			Fumbles:           r.int("fumbles"),
			FumblesLost:       r.int("fumbles_lost"),
		}
	})
}

// --------------------------------------------------------------------------
// Table parsing
// --------------------------------------------------------------------------

// collect runs parse over every row of the category's table, keeping records
// and logging skips. One bad row never stops the others.
func collect[T any](doc *goquery.Document, playerID string, cat provider.Category, parse func(*goquery.Selection, string) RowResult[T], logger *slog.Logger) []T {
	var out []T
	LocateRows(doc, cat).Each(func(i int, row *goquery.Selection) {
		res := parse(row, playerID)
		switch {
		case res.Err != nil:
			logger.Warn("Skipping malformed row",
				"player", playerID, "category", cat, "row", i, "error", res.Err)
		case res.Skipped:
			logger.Debug("Skipping row",
				"player", playerID, "category", cat, "row", i, "reason", res.Reason)
		default:
			out = append(out, res.Record)
		}
	})
	return out
}

// ParseStats extracts every category from a player page, newest season first.
// Missing tables yield empty slices.
func ParseStats(doc *goquery.Document, playerID string, logger *slog.Logger) provider.PlayerStats {
	if logger == nil {
		logger = slog.Default()
	}
	stats := provider.PlayerStats{
		Passing:   collect(doc, playerID, provider.CategoryPassing, ParsePassingRow, logger),
		Rushing:   collect(doc, playerID, provider.CategoryRushing, ParseRushingRow, logger),
		Receiving: collect(doc, playerID, provider.CategoryReceiving, ParseReceivingRow, logger),
	}
	stats.SortNewestFirst()
	return stats
}
