// Package provider defines canonical data types that the scraper normalizes
// into. These structs are the contract between the pfr package and the seed
// runner: the scraper outputs these, the store writes them to Postgres.
//
// Every stat field is a pointer. nil means the source did not report the
// value; it is written as SQL NULL and never conflated with a real zero.
package provider

import "sort"

// Category identifies one of the three season stat tables.
type Category string

const (
	CategoryPassing   Category = "passing"
	CategoryRushing   Category = "rushing"
	CategoryReceiving Category = "receiving"
)

// PlayerInfo is the canonical player profile shape written to the players table.
type PlayerInfo struct {
	PFRID        string `json:"pfr_id"`
	Name         string `json:"name"`
	Position     string `json:"position,omitempty"`
	Height       string `json:"height,omitempty"`     // "6-3"
	Weight       *int   `json:"weight,omitempty"`     // pounds
	BirthDate    string `json:"birth_date,omitempty"` // "YYYY-MM-DD"
	College      string `json:"college,omitempty"`
	DraftedYear  *int   `json:"drafted_year,omitempty"`
	DraftedRound *int   `json:"drafted_round,omitempty"`
	DraftedPick  *int   `json:"drafted_pick,omitempty"`
}

// SeasonKey is the part of every stat record that identifies a team-stint.
type SeasonKey struct {
	PlayerID string `json:"player_id"` // PFR id
	Season   int    `json:"season"`
	Team     string `json:"team"` // abbreviation as shown by the source
}

// PassingStats is one team-stint of passing statistics.
type PassingStats struct {
	SeasonKey
	Games              *int     `json:"games"`
	GamesStarted       *int     `json:"games_started"`
	Completions        *int     `json:"completions"`
	Attempts           *int     `json:"attempts"`
	CompletionPct      *float64 `json:"completion_pct"`
	PassingYards       *int     `json:"passing_yards"`
	PassingTDs         *int     `json:"passing_tds"`
	Interceptions      *int     `json:"interceptions"`
	YardsPerAttempt    *float64 `json:"yards_per_attempt"`
	YardsPerCompletion *float64 `json:"yards_per_completion"`
	QuarterbackRating  *float64 `json:"quarterback_rating"`
	Sacks              *int     `json:"sacks"`
	SackYards          *int     `json:"sack_yards"`
}

// RushingStats is one team-stint of rushing statistics.
type RushingStats struct {
	SeasonKey
	Games           *int     `json:"games"`
	GamesStarted    *int     `json:"games_started"`
	Attempts        *int     `json:"rushing_attempts"`
	Yards           *int     `json:"rushing_yards"`
	YardsPerAttempt *float64 `json:"yards_per_attempt"`
	TDs             *int     `json:"rushing_tds"`
	Longest         *int     `json:"longest_rush"`
	Fumbles         *int     `json:"fumbles"`
	FumblesLost     *int     `json:"fumbles_lost"`
}

// ReceivingStats is one team-stint of receiving statistics.
type ReceivingStats struct {
	SeasonKey
	Games             *int     `json:"games"`
	GamesStarted      *int     `json:"games_started"`
	Targets           *int     `json:"targets"`
	Receptions        *int     `json:"receptions"`
	Yards             *int     `json:"receiving_yards"`
	YardsPerReception *float64 `json:"yards_per_reception"`
	TDs               *int     `json:"receiving_tds"`
	Longest           *int     `json:"longest_reception"`
	CatchPct          *float64 `json:"catch_pct"`
	YardsPerTarget    *float64 `json:"yards_per_target"`
	Fumbles           *int     `json:"fumbles"`
	FumblesLost       *int     `json:"fumbles_lost"`
}

// PlayerStats holds every parsed season row for one player.
type PlayerStats struct {
	Passing   []PassingStats   `json:"passing"`
	Rushing   []RushingStats   `json:"rushing"`
	Receiving []ReceivingStats `json:"receiving"`
}

// Total returns the number of rows across all three categories.
func (s PlayerStats) Total() int {
	return len(s.Passing) + len(s.Rushing) + len(s.Receiving)
}

// LatestSeason returns the most recent season present in any category, or 0.
func (s PlayerStats) LatestSeason() int {
	latest := 0
	for _, r := range s.Passing {
		latest = max(latest, r.Season)
	}
	for _, r := range s.Rushing {
		latest = max(latest, r.Season)
	}
	for _, r := range s.Receiving {
		latest = max(latest, r.Season)
	}
	return latest
}

// Seasons returns the distinct seasons across all categories, newest first.
func (s PlayerStats) Seasons() []int {
	seen := make(map[int]struct{})
	add := func(k SeasonKey) { seen[k.Season] = struct{}{} }
	for _, r := range s.Passing {
		add(r.SeasonKey)
	}
	for _, r := range s.Rushing {
		add(r.SeasonKey)
	}
	for _, r := range s.Receiving {
		add(r.SeasonKey)
	}
	out := make([]int, 0, len(seen))
	for season := range seen {
		out = append(out, season)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// SortNewestFirst orders every category by season descending. Rows of the
// same season keep their source order.
func (s *PlayerStats) SortNewestFirst() {
	sort.SliceStable(s.Passing, func(i, j int) bool { return s.Passing[i].Season > s.Passing[j].Season })
	sort.SliceStable(s.Rushing, func(i, j int) bool { return s.Rushing[i].Season > s.Rushing[j].Season })
	sort.SliceStable(s.Receiving, func(i, j int) bool { return s.Receiving[i].Season > s.Receiving[j].Season })
}
