package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func key(season int, team string) SeasonKey {
	return SeasonKey{PlayerID: "MahoPa00", Season: season, Team: team}
}

func TestPlayerStats_LatestSeasonAndTotal(t *testing.T) {
	s := PlayerStats{
		Passing:   []PassingStats{{SeasonKey: key(2022, "KAN")}, {SeasonKey: key(2024, "KAN")}},
		Rushing:   []RushingStats{{SeasonKey: key(2023, "KAN")}},
		Receiving: nil,
	}

	assert.Equal(t, 2024, s.LatestSeason())
	assert.Equal(t, 3, s.Total())
	assert.Equal(t, []int{2024, 2023, 2022}, s.Seasons())
}

func TestPlayerStats_Empty(t *testing.T) {
	var s PlayerStats
	assert.Equal(t, 0, s.LatestSeason())
	assert.Equal(t, 0, s.Total())
	assert.Empty(t, s.Seasons())
}

func TestPlayerStats_SortNewestFirst(t *testing.T) {
	s := PlayerStats{
		Rushing: []RushingStats{
			{SeasonKey: key(2021, "NYG")},
			{SeasonKey: key(2023, "NYG")},
			{SeasonKey: key(2023, "PHI")},
		},
	}
	s.SortNewestFirst()

	assert.Equal(t, 2023, s.Rushing[0].Season)
	assert.Equal(t, "NYG", s.Rushing[0].Team)
	assert.Equal(t, "PHI", s.Rushing[1].Team)
	assert.Equal(t, 2021, s.Rushing[2].Season)
}
