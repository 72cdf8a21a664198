package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuebet/internal/models"
)

var matchDay = time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

func candidate(fixtureID, leagueID int64, estimated, implied, odds float64) models.ValueBetCandidate {
	return models.ValueBetCandidate{
		FixtureID:            fixtureID,
		LeagueID:             leagueID,
		Kickoff:              matchDay,
		Market:               models.MarketMatchWinner,
		Selection:            models.SelectionHome,
		Bookmaker:            "Alpha",
		Odds:                 odds,
		ImpliedProbability:   implied,
		EstimatedProbability: estimated,
		Edge:                 Edge(estimated, implied),
		ExpectedValue:        ExpectedValue(estimated, odds),
	}
}

func TestSelectMinEdgeScenario(t *testing.T) {
	keep := candidate(1, 39, 0.50, 0.40, 2.40)
	drop := candidate(2, 39, 0.42, 0.40, 2.40)

	got := Select([]models.ValueBetCandidate{drop, keep}, models.DefaultSelectionFilter())

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].FixtureID)
	assert.InDelta(t, 0.10, got[0].Edge, 1e-9)
	assert.Equal(t, 1, got[0].Rank)
}

func TestSelectEmptyIsNotNil(t *testing.T) {
	got := Select(nil, models.DefaultSelectionFilter())

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectOrdering(t *testing.T) {
	a := candidate(5, 39, 0.55, 0.40, 2.00) // edge 0.15, ev 0.10
	b := candidate(3, 39, 0.55, 0.40, 2.40) // edge 0.15, ev 0.32
	c := candidate(4, 39, 0.55, 0.40, 2.40) // same as b, higher fixture id
	d := candidate(1, 39, 0.50, 0.30, 3.00) // edge 0.20

	got := Select([]models.ValueBetCandidate{a, b, c, d}, models.SelectionFilter{MinEdge: 0})

	require.Len(t, got, 4)
	ids := []int64{got[0].FixtureID, got[1].FixtureID, got[2].FixtureID, got[3].FixtureID}
	assert.Equal(t, []int64{1, 3, 4, 5}, ids)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Edge, got[i].Edge)
		assert.Equal(t, i+1, got[i].Rank)
	}
}

func TestSelectFilters(t *testing.T) {
	premier := int64(39)
	nextDay := matchDay.Add(24 * time.Hour)
	sameDay := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	other := candidate(2, 140, 0.6, 0.4, 2.5)
	later := candidate(3, 39, 0.6, 0.4, 2.5)
	later.Kickoff = nextDay
	btts := candidate(4, 39, 0.6, 0.4, 2.5)
	btts.Market = models.MarketBTTS
	btts.Selection = models.SelectionYes
	all := []models.ValueBetCandidate{candidate(1, 39, 0.6, 0.4, 2.5), other, later, btts}

	tests := []struct {
		name   string
		filter models.SelectionFilter
		want   []int64
	}{
		{"league", models.SelectionFilter{LeagueID: &premier}, []int64{1, 3, 4}},
		{"date", models.SelectionFilter{Date: &sameDay}, []int64{1, 2, 4}},
		{"markets", models.SelectionFilter{Markets: []string{models.MarketBTTS}}, []int64{4}},
		{"league and date", models.SelectionFilter{LeagueID: &premier, Date: &sameDay}, []int64{1, 4}},
		{"max results", models.SelectionFilter{MaxResults: 2}, []int64{1, 2}},
		{"no cap", models.SelectionFilter{MaxResults: 0}, []int64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(all, tt.filter)
			ids := make([]int64, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.FixtureID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSelectMinEdgeMonotonic(t *testing.T) {
	var all []models.ValueBetCandidate
	for i := 0; i < 40; i++ {
		implied := 0.30 + float64(i%10)*0.02
		estimated := 0.25 + float64(i%13)*0.025
		all = append(all, candidate(int64(i+1), 39, estimated, implied, 1/implied))
	}

	prev := len(all) + 1
	for _, minEdge := range []float64{-0.5, -0.1, 0, 0.02, 0.05, 0.1, 0.2, 0.5} {
		got := Select(all, models.SelectionFilter{MinEdge: minEdge})
		assert.LessOrEqual(t, len(got), prev, "min_edge %.2f", minEdge)
		for _, c := range got {
			assert.GreaterOrEqual(t, c.Edge, minEdge)
		}
		prev = len(got)
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	in := []models.ValueBetCandidate{candidate(2, 39, 0.5, 0.4, 2.5), candidate(1, 39, 0.7, 0.4, 2.5)}

	_ = Select(in, models.SelectionFilter{})

	assert.Equal(t, int64(2), in[0].FixtureID)
	assert.Equal(t, 0, in[0].Rank)
}
