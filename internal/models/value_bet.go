package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ValueBetCandidate is one priced (market, selection) for a fixture with the
// model's edge over the de-vigged market probability.
type ValueBetCandidate struct {
	FixtureID            int64      `json:"fixture_id"`
	LeagueID             int64      `json:"league_id"`
	LeagueName           string     `json:"league_name"`
	HomeTeam             string     `json:"home_team"`
	AwayTeam             string     `json:"away_team"`
	Kickoff              time.Time  `json:"kickoff"`
	Market               string     `json:"market"`
	Selection            string     `json:"selection"`
	Bookmaker            string     `json:"bookmaker"`
	Odds                 float64    `json:"odds"`
	ImpliedProbability   float64    `json:"implied_probability"`
	EstimatedProbability float64    `json:"estimated_probability"`
	Edge                 float64    `json:"edge"`
	ExpectedValue        float64    `json:"expected_value"`
	Confidence           Confidence `json:"confidence"`
	Rank                 int        `json:"rank"`
}

// MatchDate returns the calendar day of kickoff in UTC
func (c *ValueBetCandidate) MatchDate() time.Time {
	k := c.Kickoff.UTC()
	return time.Date(k.Year(), k.Month(), k.Day(), 0, 0, 0, 0, time.UTC)
}

// LeagueView is the nested league object in the API response
type LeagueView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TeamsView is the nested teams object in the API response
type TeamsView struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// ValueBetView is the serialized form consumed by dashboards. Probabilities
// and edge are percentages in [0, 100] rounded to two decimals.
type ValueBetView struct {
	FixtureID            int64      `json:"fixture_id"`
	League               LeagueView `json:"league"`
	Teams                TeamsView  `json:"teams"`
	Market               string     `json:"market"`
	Selection            string     `json:"selection"`
	Bookmaker            string     `json:"bookmaker"`
	Odds                 float64    `json:"odds"`
	ImpliedProbability   float64    `json:"implied_probability"`
	EstimatedProbability float64    `json:"estimated_probability"`
	Edge                 float64    `json:"edge"`
	ExpectedValue        float64    `json:"expected_value"`
	Confidence           Confidence `json:"confidence"`
	Rank                 int        `json:"rank"`
	MatchDate            string     `json:"match_date"`
}

// View converts the candidate to its presentation shape
func (c *ValueBetCandidate) View() ValueBetView {
	return ValueBetView{
		FixtureID:            c.FixtureID,
		League:               LeagueView{ID: c.LeagueID, Name: c.LeagueName},
		Teams:                TeamsView{Home: c.HomeTeam, Away: c.AwayTeam},
		Market:               c.Market,
		Selection:            c.Selection,
		Bookmaker:            c.Bookmaker,
		Odds:                 decimal.NewFromFloat(c.Odds).Round(2).InexactFloat64(),
		ImpliedProbability:   Percent(c.ImpliedProbability),
		EstimatedProbability: Percent(c.EstimatedProbability),
		Edge:                 Percent(c.Edge),
		ExpectedValue:        Percent(c.ExpectedValue),
		Confidence:           c.Confidence,
		Rank:                 c.Rank,
		MatchDate:            c.MatchDate().Format("2006-01-02"),
	}
}

// Percent converts a probability to a two-decimal percentage
func Percent(p float64) float64 {
	return decimal.NewFromFloat(p).Mul(hundred).Round(2).InexactFloat64()
}

// Views converts a ranked candidate list preserving order. A nil or empty
// input yields an empty, non-nil slice.
func Views(candidates []ValueBetCandidate) []ValueBetView {
	out := make([]ValueBetView, 0, len(candidates))
	for i := range candidates {
		out = append(out, candidates[i].View())
	}
	return out
}

// SelectionFilter narrows and caps a candidate list
type SelectionFilter struct {
	MinEdge    float64    `json:"min_edge" validate:"gte=-1,lte=1"`
	LeagueID   *int64     `json:"league_id,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Markets    []string   `json:"markets,omitempty"`
	MaxResults int        `json:"max_results" validate:"gte=0"`
}

// Default selection settings
const (
	DefaultMinEdge    = 0.05
	DefaultMaxResults = 20
)

// DefaultSelectionFilter returns min_edge 0.05 and max_results 20
func DefaultSelectionFilter() SelectionFilter {
	return SelectionFilter{MinEdge: DefaultMinEdge, MaxResults: DefaultMaxResults}
}

// FixtureFailure records why a fixture produced no candidates in a batch
type FixtureFailure struct {
	FixtureID int64  `json:"fixture_id"`
	Reason    string `json:"reason"`
	Err       error  `json:"-"`
}

// AnalysisRun is the outcome of one batch evaluation
type AnalysisRun struct {
	ID         string              `json:"id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Evaluated  int                 `json:"evaluated"`
	Candidates []ValueBetCandidate `json:"candidates"`
	Failures   []FixtureFailure    `json:"failures"`
}
