package models

import (
	"math"
	"time"
)

// ProbabilityTolerance bounds how far an outcome triple may drift from 1.0
const ProbabilityTolerance = 1e-6

// Confidence signals whether the model had enough history for both teams
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// TeamForm holds rolling performance for one team as of a fixture date
type TeamForm struct {
	TeamID             int64     `json:"team_id"`
	AsOf               time.Time `json:"as_of"`
	Matches            int       `json:"matches"`
	GoalsScoredAvg     float64   `json:"goals_scored_avg"`
	GoalsConcededAvg   float64   `json:"goals_conceded_avg"`
	HomeMatches        int       `json:"home_matches"`
	HomeScoredAvg      float64   `json:"home_scored_avg"`
	HomeConcededAvg    float64   `json:"home_conceded_avg"`
	AwayMatches        int       `json:"away_matches"`
	AwayScoredAvg      float64   `json:"away_scored_avg"`
	AwayConcededAvg    float64   `json:"away_conceded_avg"`
	Rating             float64   `json:"rating"`
	FormString         string    `json:"form_string"`
	PointsLast5        int       `json:"points_last_5"`
	GoalsScoredTrend   []int     `json:"goals_scored_trend"`
	GoalsConcededTrend []int     `json:"goals_conceded_trend"`
}

// OutcomeProbability is the model's 1X2 distribution for one fixture
type OutcomeProbability struct {
	HomeWin           float64 `json:"home_win"`
	Draw              float64 `json:"draw"`
	AwayWin           float64 `json:"away_win"`
	HomeExpectedGoals float64 `json:"home_expected_goals"`
	AwayExpectedGoals float64 `json:"away_expected_goals"`
}

// Sum returns HomeWin + Draw + AwayWin
func (o OutcomeProbability) Sum() float64 {
	return o.HomeWin + o.Draw + o.AwayWin
}

// Valid reports whether the triple is a proper distribution
func (o OutcomeProbability) Valid() bool {
	for _, p := range []float64{o.HomeWin, o.Draw, o.AwayWin} {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return false
		}
	}
	return math.Abs(o.Sum()-1.0) <= ProbabilityTolerance
}

// Selection returns the probability of a 1X2 selection label
func (o OutcomeProbability) Selection(label string) (float64, bool) {
	switch label {
	case SelectionHome:
		return o.HomeWin, true
	case SelectionDraw:
		return o.Draw, true
	case SelectionAway:
		return o.AwayWin, true
	default:
		return 0, false
	}
}

// ScoreProbability is the probability of an exact scoreline
type ScoreProbability struct {
	Score       string  `json:"score"`
	Probability float64 `json:"probability"`
}

// Prediction is the full model output for a fixture: the blended 1X2 triple,
// its components, and markets derived from the score matrix.
type Prediction struct {
	FixtureID        int64                         `json:"fixture_id"`
	Outcome          OutcomeProbability            `json:"outcome"`
	Poisson          OutcomeProbability            `json:"poisson"`
	Elo              OutcomeProbability            `json:"elo"`
	HomeRating       float64                       `json:"home_rating"`
	AwayRating       float64                       `json:"away_rating"`
	Confidence       Confidence                    `json:"confidence"`
	Markets          map[string]map[string]float64 `json:"markets"`
	MostLikelyScores []ScoreProbability            `json:"most_likely_scores"`
	HomeForm         TeamForm                      `json:"home_form"`
	AwayForm         TeamForm                      `json:"away_form"`
}

// Probability looks up the model probability for a (market, selection) pair
func (p *Prediction) Probability(market, selection string) (float64, bool) {
	if market == MarketMatchWinner {
		return p.Outcome.Selection(selection)
	}
	sel, ok := p.Markets[market]
	if !ok {
		return 0, false
	}
	prob, ok := sel[selection]
	return prob, ok
}

// Supports reports whether the prediction covers a market
func (p *Prediction) Supports(market string) bool {
	if market == MarketMatchWinner {
		return true
	}
	_, ok := p.Markets[market]
	return ok
}
