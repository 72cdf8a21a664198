package probability

import (
	"fmt"
	"math"

	"github.com/yourusername/valuebet/internal/models"
)

// minLambda keeps a team that failed to score in its window from collapsing
// the score matrix onto a single row.
const minLambda = 0.05

// topScoreCount is the number of correct-score lines reported
const topScoreCount = 5

// Params configures the probability model
type Params struct {
	LookbackMatches int
	MinMatches      int
	MaxGoals        int
	HomeAdvantage   float64
	PoissonWeight   float64
	LeagueAvgGoals  float64
	Elo             EloParams
}

// DefaultParams returns the model defaults
func DefaultParams() Params {
	return Params{
		LookbackMatches: 10,
		MinMatches:      3,
		MaxGoals:        9,
		HomeAdvantage:   1.2,
		PoissonWeight:   0.5,
		LeagueAvgGoals:  1.35,
		Elo:             DefaultEloParams(),
	}
}

// Validate checks parameter ranges
func (p Params) Validate() error {
	switch {
	case p.LookbackMatches <= 0:
		return fmt.Errorf("lookback_matches must be positive, got %d", p.LookbackMatches)
	case p.MinMatches < 0 || p.MinMatches > p.LookbackMatches:
		return fmt.Errorf("min_matches must be within [0, %d], got %d", p.LookbackMatches, p.MinMatches)
	case p.MaxGoals <= 0:
		return fmt.Errorf("max_goals must be positive, got %d", p.MaxGoals)
	case p.HomeAdvantage <= 0:
		return fmt.Errorf("home_advantage must be positive, got %f", p.HomeAdvantage)
	case p.PoissonWeight < 0 || p.PoissonWeight > 1:
		return fmt.Errorf("poisson_weight must be within [0, 1], got %f", p.PoissonWeight)
	case p.LeagueAvgGoals <= 0:
		return fmt.Errorf("league_avg_goals must be positive, got %f", p.LeagueAvgGoals)
	case p.Elo.DrawProbability < 0 || p.Elo.DrawProbability >= 1:
		return fmt.Errorf("elo draw_probability must be within [0, 1), got %f", p.Elo.DrawProbability)
	}
	return nil
}

// Input is everything the model needs for one fixture. Histories are finished
// fixtures ordered by kickoff ascending; anything at or after the fixture's
// kickoff is ignored.
type Input struct {
	Fixture     models.Fixture
	HomeHistory []models.Fixture
	AwayHistory []models.Fixture
	Ratings     *RatingSnapshot
}

// Model estimates outcome probabilities from team form and ratings
type Model struct {
	params Params
}

// NewModel creates a model with the given parameters
func NewModel(params Params) *Model {
	return &Model{params: params}
}

// Params returns the model parameters
func (m *Model) Params() Params {
	return m.params
}

// Predict produces the blended 1X2 distribution and derived markets
func (m *Model) Predict(in Input) (*models.Prediction, error) {
	f := in.Fixture
	homeWindow := Window(f.HomeTeamID, in.HomeHistory, f.Kickoff, m.params.LookbackMatches)
	awayWindow := Window(f.AwayTeamID, in.AwayHistory, f.Kickoff, m.params.LookbackMatches)
	if len(homeWindow) == 0 && len(awayWindow) == 0 {
		return nil, &models.InsufficientDataError{FixtureID: f.ID, HomeTeamID: f.HomeTeamID, AwayTeamID: f.AwayTeamID}
	}

	homeForm := BuildForm(f.HomeTeamID, homeWindow, f.Kickoff, in.Ratings.Rating(f.HomeTeamID))
	awayForm := BuildForm(f.AwayTeamID, awayWindow, f.Kickoff, in.Ratings.Rating(f.AwayTeamID))

	confidence := models.ConfidenceHigh
	if homeForm.Matches < m.params.MinMatches || awayForm.Matches < m.params.MinMatches {
		confidence = models.ConfidenceLow
	}

	lambdaHome, lambdaAway := m.ExpectedGoals(homeForm, awayForm)
	matrix := NewScoreMatrix(lambdaHome, lambdaAway, m.params.MaxGoals)

	ph, pd, pa := matrix.Outcome()
	poisson := models.OutcomeProbability{
		HomeWin:           ph,
		Draw:              pd,
		AwayWin:           pa,
		HomeExpectedGoals: lambdaHome,
		AwayExpectedGoals: lambdaAway,
	}
	elo := in.Ratings.Predict(f.HomeTeamID, f.AwayTeamID)

	return &models.Prediction{
		FixtureID:        f.ID,
		Outcome:          Blend(poisson, elo, m.params.PoissonWeight),
		Poisson:          poisson,
		Elo:              elo,
		HomeRating:       homeForm.Rating,
		AwayRating:       awayForm.Rating,
		Confidence:       confidence,
		Markets:          DerivedMarkets(matrix),
		MostLikelyScores: matrix.TopScores(topScoreCount),
		HomeForm:         homeForm,
		AwayForm:         awayForm,
	}, nil
}

// ExpectedGoals returns (lambda_home, lambda_away). Each is the team's attack
// rate times the opponent's defensive weakness times the league average; the
// home side is scaled by the home advantage factor. A team below MinMatches
// is treated as league average.
func (m *Model) ExpectedGoals(home, away models.TeamForm) (float64, float64) {
	avg := m.params.LeagueAvgGoals
	homeScored, homeConceded := m.rates(home, home.HomeMatches, home.HomeScoredAvg, home.HomeConcededAvg)
	awayScored, awayConceded := m.rates(away, away.AwayMatches, away.AwayScoredAvg, away.AwayConcededAvg)

	lambdaHome := (homeScored / avg) * (awayConceded / avg) * avg * m.params.HomeAdvantage
	lambdaAway := (awayScored / avg) * (homeConceded / avg) * avg
	return math.Max(lambdaHome, minLambda), math.Max(lambdaAway, minLambda)
}

// rates picks venue-specific averages when there are enough venue matches,
// overall averages when there are enough matches in total, otherwise the
// league average.
func (m *Model) rates(form models.TeamForm, venueMatches int, venueScored, venueConceded float64) (float64, float64) {
	min := m.params.MinMatches
	if min < 1 {
		min = 1
	}
	switch {
	case venueMatches >= min:
		return venueScored, venueConceded
	case form.Matches >= min:
		return form.GoalsScoredAvg, form.GoalsConcededAvg
	default:
		return m.params.LeagueAvgGoals, m.params.LeagueAvgGoals
	}
}

// Blend returns weight*poisson + (1-weight)*elo, renormalized. Expected goals
// are carried from the Poisson component.
func Blend(poisson, elo models.OutcomeProbability, weight float64) models.OutcomeProbability {
	w := clamp01(weight)
	h, d, a := normalize3(
		w*poisson.HomeWin+(1-w)*elo.HomeWin,
		w*poisson.Draw+(1-w)*elo.Draw,
		w*poisson.AwayWin+(1-w)*elo.AwayWin,
	)
	return models.OutcomeProbability{
		HomeWin:           h,
		Draw:              d,
		AwayWin:           a,
		HomeExpectedGoals: poisson.HomeExpectedGoals,
		AwayExpectedGoals: poisson.AwayExpectedGoals,
	}
}

// DerivedMarkets computes over/under and both-teams-to-score from the matrix.
// Over/under selections are keyed by their line under one market name.
func DerivedMarkets(matrix ScoreMatrix) map[string]map[string]float64 {
	totals := make(map[string]float64, 2*len(TotalLines))
	for _, line := range TotalLines {
		over, under := matrix.OverUnder(line)
		totals[models.TotalSelection("Over", line)] = over
		totals[models.TotalSelection("Under", line)] = under
	}
	yes, no := matrix.BothTeamsScore()
	return map[string]map[string]float64{
		models.MarketOverUnder: totals,
		models.MarketBTTS: {
			models.SelectionYes: yes,
			models.SelectionNo:  no,
		},
	}
}
