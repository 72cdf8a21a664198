package probability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuebet/internal/models"
)

var baseKickoff = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

func finished(id, home, away int64, hg, ag int, daysBefore int) models.Fixture {
	return models.Fixture{
		ID:         id,
		Kickoff:    baseKickoff.AddDate(0, 0, -daysBefore),
		LeagueID:   39,
		HomeTeamID: home,
		AwayTeamID: away,
		Status:     models.FixtureFinished,
		Score:      &models.Score{Home: hg, Away: ag},
	}
}

func upcoming(id, home, away int64) models.Fixture {
	return models.Fixture{
		ID:         id,
		Kickoff:    baseKickoff,
		LeagueID:   39,
		HomeTeamID: home,
		AwayTeamID: away,
		Status:     models.FixtureScheduled,
	}
}

// history returns fixtures ordered by kickoff ascending
func history(fixtures ...models.Fixture) []models.Fixture {
	out := make([]models.Fixture, len(fixtures))
	for i := range fixtures {
		out[len(fixtures)-1-i] = fixtures[i]
	}
	return out
}

func TestPoissonPMF(t *testing.T) {
	assert.InDelta(t, 0.36788, PoissonPMF(0, 1.0), 1e-5)
	assert.InDelta(t, 0.36788, PoissonPMF(1, 1.0), 1e-5)
	assert.InDelta(t, 0.18394, PoissonPMF(2, 1.0), 1e-5)
	assert.Equal(t, 1.0, PoissonPMF(0, 0))
	assert.Equal(t, 0.0, PoissonPMF(3, 0))
	assert.Equal(t, 0.0, PoissonPMF(-1, 1.0))
}

func TestScoreMatrixTruncationMass(t *testing.T) {
	total := 0.0
	for i := 0; i <= 9; i++ {
		for j := 0; j <= 9; j++ {
			total += PoissonPMF(i, 2.5) * PoissonPMF(j, 2.0)
		}
	}
	assert.Greater(t, total, 1-1e-3)
}

func TestPoissonOutcomeSumsToOne(t *testing.T) {
	tests := []struct {
		name       string
		home, away float64
	}{
		{"even", 1.3, 1.3},
		{"home favourite", 2.4, 0.7},
		{"away favourite", 0.6, 2.1},
		{"low scoring", 0.2, 0.1},
		{"high scoring", 4.5, 3.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := PoissonOutcome(tt.home, tt.away, 9)
			assert.True(t, out.Valid(), "outcome %+v", out)
			assert.InDelta(t, 1.0, out.Sum(), models.ProbabilityTolerance)
		})
	}
}

func TestHomeAdvantageScenario(t *testing.T) {
	out := PoissonOutcome(1.8*1.2, 1.1, 9)

	assert.Greater(t, out.HomeWin, out.Draw)
	assert.Greater(t, out.HomeWin, out.AwayWin)
	assert.True(t, out.Valid())
}

func TestDerivedMarkets(t *testing.T) {
	matrix := NewScoreMatrix(1.5, 1.2, 9)
	markets := DerivedMarkets(matrix)

	totals := markets[models.MarketOverUnder]
	require.Len(t, totals, 10)
	for _, line := range TotalLines {
		over := totals[models.TotalSelection("Over", line)]
		under := totals[models.TotalSelection("Under", line)]
		assert.InDelta(t, 1.0, over+under, 1e-9)
	}
	assert.Greater(t, totals["Over 0.5"], totals["Over 4.5"])

	btts := markets[models.MarketBTTS]
	assert.InDelta(t, 1.0, btts[models.SelectionYes]+btts[models.SelectionNo], 1e-9)

	top := matrix.TopScores(5)
	require.Len(t, top, 5)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Probability, top[i].Probability)
	}
	assert.Equal(t, "1:1", top[0].Score)
}

func TestPredictInsufficientData(t *testing.T) {
	model := NewModel(DefaultParams())

	_, err := model.Predict(Input{Fixture: upcoming(100, 1, 2)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
	var insufficient *models.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(100), insufficient.FixtureID)
}

func TestPredictLowConfidenceFallback(t *testing.T) {
	model := NewModel(DefaultParams())
	homeHistory := history(finished(1, 1, 3, 2, 0, 7))

	pred, err := model.Predict(Input{Fixture: upcoming(100, 1, 2), HomeHistory: homeHistory})

	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceLow, pred.Confidence)
	assert.True(t, pred.Outcome.Valid())
	// both sides below the minimum use league average rates
	assert.InDelta(t, 1.35*1.2, pred.Outcome.HomeExpectedGoals, 1e-9)
	assert.InDelta(t, 1.35, pred.Outcome.AwayExpectedGoals, 1e-9)
}

func TestPredictHighConfidence(t *testing.T) {
	model := NewModel(DefaultParams())
	homeHistory := history(
		finished(1, 1, 3, 3, 0, 7),
		finished(2, 4, 1, 0, 2, 14),
		finished(3, 1, 5, 2, 1, 21),
		finished(4, 1, 6, 4, 1, 28),
	)
	awayHistory := history(
		finished(5, 2, 3, 0, 2, 7),
		finished(6, 4, 2, 3, 0, 14),
		finished(7, 2, 5, 1, 1, 21),
		finished(8, 6, 2, 2, 0, 28),
	)

	pred, err := model.Predict(Input{
		Fixture:     upcoming(100, 1, 2),
		HomeHistory: homeHistory,
		AwayHistory: awayHistory,
	})

	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceHigh, pred.Confidence)
	assert.True(t, pred.Outcome.Valid())
	assert.True(t, pred.Poisson.Valid())
	assert.True(t, pred.Elo.Valid())
	assert.Greater(t, pred.Outcome.HomeWin, pred.Outcome.AwayWin)
	assert.Equal(t, "WWWW", pred.HomeForm.FormString)
	assert.Equal(t, 12, pred.HomeForm.PointsLast5)
	assert.Equal(t, "LLDL", pred.AwayForm.FormString)
	assert.Len(t, pred.MostLikelyScores, 5)
	assert.True(t, pred.Supports(models.MarketBTTS))
	assert.False(t, pred.Supports("Asian Handicap"))
}

func TestPredictIgnoresFutureResults(t *testing.T) {
	model := NewModel(DefaultParams())
	past := finished(1, 1, 3, 1, 1, 7)
	future := finished(2, 1, 3, 9, 0, -7)

	withFuture, err := model.Predict(Input{
		Fixture:     upcoming(100, 1, 2),
		HomeHistory: []models.Fixture{past, future},
	})
	require.NoError(t, err)
	without, err := model.Predict(Input{
		Fixture:     upcoming(100, 1, 2),
		HomeHistory: []models.Fixture{past},
	})
	require.NoError(t, err)

	assert.Equal(t, without.Outcome, withFuture.Outcome)
	assert.Equal(t, 1, withFuture.HomeForm.Matches)
}

func TestPredictDeterministic(t *testing.T) {
	model := NewModel(DefaultParams())
	in := Input{
		Fixture:     upcoming(100, 1, 2),
		HomeHistory: history(finished(1, 1, 3, 2, 1, 7), finished(2, 4, 1, 1, 1, 14), finished(3, 1, 5, 0, 1, 21)),
		AwayHistory: history(finished(4, 2, 3, 1, 0, 7), finished(5, 6, 2, 2, 2, 14), finished(6, 2, 5, 3, 1, 21)),
		Ratings:     NewRatingSnapshot(DefaultEloParams(), map[int64]float64{1: 1560, 2: 1480}),
	}

	first, err := model.Predict(in)
	require.NoError(t, err)
	second, err := model.Predict(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBlendWeights(t *testing.T) {
	poisson := models.OutcomeProbability{HomeWin: 0.6, Draw: 0.25, AwayWin: 0.15, HomeExpectedGoals: 2.0, AwayExpectedGoals: 0.9}
	elo := models.OutcomeProbability{HomeWin: 0.4, Draw: 0.3, AwayWin: 0.3}

	tests := []struct {
		name     string
		weight   float64
		wantHome float64
	}{
		{"poisson only", 1, 0.6},
		{"elo only", 0, 0.4},
		{"even", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Blend(poisson, elo, tt.weight)
			assert.InDelta(t, tt.wantHome, out.HomeWin, 1e-9)
			assert.True(t, out.Valid())
			assert.Equal(t, 2.0, out.HomeExpectedGoals)
		})
	}
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	bad := DefaultParams()
	bad.PoissonWeight = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.MinMatches = bad.LookbackMatches + 1
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.HomeAdvantage = 0
	assert.Error(t, bad.Validate())
}
