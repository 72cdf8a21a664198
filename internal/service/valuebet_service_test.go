package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuebet/internal/analysis"
	"github.com/yourusername/valuebet/internal/logger"
	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/probability"
)

func quote(fixtureID int64, market, selection string, price float64) models.OddsQuote {
	return models.OddsQuote{
		FixtureID:  fixtureID,
		Market:     market,
		Selection:  selection,
		Bookmaker:  "Alpha",
		Odds:       price,
		ObservedAt: testNow.Add(-time.Hour),
	}
}

func newTestValueBetService() (*ValueBetService, *RatingService, *memOddsRepo) {
	fixtures := newMemFixtureRepo(
		scheduledFixture(100, 1, 2),
		finishedFixture(11, 1, 5, 3, 0, 28),
		finishedFixture(12, 1, 6, 2, 0, 21),
		finishedFixture(13, 7, 1, 0, 2, 14),
		finishedFixture(14, 1, 8, 4, 1, 7),
		finishedFixture(21, 2, 5, 0, 2, 28),
		finishedFixture(22, 6, 2, 3, 0, 21),
		finishedFixture(23, 2, 7, 1, 1, 14),
		finishedFixture(24, 8, 2, 2, 1, 7),
	)
	quotes := &memOddsRepo{quotes: []models.OddsQuote{
		quote(100, models.MarketMatchWinner, models.SelectionHome, 2.20),
		quote(100, models.MarketMatchWinner, models.SelectionDraw, 3.40),
		quote(100, models.MarketMatchWinner, models.SelectionAway, 3.30),
	}}

	ratings, _ := newTestRatingService()
	analyzer := analysis.NewAnalyzer(
		analysis.NewEngine(probability.NewModel(probability.DefaultParams())),
		fixtures, fixtures, quotes, ratings,
		logger.NewAnalysisLogger(discardLogger()),
		analysis.WithWorkers(2),
		analysis.WithClock(func() time.Time { return testNow }),
	)

	svc := NewValueBetService(analyzer, ratings, NewResultCache(time.Minute, 100), models.SelectionFilter{MinEdge: -1})
	svc.now = func() time.Time { return testNow }
	return svc, ratings, quotes
}

func TestValueBetsCachedPerRatingVersion(t *testing.T) {
	svc, ratings, quotes := newTestValueBetService()
	ctx := context.Background()

	first, err := svc.ValueBets(ctx, svc.DefaultFilter())
	require.NoError(t, err)
	require.NotEmpty(t, first.Candidates)
	assert.Equal(t, 1, quotes.readCount())

	second, err := svc.ValueBets(ctx, svc.DefaultFilter())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, quotes.readCount())

	_, err = ratings.Apply(ctx, finishedFixture(50, 9, 10, 1, 0, 3))
	require.NoError(t, err)

	third, err := svc.ValueBets(ctx, svc.DefaultFilter())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, quotes.readCount())
}

func TestValueBetsFilterChangesKey(t *testing.T) {
	svc, _, quotes := newTestValueBetService()
	ctx := context.Background()

	all, err := svc.ValueBets(ctx, models.SelectionFilter{MinEdge: -1})
	require.NoError(t, err)
	strict, err := svc.ValueBets(ctx, models.SelectionFilter{MinEdge: 0.99})
	require.NoError(t, err)

	assert.Equal(t, 2, quotes.readCount())
	assert.NotEmpty(t, all.Candidates)
	assert.NotNil(t, strict.Candidates)
	assert.Empty(t, strict.Candidates)
}

func TestPredictAndBettingCached(t *testing.T) {
	svc, _, quotes := newTestValueBetService()
	ctx := context.Background()

	pred, err := svc.Predict(ctx, 100)
	require.NoError(t, err)
	assert.True(t, pred.Outcome.Valid())
	again, err := svc.Predict(ctx, 100)
	require.NoError(t, err)
	assert.Same(t, pred, again)

	eval, err := svc.Betting(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, eval.Candidates, 3)
	_, err = svc.Betting(ctx, 100)
	require.NoError(t, err)

	assert.Equal(t, 2, quotes.readCount())

	_, err = svc.Predict(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRefreshRecomputes(t *testing.T) {
	svc, _, quotes := newTestValueBetService()
	ctx := context.Background()

	_, err := svc.ValueBets(ctx, svc.DefaultFilter())
	require.NoError(t, err)

	prediction, err := svc.Predict(ctx, 100)
	require.NoError(t, err)

	run, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Evaluated)
	assert.Equal(t, 2, quotes.readCount())

	again, err := svc.Predict(ctx, 100)
	require.NoError(t, err)
	assert.Same(t, prediction, again)
}

func TestServiceTeamForm(t *testing.T) {
	svc, _, _ := newTestValueBetService()

	form, err := svc.TeamForm(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, form.Matches)

	_, err = svc.TeamForm(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFilterKey(t *testing.T) {
	league := int64(39)
	day := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter models.SelectionFilter
		want   string
	}{
		{"defaults", models.SelectionFilter{MinEdge: 0.05, MaxResults: 20}, "min=0.05;max=20"},
		{"league", models.SelectionFilter{MinEdge: 0.05, LeagueID: &league}, "min=0.05;max=0;league=39"},
		{"date", models.SelectionFilter{Date: &day}, "min=0;max=0;date=2024-03-09"},
		{"markets sorted", models.SelectionFilter{Markets: []string{models.MarketOverUnder, models.MarketBTTS}},
			"min=0;max=0;markets=Both Teams Score,Goals Over/Under"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterKey(tt.filter))
		})
	}
}
