package odds

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuebet/internal/models"
)

var observed = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func quote(market, selection, bookmaker string, odds float64) models.OddsQuote {
	return models.OddsQuote{
		FixtureID:  7,
		Market:     market,
		Selection:  selection,
		Bookmaker:  bookmaker,
		Odds:       odds,
		ObservedAt: observed,
	}
}

func threeBookmaker1X2() []models.OddsQuote {
	return []models.OddsQuote{
		quote(models.MarketMatchWinner, "Home", "Alpha", 2.10),
		quote(models.MarketMatchWinner, "Home", "Bravo", 2.05),
		quote(models.MarketMatchWinner, "Home", "Charlie", 2.20),
		quote(models.MarketMatchWinner, "Draw", "Alpha", 3.40),
		quote(models.MarketMatchWinner, "Draw", "Bravo", 3.50),
		quote(models.MarketMatchWinner, "Draw", "Charlie", 3.30),
		quote(models.MarketMatchWinner, "Away", "Alpha", 3.30),
		quote(models.MarketMatchWinner, "Away", "Bravo", 3.20),
		quote(models.MarketMatchWinner, "Away", "Charlie", 3.25),
	}
}

func TestNormalizeMarketBestPrice(t *testing.T) {
	key := models.MarketKey{Market: models.MarketMatchWinner}

	book, err := NormalizeMarket(7, key, threeBookmaker1X2())
	require.NoError(t, err)

	home, ok := book.Selection("Home")
	require.True(t, ok)
	assert.Equal(t, 2.20, home.BestOdds)
	assert.Equal(t, "Charlie", home.Bookmaker)
	assert.InDelta(t, 0.4545, home.RawProbability, 1e-4)
	assert.Equal(t, 3, home.BookmakerCount)

	charlie := 1/2.20 + 1/3.30 + 1/3.25
	bravo := 1/2.05 + 1/3.50 + 1/3.20
	alpha := 1/2.10 + 1/3.40 + 1/3.30
	assert.InDelta(t, charlie-1, home.Overround, 1e-12)
	assert.InDelta(t, (1/2.20)/charlie, home.Probability, 1e-12)
	assert.InDelta(t, charlie-1, book.Overround, 1e-12)
	assert.Len(t, book.Bookmakers, 3)
	assert.InDelta(t, alpha-1, book.Bookmakers["Alpha"], 1e-12)

	draw, _ := book.Selection("Draw")
	assert.Equal(t, "Bravo", draw.Bookmaker)
	assert.InDelta(t, (1/3.50)/bravo, draw.Probability, 1e-12)
	away, _ := book.Selection("Away")
	assert.Equal(t, "Alpha", away.Bookmaker)
	assert.InDelta(t, (1/3.30)/alpha, away.Probability, 1e-12)
}

func TestNormalizeMarketIgnoresCompositeArbitrage(t *testing.T) {
	key := models.MarketKey{Market: models.MarketMatchWinner}
	quotes := []models.OddsQuote{
		quote(models.MarketMatchWinner, "Home", "Alpha", 2.30),
		quote(models.MarketMatchWinner, "Draw", "Alpha", 3.20),
		quote(models.MarketMatchWinner, "Away", "Alpha", 3.00),
		quote(models.MarketMatchWinner, "Home", "Bravo", 2.10),
		quote(models.MarketMatchWinner, "Draw", "Bravo", 3.80),
		quote(models.MarketMatchWinner, "Away", "Bravo", 3.60),
	}
	require.Less(t, Overround([]float64{2.30, 3.80, 3.60}), 0.0)

	book, err := NormalizeMarket(7, key, quotes)
	require.NoError(t, err)

	home, _ := book.Selection("Home")
	assert.Equal(t, "Alpha", home.Bookmaker)
	assert.InDelta(t, 0.0806, home.Overround, 1e-4)
	assert.InDelta(t, 0.4023, home.Probability, 1e-4)

	draw, _ := book.Selection("Draw")
	assert.Equal(t, "Bravo", draw.Bookmaker)
	assert.InDelta(t, 0.0171, draw.Overround, 1e-4)

	assert.InDelta(t, 0.0171, book.Overround, 1e-4)
	for _, s := range book.Selections {
		assert.Less(t, s.Probability, s.RawProbability, s.Selection)
	}
}

func TestNormalizeMarketCompositeFallback(t *testing.T) {
	key := models.MarketKey{Market: models.MarketMatchWinner}

	t.Run("no complete bookmaker", func(t *testing.T) {
		book, err := NormalizeMarket(7, key, []models.OddsQuote{
			quote(models.MarketMatchWinner, "Home", "Alpha", 2.50),
			quote(models.MarketMatchWinner, "Draw", "Alpha", 3.40),
			quote(models.MarketMatchWinner, "Home", "Bravo", 2.40),
			quote(models.MarketMatchWinner, "Away", "Bravo", 3.00),
		})
		require.NoError(t, err)

		composite := 1/2.50 + 1/3.40 + 1/3.00
		assert.Empty(t, book.Bookmakers)
		assert.InDelta(t, composite-1, book.Overround, 1e-12)
		sum := 0.0
		for _, s := range book.Selections {
			assert.InDelta(t, s.RawProbability/composite, s.Probability, 1e-12)
			sum += s.Probability
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	})

	t.Run("negative composite margin", func(t *testing.T) {
		book, err := NormalizeMarket(7, key, []models.OddsQuote{
			quote(models.MarketMatchWinner, "Home", "Alpha", 2.60),
			quote(models.MarketMatchWinner, "Draw", "Alpha", 4.00),
			quote(models.MarketMatchWinner, "Away", "Bravo", 3.50),
		})
		require.NoError(t, err)

		assert.Equal(t, 0.0, book.Overround)
		for _, s := range book.Selections {
			assert.Equal(t, s.RawProbability, s.Probability)
		}
	})

	t.Run("best price from a partial bookmaker", func(t *testing.T) {
		book, err := NormalizeMarket(7, key, []models.OddsQuote{
			quote(models.MarketMatchWinner, "Home", "Alpha", 2.10),
			quote(models.MarketMatchWinner, "Draw", "Alpha", 3.40),
			quote(models.MarketMatchWinner, "Away", "Alpha", 3.30),
			quote(models.MarketMatchWinner, "Away", "Charlie", 3.50),
		})
		require.NoError(t, err)

		home, _ := book.Selection("Home")
		assert.InDelta(t, (1/2.10)/(1/2.10+1/3.40+1/3.30), home.Probability, 1e-12)
		away, _ := book.Selection("Away")
		assert.Equal(t, "Charlie", away.Bookmaker)
		assert.InDelta(t, (1/3.50)/(1/2.10+1/3.40+1/3.50), away.Probability, 1e-12)
	})
}

func TestNormalizeMarketSumsToOne(t *testing.T) {
	tests := []struct {
		name   string
		key    models.MarketKey
		quotes []models.OddsQuote
	}{
		{
			name: "1x2 best prices from one bookmaker",
			key:  models.MarketKey{Market: models.MarketMatchWinner},
			quotes: []models.OddsQuote{
				quote(models.MarketMatchWinner, "Home", "Alpha", 2.20),
				quote(models.MarketMatchWinner, "Draw", "Alpha", 3.50),
				quote(models.MarketMatchWinner, "Away", "Alpha", 3.30),
				quote(models.MarketMatchWinner, "Home", "Bravo", 2.10),
				quote(models.MarketMatchWinner, "Draw", "Bravo", 3.40),
				quote(models.MarketMatchWinner, "Away", "Bravo", 3.20),
			},
		},
		{
			name: "btts",
			key:  models.MarketKey{Market: models.MarketBTTS},
			quotes: []models.OddsQuote{
				quote(models.MarketBTTS, "Yes", "Alpha", 1.80),
				quote(models.MarketBTTS, "No", "Alpha", 1.95),
			},
		},
		{
			name: "over under",
			key:  models.MarketKey{Market: models.MarketOverUnder, Line: "2.5"},
			quotes: []models.OddsQuote{
				quote(models.MarketOverUnder, "Over 2.5", "Alpha", 1.90),
				quote(models.MarketOverUnder, "Under 2.5", "Bravo", 1.92),
			},
		},
		{
			name: "unknown structure",
			key:  models.MarketKey{Market: "Double Chance"},
			quotes: []models.OddsQuote{
				quote("Double Chance", "Home/Draw", "Alpha", 1.30),
				quote("Double Chance", "Home/Away", "Alpha", 1.35),
				quote("Double Chance", "Draw/Away", "Alpha", 1.60),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, err := NormalizeMarket(7, tt.key, tt.quotes)
			require.NoError(t, err)

			sum := 0.0
			for _, s := range book.Selections {
				sum += s.Probability
				if book.Overround > 0 {
					assert.Less(t, s.Probability, s.RawProbability)
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		})
	}
}

func TestNormalizeMarketIncomplete(t *testing.T) {
	tests := []struct {
		name    string
		key     models.MarketKey
		quotes  []models.OddsQuote
		missing []string
	}{
		{
			name:    "only home priced",
			key:     models.MarketKey{Market: models.MarketMatchWinner},
			quotes:  []models.OddsQuote{quote(models.MarketMatchWinner, "Home", "Alpha", 2.0)},
			missing: []string{"Draw", "Away"},
		},
		{
			name:    "single unknown selection",
			key:     models.MarketKey{Market: "Player Props"},
			quotes:  []models.OddsQuote{quote("Player Props", "Scorer", "Alpha", 4.0)},
			missing: []string{"<other selections>"},
		},
		{
			name:    "odds at one are unpriced",
			key:     models.MarketKey{Market: models.MarketBTTS},
			quotes:  []models.OddsQuote{quote(models.MarketBTTS, "Yes", "Alpha", 1.8), quote(models.MarketBTTS, "No", "Alpha", 1.0)},
			missing: []string{"No"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, err := NormalizeMarket(7, tt.key, tt.quotes)
			assert.Nil(t, book)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidMarket))
			var invalid *models.InvalidMarketError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.missing, invalid.Missing)
		})
	}
}

func TestLatestQuotesAsOf(t *testing.T) {
	early := quote(models.MarketMatchWinner, "Home", "Alpha", 2.00)
	mid := early
	mid.Odds = 2.10
	mid.ObservedAt = observed.Add(time.Hour)
	late := early
	late.Odds = 2.30
	late.ObservedAt = observed.Add(2 * time.Hour)

	quotes := []models.OddsQuote{late, early, mid}

	got := LatestQuotes(quotes, observed.Add(90*time.Minute))
	require.Len(t, got, 1)
	assert.Equal(t, 2.10, got[0].Odds)

	got = LatestQuotes(quotes, time.Time{})
	require.Len(t, got, 1)
	assert.Equal(t, 2.30, got[0].Odds)

	got = LatestQuotes(quotes, observed.Add(-time.Minute))
	assert.Empty(t, got)
}

func TestNormalizeFixtureSkipsInvalidMarkets(t *testing.T) {
	quotes := append(threeBookmaker1X2(),
		quote(models.MarketOverUnder, "Over 2.5", "Alpha", 1.9),
		quote(models.MarketOverUnder, "Under 2.5", "Alpha", 1.9),
		quote(models.MarketOverUnder, "Over 3.5", "Alpha", 2.8),
		quote(models.MarketBTTS, "Yes", "Alpha", 1.7),
	)
	other := quote(models.MarketBTTS, "No", "Alpha", 2.0)
	other.FixtureID = 8
	quotes = append(quotes, other)

	res := NormalizeFixture(7, quotes, time.Time{})

	require.Len(t, res.Books, 2)
	assert.Equal(t, models.MarketOverUnder, res.Books[0].Key.Market)
	assert.Equal(t, "2.5", res.Books[0].Key.Line)
	assert.Equal(t, models.MarketMatchWinner, res.Books[1].Key.Market)
	assert.Len(t, res.Skipped, 2)
	for _, err := range res.Skipped {
		assert.ErrorIs(t, err, models.ErrInvalidMarket)
	}
}

func TestOverround(t *testing.T) {
	assert.InDelta(t, 0.0, Overround([]float64{2.0, 2.0}), 1e-12)
	assert.InDelta(t, 1/1.9+1/1.9-1, Overround([]float64{1.9, 1.9}), 1e-12)
}
