package service

import (
	"strconv"
	"strings"

	"github.com/yourusername/valuebet/internal/datasource"
	"github.com/yourusername/valuebet/internal/models"
)

// DataNormalizer maps provider naming onto the market and selection labels
// the probability model prices
type DataNormalizer struct {
	marketNameMap    map[string]string
	selectionNameMap map[string]map[string]string
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer() *DataNormalizer {
	return &DataNormalizer{
		marketNameMap:    buildMarketNameMap(),
		selectionNameMap: buildSelectionNameMap(),
	}
}

// NormalizeFixture tidies team and league names
func (n *DataNormalizer) NormalizeFixture(f *models.Fixture) {
	f.HomeTeam = sanitizeName(f.HomeTeam)
	f.AwayTeam = sanitizeName(f.AwayTeam)
	f.LeagueName = sanitizeName(f.LeagueName)
}

// NormalizeOdds converts provider odds to a quote with canonical labels
func (n *DataNormalizer) NormalizeOdds(d datasource.OddsData) models.OddsQuote {
	q := d.ToQuote()
	q.Bookmaker = sanitizeName(q.Bookmaker)
	q.Market = n.normalizeMarket(q.Market)
	q.Selection = n.normalizeSelection(q.Market, q.Selection)
	return q
}

func (n *DataNormalizer) normalizeMarket(market string) string {
	market = sanitizeName(market)
	if canonical, ok := n.marketNameMap[strings.ToLower(market)]; ok {
		return canonical
	}
	return market
}

func (n *DataNormalizer) normalizeSelection(market, selection string) string {
	selection = sanitizeName(selection)
	if byMarket, ok := n.selectionNameMap[market]; ok {
		if canonical, ok := byMarket[strings.ToLower(selection)]; ok {
			return canonical
		}
	}
	if market == models.MarketOverUnder {
		if side, line, ok := models.ParseTotalSelection(capitalize(selection)); ok {
			value, _ := strconv.ParseFloat(line, 64)
			return models.TotalSelection(side, value)
		}
	}
	return selection
}

// sanitizeName collapses whitespace
func sanitizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func buildMarketNameMap() map[string]string {
	return map[string]string{
		"match winner":        models.MarketMatchWinner,
		"1x2":                 models.MarketMatchWinner,
		"full time result":    models.MarketMatchWinner,
		"goals over/under":    models.MarketOverUnder,
		"over/under":          models.MarketOverUnder,
		"total goals":         models.MarketOverUnder,
		"both teams score":    models.MarketBTTS,
		"both teams to score": models.MarketBTTS,
		"btts":                models.MarketBTTS,
	}
}

func buildSelectionNameMap() map[string]map[string]string {
	return map[string]map[string]string{
		models.MarketMatchWinner: {
			"home": models.SelectionHome,
			"1":    models.SelectionHome,
			"draw": models.SelectionDraw,
			"x":    models.SelectionDraw,
			"away": models.SelectionAway,
			"2":    models.SelectionAway,
		},
		models.MarketBTTS: {
			"yes": models.SelectionYes,
			"no":  models.SelectionNo,
		},
	}
}
