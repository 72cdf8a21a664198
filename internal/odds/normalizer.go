// Package odds turns raw bookmaker quotes into de-vigged implied
// probabilities at the best available price.
package odds

import (
	"math"
	"sort"
	"time"

	"github.com/yourusername/valuebet/internal/models"
)

// minSelections is the smallest market that can carry an overround
const minSelections = 2

// MarketBook is the normalized best-price book for one market. Bookmakers
// maps every bookmaker that priced the whole market to its overround.
// Overround is the tightest of those margins, or the margin of the composite
// best-price book when no single bookmaker priced every selection.
type MarketBook struct {
	Key        models.MarketKey
	Overround  float64
	Bookmakers map[string]float64
	Selections []models.ImpliedProbability
}

// Selection returns the implied probability for a selection label
func (b *MarketBook) Selection(label string) (models.ImpliedProbability, bool) {
	for _, s := range b.Selections {
		if s.Selection == label {
			return s, true
		}
	}
	return models.ImpliedProbability{}, false
}

type quoteKey struct {
	market    string
	selection string
	bookmaker string
}

// LatestQuotes keeps the most recent quote per (market, selection, bookmaker)
// observed at or before asOf. A zero asOf keeps the latest overall. Quotes
// with odds not above 1.0 are dropped. The result is ordered by market,
// selection, bookmaker.
func LatestQuotes(quotes []models.OddsQuote, asOf time.Time) []models.OddsQuote {
	latest := make(map[quoteKey]models.OddsQuote, len(quotes))
	for _, q := range quotes {
		if q.Odds <= 1.0 {
			continue
		}
		if !asOf.IsZero() && q.ObservedAt.After(asOf) {
			continue
		}
		k := quoteKey{market: q.Market, selection: q.Selection, bookmaker: q.Bookmaker}
		if cur, ok := latest[k]; !ok || q.ObservedAt.After(cur.ObservedAt) {
			latest[k] = q
		}
	}

	out := make([]models.OddsQuote, 0, len(latest))
	for _, q := range latest {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Market != out[j].Market {
			return out[i].Market < out[j].Market
		}
		if out[i].Selection != out[j].Selection {
			return out[i].Selection < out[j].Selection
		}
		return out[i].Bookmaker < out[j].Bookmaker
	})
	return out
}

// NormalizeMarket builds the best-price book for one market. quotes must all
// belong to key. For each selection the highest odds across bookmakers wins
// (ties go to the bookmaker name that sorts first). The selection's implied
// probability is that bookmaker's own de-vigged value, raw/(1+overround) over
// its complete book. When the best-price bookmaker did not price the whole
// market, the composite book of best prices is de-vigged instead, with a
// negative composite margin treated as zero. An incomplete market yields an
// InvalidMarketError.
func NormalizeMarket(fixtureID int64, key models.MarketKey, quotes []models.OddsQuote) (*MarketBook, error) {
	type best struct {
		quote      models.OddsQuote
		bookmakers map[string]struct{}
	}
	bySelection := make(map[string]*best)
	byBookmaker := make(map[string]map[string]float64)
	for _, q := range quotes {
		if q.Odds <= 1.0 {
			continue
		}
		prices, ok := byBookmaker[q.Bookmaker]
		if !ok {
			prices = make(map[string]float64)
			byBookmaker[q.Bookmaker] = prices
		}
		prices[q.Selection] = q.Odds

		b, ok := bySelection[q.Selection]
		if !ok {
			bySelection[q.Selection] = &best{quote: q, bookmakers: map[string]struct{}{q.Bookmaker: {}}}
			continue
		}
		b.bookmakers[q.Bookmaker] = struct{}{}
		if q.Odds > b.quote.Odds || (q.Odds == b.quote.Odds && q.Bookmaker < b.quote.Bookmaker) {
			b.quote = q
		}
	}

	labels := make([]string, 0, len(bySelection))
	if required, known := models.RequiredSelections(key); known {
		var missing []string
		for _, sel := range required {
			if _, ok := bySelection[sel]; !ok {
				missing = append(missing, sel)
			}
		}
		if len(missing) > 0 {
			return nil, &models.InvalidMarketError{FixtureID: fixtureID, Market: key.String(), Missing: missing}
		}
		labels = append(labels, required...)
	} else {
		for sel := range bySelection {
			labels = append(labels, sel)
		}
		sort.Strings(labels)
		if len(labels) < minSelections {
			return nil, &models.InvalidMarketError{FixtureID: fixtureID, Market: key.String(), Missing: []string{"<other selections>"}}
		}
	}

	book := &MarketBook{
		Key:        key,
		Bookmakers: make(map[string]float64, len(byBookmaker)),
		Selections: make([]models.ImpliedProbability, 0, len(labels)),
	}
	for bookmaker, prices := range byBookmaker {
		if overround, ok := bookOverround(prices, labels); ok {
			book.Bookmakers[bookmaker] = overround
		}
	}

	bestPrices := make([]float64, 0, len(labels))
	for _, sel := range labels {
		bestPrices = append(bestPrices, bySelection[sel].quote.Odds)
	}
	composite := math.Max(Overround(bestPrices), 0)

	if len(book.Bookmakers) == 0 {
		book.Overround = composite
	} else {
		book.Overround = math.Inf(1)
		for _, overround := range book.Bookmakers {
			book.Overround = math.Min(book.Overround, overround)
		}
	}

	for _, sel := range labels {
		b := bySelection[sel]
		overround, own := book.Bookmakers[b.quote.Bookmaker]
		if !own {
			overround = composite
		}
		raw := b.quote.RawImpliedProbability()
		book.Selections = append(book.Selections, models.ImpliedProbability{
			FixtureID:      fixtureID,
			Market:         b.quote.Market,
			Selection:      sel,
			Bookmaker:      b.quote.Bookmaker,
			BestOdds:       b.quote.Odds,
			RawProbability: raw,
			Probability:    raw / (1.0 + overround),
			Overround:      overround,
			BookmakerCount: len(b.bookmakers),
		})
	}
	return book, nil
}

// bookOverround returns one bookmaker's margin when it priced every label
func bookOverround(prices map[string]float64, labels []string) (float64, bool) {
	odds := make([]float64, 0, len(labels))
	for _, sel := range labels {
		p, ok := prices[sel]
		if !ok {
			return 0, false
		}
		odds = append(odds, p)
	}
	return Overround(odds), true
}

// Result holds the valid books of a fixture and the markets that were skipped
type Result struct {
	Books   []*MarketBook
	Skipped []error
}

// NormalizeFixture groups the latest quotes at asOf by market and normalizes
// each. Invalid markets are skipped and reported in Result.Skipped.
func NormalizeFixture(fixtureID int64, quotes []models.OddsQuote, asOf time.Time) Result {
	grouped := make(map[models.MarketKey][]models.OddsQuote)
	for _, q := range LatestQuotes(quotes, asOf) {
		if q.FixtureID != fixtureID {
			continue
		}
		key := models.KeyFor(q.Market, q.Selection)
		grouped[key] = append(grouped[key], q)
	}

	keys := make([]models.MarketKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Market != keys[j].Market {
			return keys[i].Market < keys[j].Market
		}
		return keys[i].Line < keys[j].Line
	})

	var res Result
	for _, k := range keys {
		book, err := NormalizeMarket(fixtureID, k, grouped[k])
		if err != nil {
			res.Skipped = append(res.Skipped, err)
			continue
		}
		res.Books = append(res.Books, book)
	}
	return res
}

// Overround returns the bookmaker margin of a set of decimal odds
func Overround(prices []float64) float64 {
	sum := 0.0
	for _, p := range prices {
		if p > 0 {
			sum += 1.0 / p
		}
	}
	return sum - 1.0
}
