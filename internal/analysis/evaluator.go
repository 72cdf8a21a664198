// Package analysis compares model probabilities with market prices and
// ranks the resulting value-bet candidates.
package analysis

import (
	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/odds"
)

// Edge returns model probability minus implied probability
func Edge(modelProbability, impliedProbability float64) float64 {
	return modelProbability - impliedProbability
}

// ExpectedValue returns the expected profit per unit stake at decimal odds
func ExpectedValue(modelProbability, decimalOdds float64) float64 {
	return modelProbability*decimalOdds - 1
}

// EvaluateEdges produces one candidate per priced selection the prediction
// covers. Books the prediction cannot price in full, such as an unmodelled
// market or an over/under line outside the model's range, are excluded and
// reported as UnsupportedMarketError values. Output follows book order, then
// selection order within each book.
func EvaluateEdges(fixture models.Fixture, prediction *models.Prediction, books []*odds.MarketBook) ([]models.ValueBetCandidate, []error) {
	var (
		candidates  []models.ValueBetCandidate
		unsupported []error
	)
	for _, book := range books {
		if !prediction.Supports(book.Key.Market) {
			unsupported = append(unsupported, &models.UnsupportedMarketError{Market: book.Key.String()})
			continue
		}
		priced := make([]models.ValueBetCandidate, 0, len(book.Selections))
		for _, implied := range book.Selections {
			estimated, ok := prediction.Probability(book.Key.Market, implied.Selection)
			if !ok {
				break
			}
			priced = append(priced, models.ValueBetCandidate{
				FixtureID:            fixture.ID,
				LeagueID:             fixture.LeagueID,
				LeagueName:           fixture.LeagueName,
				HomeTeam:             fixture.HomeTeam,
				AwayTeam:             fixture.AwayTeam,
				Kickoff:              fixture.Kickoff,
				Market:               implied.Market,
				Selection:            implied.Selection,
				Bookmaker:            implied.Bookmaker,
				Odds:                 implied.BestOdds,
				ImpliedProbability:   implied.Probability,
				EstimatedProbability: estimated,
				Edge:                 Edge(estimated, implied.Probability),
				ExpectedValue:        ExpectedValue(estimated, implied.BestOdds),
				Confidence:           prediction.Confidence,
			})
		}
		if len(priced) < len(book.Selections) {
			unsupported = append(unsupported, &models.UnsupportedMarketError{Market: book.Key.String()})
			continue
		}
		candidates = append(candidates, priced...)
	}
	return candidates, unsupported
}
