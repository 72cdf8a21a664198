package analysis

import (
	"sort"
	"time"

	"github.com/yourusername/valuebet/internal/models"
)

// Less orders candidates by edge descending, then expected value descending,
// then fixture id ascending. Remaining ties fall back to market, selection
// and bookmaker so the order is total.
func Less(a, b *models.ValueBetCandidate) bool {
	if a.Edge != b.Edge {
		return a.Edge > b.Edge
	}
	if a.ExpectedValue != b.ExpectedValue {
		return a.ExpectedValue > b.ExpectedValue
	}
	if a.FixtureID != b.FixtureID {
		return a.FixtureID < b.FixtureID
	}
	if a.Market != b.Market {
		return a.Market < b.Market
	}
	if a.Selection != b.Selection {
		return a.Selection < b.Selection
	}
	return a.Bookmaker < b.Bookmaker
}

// Sort orders candidates in place and assigns 1-based ranks
func Sort(candidates []models.ValueBetCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return Less(&candidates[i], &candidates[j])
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
}

// Select filters, sorts and truncates candidates. The input is not modified.
// MaxResults <= 0 means no cap. The result is never nil, so an empty
// selection is distinguishable from a failed evaluation.
func Select(candidates []models.ValueBetCandidate, filter models.SelectionFilter) []models.ValueBetCandidate {
	var markets map[string]struct{}
	if len(filter.Markets) > 0 {
		markets = make(map[string]struct{}, len(filter.Markets))
		for _, m := range filter.Markets {
			markets[m] = struct{}{}
		}
	}

	out := make([]models.ValueBetCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !matches(&c, filter, markets) {
			continue
		}
		out = append(out, c)
	}

	Sort(out)
	if filter.MaxResults > 0 && len(out) > filter.MaxResults {
		out = out[:filter.MaxResults]
	}
	return out
}

func matches(c *models.ValueBetCandidate, filter models.SelectionFilter, markets map[string]struct{}) bool {
	if c.Edge < filter.MinEdge {
		return false
	}
	if filter.LeagueID != nil && c.LeagueID != *filter.LeagueID {
		return false
	}
	if filter.Date != nil && !sameDay(c, *filter.Date) {
		return false
	}
	if markets != nil {
		if _, ok := markets[c.Market]; !ok {
			return false
		}
	}
	return true
}

func sameDay(c *models.ValueBetCandidate, date time.Time) bool {
	y, m, d := date.UTC().Date()
	return c.MatchDate().Equal(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
