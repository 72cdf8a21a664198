package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Market names as published by the odds feed
const (
	MarketMatchWinner = "Match Winner"
	MarketOverUnder   = "Goals Over/Under"
	MarketBTTS        = "Both Teams Score"
)

// Selection labels
const (
	SelectionHome = "Home"
	SelectionDraw = "Draw"
	SelectionAway = "Away"
	SelectionYes  = "Yes"
	SelectionNo   = "No"
)

// OddsQuote is one bookmaker's decimal price for one selection. Quotes are
// append-only: a price change is a new quote with a later ObservedAt.
type OddsQuote struct {
	FixtureID  int64     `db:"fixture_id" json:"fixture_id" validate:"required,gt=0"`
	Market     string    `db:"market" json:"market" validate:"required"`
	Selection  string    `db:"selection" json:"selection" validate:"required"`
	Bookmaker  string    `db:"bookmaker" json:"bookmaker" validate:"required"`
	Odds       float64   `db:"odds" json:"odds" validate:"gt=1"`
	ObservedAt time.Time `db:"observed_at" json:"observed_at" validate:"required"`
}

// RawImpliedProbability returns 1/odds without overround removal
func (q *OddsQuote) RawImpliedProbability() float64 {
	if q.Odds <= 0 {
		return 0
	}
	return 1.0 / q.Odds
}

// MarketKey identifies a set of mutually exclusive selections that are priced
// together. Over/under lines are separate books per line.
type MarketKey struct {
	Market string
	Line   string
}

func (k MarketKey) String() string {
	if k.Line == "" {
		return k.Market
	}
	return k.Market + " " + k.Line
}

// KeyFor returns the market key a selection belongs to
func KeyFor(market, selection string) MarketKey {
	if market == MarketOverUnder {
		if _, line, ok := ParseTotalSelection(selection); ok {
			return MarketKey{Market: market, Line: line}
		}
	}
	return MarketKey{Market: market}
}

// RequiredSelections lists the selections a complete book must price. The
// second return value is false for markets without a known structure.
func RequiredSelections(key MarketKey) ([]string, bool) {
	switch key.Market {
	case MarketMatchWinner:
		return []string{SelectionHome, SelectionDraw, SelectionAway}, true
	case MarketBTTS:
		return []string{SelectionYes, SelectionNo}, true
	case MarketOverUnder:
		if key.Line == "" {
			return nil, false
		}
		return []string{"Over " + key.Line, "Under " + key.Line}, true
	default:
		return nil, false
	}
}

// ParseTotalSelection splits "Over 2.5" into ("Over", "2.5")
func ParseTotalSelection(selection string) (side string, line string, ok bool) {
	parts := strings.Fields(selection)
	if len(parts) != 2 {
		return "", "", false
	}
	if parts[0] != "Over" && parts[0] != "Under" {
		return "", "", false
	}
	if _, err := strconv.ParseFloat(parts[1], 64); err != nil {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// TotalSelection formats an over/under selection label
func TotalSelection(side string, line float64) string {
	return fmt.Sprintf("%s %s", side, strconv.FormatFloat(line, 'f', -1, 64))
}

// ImpliedProbability is the de-vigged market probability for one selection at
// the best available price.
type ImpliedProbability struct {
	FixtureID      int64   `json:"fixture_id"`
	Market         string  `json:"market"`
	Selection      string  `json:"selection"`
	Bookmaker      string  `json:"bookmaker"`
	BestOdds       float64 `json:"best_odds"`
	RawProbability float64 `json:"raw_probability"`
	Probability    float64 `json:"probability"`
	Overround      float64 `json:"overround"`
	BookmakerCount int     `json:"bookmaker_count"`
}
