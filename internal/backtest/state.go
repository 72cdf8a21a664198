package backtest

import (
	"time"

	"github.com/yourusername/valuebet/internal/models"
)

// PredictionRecord pairs a pre-kickoff 1X2 forecast with the final result
type PredictionRecord struct {
	FixtureID      int64                     `json:"fixture_id"`
	Kickoff        time.Time                 `json:"kickoff"`
	Outcome        models.OutcomeProbability `json:"outcome"`
	Confidence     models.Confidence         `json:"confidence"`
	Actual         models.MatchResult        `json:"actual"`
	RatingsVersion uint64                    `json:"ratings_version"`
}

// SettledBet is a selected candidate settled at a flat one-unit stake
type SettledBet struct {
	models.ValueBetCandidate
	Won    bool    `json:"won"`
	Void   bool    `json:"void"`
	Profit float64 `json:"profit"`
}

// State tracks the replay as it walks forward
type State struct {
	Predictions []PredictionRecord
	Bets        []SettledBet
	Skipped     map[string]int
	Profit      float64
	PeakProfit  float64
	EquityCurve EquityCurve
}

// NewState initializes backtest state
func NewState() *State {
	return &State{
		Predictions: []PredictionRecord{},
		Bets:        []SettledBet{},
		Skipped:     make(map[string]int),
		EquityCurve: EquityCurve{},
	}
}

// RecordPrediction stores one scored forecast
func (s *State) RecordPrediction(p PredictionRecord) {
	s.Predictions = append(s.Predictions, p)
}

// RecordSkipped counts a fixture that could not be evaluated
func (s *State) RecordSkipped(reason string) {
	s.Skipped[reason]++
}

// RecordBet adds a settled bet and extends the equity curve
func (s *State) RecordBet(bet SettledBet, at time.Time) {
	s.Bets = append(s.Bets, bet)
	s.Profit += bet.Profit
	if s.Profit > s.PeakProfit {
		s.PeakProfit = s.Profit
	}
	s.RecordEquityPoint(at, s.Profit, bet.Profit)
}

// GetCurrentDrawdown returns the units lost since the profit peak
func (s *State) GetCurrentDrawdown() float64 {
	return s.PeakProfit - s.Profit
}

// RecordEquityPoint adds an equity point to the curve
func (s *State) RecordEquityPoint(t time.Time, value, pnl float64) {
	s.EquityCurve = append(s.EquityCurve, EquityPoint{
		Time:     t,
		Value:    value,
		Drawdown: s.PeakProfit - value,
		PnL:      pnl,
	})
}

// SkippedTotal returns the number of fixtures that were not scored
func (s *State) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}
