package backtest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/yourusername/valuebet/internal/models"
)

// logLossFloor keeps log loss finite when the model gives an outcome zero mass
const logLossFloor = 1e-15

// Metrics summarizes forecast calibration and flat-stake betting results
type Metrics struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	Evaluated      int       `json:"evaluated"`
	Skipped        int       `json:"skipped"`
	BrierScore     float64   `json:"brier_score"`
	LogLoss        float64   `json:"log_loss"`
	HitRate        float64   `json:"hit_rate"`
	MeanConfidence float64   `json:"mean_confidence"`
	TotalBets      int       `json:"total_bets"`
	WinningBets    int       `json:"winning_bets"`
	LosingBets     int       `json:"losing_bets"`
	VoidBets       int       `json:"void_bets"`
	Staked         float64   `json:"staked"`
	Profit         float64   `json:"profit"`
	ROI            float64   `json:"roi"`
	WinRate        float64   `json:"win_rate"`
	ProfitFactor   float64   `json:"profit_factor"`
	AverageOdds    float64   `json:"average_odds"`
	AverageEdge    float64   `json:"average_edge"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	ParameterHash  string    `json:"parameter_hash"`
}

// CalculateMetrics calculates metrics from backtest state
func CalculateMetrics(state *State, cfg Config) Metrics {
	metrics := Metrics{
		From:          cfg.From,
		To:            cfg.To,
		ParameterHash: HashParameters(cfg),
	}
	if state == nil {
		return metrics
	}

	metrics.Evaluated = len(state.Predictions)
	metrics.Skipped = state.SkippedTotal()
	if n := float64(len(state.Predictions)); n > 0 {
		var brier, logLoss, confidence float64
		hits := 0
		for _, p := range state.Predictions {
			brier += BrierScore(p.Outcome, p.Actual)
			logLoss += LogLoss(p.Outcome, p.Actual)
			confidence += maxProbability(p.Outcome)
			if PredictedResult(p.Outcome) == p.Actual {
				hits++
			}
		}
		metrics.BrierScore = brier / n
		metrics.LogLoss = logLoss / n
		metrics.HitRate = float64(hits) / n
		metrics.MeanConfidence = confidence / n
	}

	metrics.TotalBets = len(state.Bets)
	var oddsSum, edgeSum float64
	for _, bet := range state.Bets {
		switch {
		case bet.Void:
			metrics.VoidBets++
			continue
		case bet.Won:
			metrics.WinningBets++
		default:
			metrics.LosingBets++
		}
		metrics.Staked++
		metrics.Profit += bet.Profit
		oddsSum += bet.Odds
		edgeSum += bet.Edge
	}
	if metrics.Staked > 0 {
		metrics.ROI = metrics.Profit / metrics.Staked
		metrics.WinRate = float64(metrics.WinningBets) / metrics.Staked
		metrics.AverageOdds = oddsSum / metrics.Staked
		metrics.AverageEdge = edgeSum / metrics.Staked
	}
	metrics.ProfitFactor = calculateProfitFactor(state.Bets)
	metrics.MaxDrawdown = state.EquityCurve.MaxDrawdown()
	return metrics
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// BrierScore is the squared error of the 1X2 triple against the result,
// summed over the three outcomes. 0 is perfect and 2 is the worst.
func BrierScore(p models.OutcomeProbability, actual models.MatchResult) float64 {
	h, d, a := indicator(actual)
	return sq(p.HomeWin-h) + sq(p.Draw-d) + sq(p.AwayWin-a)
}

// LogLoss is the negative log of the probability given to the result
func LogLoss(p models.OutcomeProbability, actual models.MatchResult) float64 {
	var prob float64
	switch actual {
	case models.ResultHomeWin:
		prob = p.HomeWin
	case models.ResultDraw:
		prob = p.Draw
	case models.ResultAwayWin:
		prob = p.AwayWin
	}
	return -math.Log(math.Max(prob, logLossFloor))
}

// PredictedResult returns the most likely outcome. Ties go to home, then draw.
func PredictedResult(p models.OutcomeProbability) models.MatchResult {
	switch {
	case p.HomeWin >= p.Draw && p.HomeWin >= p.AwayWin:
		return models.ResultHomeWin
	case p.Draw >= p.AwayWin:
		return models.ResultDraw
	default:
		return models.ResultAwayWin
	}
}

func maxProbability(p models.OutcomeProbability) float64 {
	return math.Max(p.HomeWin, math.Max(p.Draw, p.AwayWin))
}

func indicator(actual models.MatchResult) (home, draw, away float64) {
	switch actual {
	case models.ResultHomeWin:
		return 1, 0, 0
	case models.ResultDraw:
		return 0, 1, 0
	case models.ResultAwayWin:
		return 0, 0, 1
	}
	return 0, 0, 0
}

func sq(v float64) float64 {
	return v * v
}

func calculateProfitFactor(bets []SettledBet) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, bet := range bets {
		if bet.Profit > 0 {
			grossProfit += bet.Profit
		} else {
			grossLoss += math.Abs(bet.Profit)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

// HashParameters creates a stable hash of the model parameters and filter
// so runs with the same settings can be grouped
func HashParameters(cfg Config) string {
	data, _ := json.Marshal(struct {
		Model   any      `json:"model"`
		MinEdge float64  `json:"min_edge"`
		Markets []string `json:"markets"`
	}{cfg.Model, cfg.MinEdge, cfg.Markets})
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
