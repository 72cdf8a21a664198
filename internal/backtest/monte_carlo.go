package backtest

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// MonteCarloConfig configures the bootstrap of settled bets
type MonteCarloConfig struct {
	Iterations int
	Seed       int64
}

// MonteCarloResult describes the ROI distribution obtained by resampling the
// settled bets with replacement
type MonteCarloResult struct {
	Iterations          int                   `json:"iterations"`
	MeanROI             float64               `json:"mean_roi"`
	StdROI              float64               `json:"std_roi"`
	ProbabilityOfProfit float64               `json:"probability_of_profit"`
	ConfidenceIntervals map[string][2]float64 `json:"confidence_intervals"`
}

// RunMonteCarlo bootstraps flat-stake ROI. Void bets are excluded.
func RunMonteCarlo(bets []SettledBet, cfg MonteCarloConfig) MonteCarloResult {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	profits := make([]float64, 0, len(bets))
	for _, bet := range bets {
		if !bet.Void {
			profits = append(profits, bet.Profit)
		}
	}
	result := MonteCarloResult{Iterations: cfg.Iterations, ConfidenceIntervals: map[string][2]float64{}}
	if len(profits) == 0 {
		return result
	}

	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, cfg.Iterations)
	for i := range distribution {
		total := 0.0
		for range profits {
			total += profits[rng.Intn(len(profits))]
		}
		distribution[i] = total / float64(len(profits))
	}
	sort.Float64s(distribution)

	result.MeanROI, result.StdROI = meanStd(distribution)
	result.ProbabilityOfProfit = probabilityAbove(distribution, 0)
	result.ConfidenceIntervals = CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95})
	return result
}

// CalculateConfidenceIntervals returns the central interval of a sorted
// distribution for each level
func CalculateConfidenceIntervals(sorted []float64, levels []float64) map[string][2]float64 {
	results := make(map[string][2]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		results[formatPercent(level)] = [2]float64{percentile(sorted, p), percentile(sorted, 1.0-p)}
	}
	return results
}

// ToJSON exports the result to JSON
func (m MonteCarloResult) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// percentile expects sorted values
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
