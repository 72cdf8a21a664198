package probability

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/valuebet/internal/models"
)

// TotalLines are the over/under lines derived from the score matrix
var TotalLines = []float64{0.5, 1.5, 2.5, 3.5, 4.5}

// PoissonPMF returns P(X = k) for X ~ Poisson(lambda)
func PoissonPMF(k int, lambda float64) float64 {
	if k < 0 || lambda < 0 {
		return 0
	}
	if lambda == 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	lg, _ := math.Lgamma(float64(k + 1))
	return math.Exp(float64(k)*math.Log(lambda) - lambda - lg)
}

// ScoreMatrix holds joint probabilities P(home = i, away = j) for goals
// 0..maxGoals, renormalized over the truncated range.
type ScoreMatrix struct {
	cells [][]float64
}

// NewScoreMatrix builds the independent-Poisson joint distribution
func NewScoreMatrix(lambdaHome, lambdaAway float64, maxGoals int) ScoreMatrix {
	if maxGoals < 0 {
		maxGoals = 0
	}
	home := make([]float64, maxGoals+1)
	away := make([]float64, maxGoals+1)
	for k := 0; k <= maxGoals; k++ {
		home[k] = PoissonPMF(k, lambdaHome)
		away[k] = PoissonPMF(k, lambdaAway)
	}

	cells := make([][]float64, maxGoals+1)
	total := 0.0
	for i := range cells {
		cells[i] = make([]float64, maxGoals+1)
		for j := range cells[i] {
			cells[i][j] = home[i] * away[j]
			total += cells[i][j]
		}
	}
	if total > 0 {
		for i := range cells {
			for j := range cells[i] {
				cells[i][j] /= total
			}
		}
	}
	return ScoreMatrix{cells: cells}
}

// MaxGoals returns the truncation point
func (m ScoreMatrix) MaxGoals() int {
	return len(m.cells) - 1
}

// At returns P(home = i, away = j)
func (m ScoreMatrix) At(i, j int) float64 {
	if i < 0 || j < 0 || i >= len(m.cells) || j >= len(m.cells) {
		return 0
	}
	return m.cells[i][j]
}

// Outcome sums the matrix into home win, draw and away win
func (m ScoreMatrix) Outcome() (home, draw, away float64) {
	for i := range m.cells {
		for j, p := range m.cells[i] {
			switch {
			case i > j:
				home += p
			case i == j:
				draw += p
			default:
				away += p
			}
		}
	}
	return normalize3(home, draw, away)
}

// OverUnder returns P(total > line) and P(total < line) for a half-goal line
func (m ScoreMatrix) OverUnder(line float64) (over, under float64) {
	for i := range m.cells {
		for j, p := range m.cells[i] {
			if float64(i+j) < line {
				under += p
			}
		}
	}
	under = clamp01(under)
	return 1 - under, under
}

// BothTeamsScore returns P(both score) and its complement
func (m ScoreMatrix) BothTeamsScore() (yes, no float64) {
	for i := 1; i < len(m.cells); i++ {
		for j := 1; j < len(m.cells[i]); j++ {
			yes += m.cells[i][j]
		}
	}
	yes = clamp01(yes)
	return yes, 1 - yes
}

// TopScores returns the n most likely scorelines, ties ordered by home then
// away goals ascending.
func (m ScoreMatrix) TopScores(n int) []models.ScoreProbability {
	type cell struct {
		i, j int
		p    float64
	}
	all := make([]cell, 0, len(m.cells)*len(m.cells))
	for i := range m.cells {
		for j, p := range m.cells[i] {
			all = append(all, cell{i: i, j: j, p: p})
		}
	}
	sort.SliceStable(all, func(a, b int) bool {
		if all[a].p != all[b].p {
			return all[a].p > all[b].p
		}
		if all[a].i != all[b].i {
			return all[a].i < all[b].i
		}
		return all[a].j < all[b].j
	})
	if n > len(all) {
		n = len(all)
	}
	out := make([]models.ScoreProbability, 0, n)
	for _, c := range all[:n] {
		out = append(out, models.ScoreProbability{
			Score:       fmt.Sprintf("%d:%d", c.i, c.j),
			Probability: c.p,
		})
	}
	return out
}

// PoissonOutcome returns the 1X2 triple for given expected goals
func PoissonOutcome(lambdaHome, lambdaAway float64, maxGoals int) models.OutcomeProbability {
	h, d, a := NewScoreMatrix(lambdaHome, lambdaAway, maxGoals).Outcome()
	return models.OutcomeProbability{
		HomeWin:           h,
		Draw:              d,
		AwayWin:           a,
		HomeExpectedGoals: lambdaHome,
		AwayExpectedGoals: lambdaAway,
	}
}

func normalize3(a, b, c float64) (float64, float64, float64) {
	a, b, c = clamp01(a), clamp01(b), clamp01(c)
	sum := a + b + c
	if sum <= 0 {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}
	return a / sum, b / sum, c / sum
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
