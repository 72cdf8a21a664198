package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GenerateConsoleReport formats a run for terminal output
func GenerateConsoleReport(result *Result) string {
	m := result.Metrics
	var builder strings.Builder
	builder.WriteString("Calibration Backtest\n")
	builder.WriteString("====================\n")
	builder.WriteString(fmt.Sprintf("Window: %s to %s\n", m.From.Format("2006-01-02"), m.To.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Parameters: %s\n", m.ParameterHash))
	builder.WriteString(fmt.Sprintf("Fixtures Scored: %d (skipped %d)\n", m.Evaluated, m.Skipped))
	if result.State != nil && len(result.State.Skipped) > 0 {
		reasons := make([]string, 0, len(result.State.Skipped))
		for reason, n := range result.State.Skipped {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}
		sort.Strings(reasons)
		builder.WriteString(fmt.Sprintf("Skipped By Reason: %s\n", strings.Join(reasons, " ")))
	}
	builder.WriteString(fmt.Sprintf("Brier Score: %.4f\n", m.BrierScore))
	builder.WriteString(fmt.Sprintf("Log Loss: %.4f\n", m.LogLoss))
	builder.WriteString(fmt.Sprintf("Hit Rate: %.2f%%\n", m.HitRate*100))
	builder.WriteString(fmt.Sprintf("Mean Confidence: %.2f%%\n", m.MeanConfidence*100))
	builder.WriteString(fmt.Sprintf("Bets: %d (won %d, lost %d, void %d)\n", m.TotalBets, m.WinningBets, m.LosingBets, m.VoidBets))
	builder.WriteString(fmt.Sprintf("Profit: %+.2f units\n", m.Profit))
	builder.WriteString(fmt.Sprintf("ROI: %.2f%%\n", m.ROI*100))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", m.ProfitFactor))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f units\n", m.MaxDrawdown))
	if mc := result.MonteCarlo; mc != nil {
		if ci, ok := mc.ConfidenceIntervals["95%"]; ok {
			builder.WriteString(fmt.Sprintf("ROI 95%% Interval: %.2f%% to %.2f%%\n", ci[0]*100, ci[1]*100))
		}
		builder.WriteString(fmt.Sprintf("Probability Of Profit: %.2f%%\n", mc.ProbabilityOfProfit*100))
	}
	return builder.String()
}

// GenerateCSVExport writes one row per scored fixture
func GenerateCSVExport(state *State, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString("fixture_id,kickoff,home_win,draw,away_win,confidence,actual,brier,log_loss\n")
	for _, p := range state.Predictions {
		builder.WriteString(fmt.Sprintf("%d,%s,%.6f,%.6f,%.6f,%s,%s,%.6f,%.6f\n",
			p.FixtureID,
			p.Kickoff.Format(time.RFC3339),
			p.Outcome.HomeWin,
			p.Outcome.Draw,
			p.Outcome.AwayWin,
			p.Confidence,
			p.Actual,
			BrierScore(p.Outcome, p.Actual),
			LogLoss(p.Outcome, p.Actual),
		))
	}
	return os.WriteFile(outputPath, []byte(builder.String()), 0o644)
}

// GenerateEquityExport writes the flat-stake equity curve
func GenerateEquityExport(state *State, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(state.EquityCurve.ToCSV()), 0o644)
}
