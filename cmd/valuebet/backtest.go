package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/valuebet/internal/backtest"
)

var (
	backtestFrom          string
	backtestTo            string
	backtestMinEdge       float64
	backtestPoissonWeight float64
	backtestHomeAdvantage float64
	backtestIterations    int
	backtestSeed          int64
	backtestCSV           string
	backtestEquity        string
)

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestFrom, "from", "", "First kickoff day to score (YYYY-MM-DD)")
	f.StringVar(&backtestTo, "to", "", "Day after the last kickoff to score (YYYY-MM-DD)")
	f.Float64Var(&backtestMinEdge, "min-edge", 0, "Minimum edge for simulated bets (defaults to selection.min_edge)")
	f.Float64Var(&backtestPoissonWeight, "poisson-weight", 0, "Poisson share of the blended 1X2 (defaults to model.poisson_weight)")
	f.Float64Var(&backtestHomeAdvantage, "home-advantage", 0, "Poisson home advantage multiplier (defaults to model.home_advantage)")
	f.IntVar(&backtestIterations, "iterations", 1000, "Monte Carlo bootstrap iterations (0 disables)")
	f.Int64Var(&backtestSeed, "seed", 1, "Monte Carlo seed")
	f.StringVar(&backtestCSV, "csv", "", "Write per-fixture predictions to this CSV file")
	f.StringVar(&backtestEquity, "equity", "", "Write the equity curve to this CSV file")
	_ = backtestCmd.MarkFlagRequired("from")
	_ = backtestCmd.MarkFlagRequired("to")
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay finished fixtures to measure calibration and flat-stake ROI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := time.Parse("2006-01-02", backtestFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to, err := time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}

		btCfg := backtest.DefaultConfig(from, to)
		btCfg.Model = cfg.ModelParams()
		btCfg.MinEdge = cfg.Selection.MinEdge
		btCfg.Markets = cfg.Selection.Markets
		btCfg.MonteCarloIterations = backtestIterations
		btCfg.Seed = backtestSeed
		if cmd.Flags().Changed("min-edge") {
			btCfg.MinEdge = backtestMinEdge
		}
		if cmd.Flags().Changed("poisson-weight") {
			btCfg.Model.PoissonWeight = backtestPoissonWeight
		}
		if cmd.Flags().Changed("home-advantage") {
			btCfg.Model.HomeAdvantage = backtestHomeAdvantage
		}

		engine, err := backtest.NewEngine(btCfg, repos.Fixture, repos.Odds, appLog)
		if err != nil {
			return err
		}
		result, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := printJSON(out, map[string]any{"metrics": result.Metrics, "monte_carlo": result.MonteCarlo}); err != nil {
				return err
			}
		} else {
			fmt.Fprint(out, backtest.GenerateConsoleReport(result))
		}

		if backtestCSV != "" {
			if err := backtest.GenerateCSVExport(result.State, backtestCSV); err != nil {
				return fmt.Errorf("write predictions csv: %w", err)
			}
		}
		if backtestEquity != "" {
			if err := backtest.GenerateEquityExport(result.State, backtestEquity); err != nil {
				return fmt.Errorf("write equity csv: %w", err)
			}
		}
		return nil
	},
}
