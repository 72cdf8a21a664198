package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/valuebet/internal/models"
)

var (
	scanLeague     int64
	scanDate       string
	scanMinEdge    float64
	scanMaxResults int
	scanMarkets    []string
)

func init() {
	scanCmd.Flags().Int64Var(&scanLeague, "league", 0, "Only fixtures in this league id")
	scanCmd.Flags().StringVar(&scanDate, "date", "", "Only fixtures kicking off on this day (YYYY-MM-DD)")
	scanCmd.Flags().Float64Var(&scanMinEdge, "min-edge", 0, "Minimum edge (defaults to selection.min_edge)")
	scanCmd.Flags().IntVar(&scanMaxResults, "max-results", 0, "Maximum candidates (defaults to selection.max_results)")
	scanCmd.Flags().StringSliceVar(&scanMarkets, "market", nil, "Restrict to markets (repeatable)")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan upcoming fixtures for value bets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newValueBetService(cmd.Context())
		if err != nil {
			return err
		}

		filter := svc.DefaultFilter()
		if scanLeague > 0 {
			filter.LeagueID = &scanLeague
		}
		if scanDate != "" {
			d, err := time.Parse("2006-01-02", scanDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", scanDate, err)
			}
			filter.Date = &d
		}
		if cmd.Flags().Changed("min-edge") {
			filter.MinEdge = scanMinEdge
		}
		if scanMaxResults > 0 {
			filter.MaxResults = scanMaxResults
		}
		if len(scanMarkets) > 0 {
			filter.Markets = scanMarkets
		}

		run, err := svc.ValueBets(cmd.Context(), filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]any{
				"run_id":    run.ID,
				"evaluated": run.Evaluated,
				"failures":  len(run.Failures),
				"response":  models.Views(run.Candidates),
			})
		}

		fmt.Fprintf(out, "Run %s: %d fixtures evaluated, %d failed, %d value bets\n\n", run.ID, run.Evaluated, len(run.Failures), len(run.Candidates))
		writeCandidates(out, run.Candidates)
		for _, f := range run.Failures {
			fmt.Fprintf(out, "skipped fixture %d: %s\n", f.FixtureID, f.Reason)
		}
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <fixture_id>",
	Short: "Show the model prediction and priced markets for one fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtureID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid fixture id %q: %w", args[0], err)
		}

		svc, err := newValueBetService(cmd.Context())
		if err != nil {
			return err
		}
		eval, err := svc.Betting(cmd.Context(), fixtureID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, eval.Prediction)
		}

		f, p := eval.Fixture, eval.Prediction
		fmt.Fprintf(out, "%s v %s (%s, %s)\n", f.HomeTeam, f.AwayTeam, f.LeagueName, f.Kickoff.UTC().Format("2006-01-02 15:04"))
		fmt.Fprintf(out, "Confidence: %s\n", p.Confidence)
		fmt.Fprintf(out, "Ratings: %.0f - %.0f\n", p.HomeRating, p.AwayRating)
		fmt.Fprintf(out, "Expected goals: %.2f - %.2f\n", p.Outcome.HomeExpectedGoals, p.Outcome.AwayExpectedGoals)
		writeOutcome(out, "Poisson", p.Poisson)
		writeOutcome(out, "Elo", p.Elo)
		writeOutcome(out, "Blended", p.Outcome)
		for _, s := range p.MostLikelyScores {
			fmt.Fprintf(out, "  %s  %.2f%%\n", s.Score, models.Percent(s.Probability))
		}
		fmt.Fprintln(out)
		writeCandidates(out, eval.Candidates)
		for _, skipped := range eval.Skipped {
			fmt.Fprintf(out, "skipped: %v\n", skipped)
		}
		return nil
	},
}

func writeOutcome(out io.Writer, label string, o models.OutcomeProbability) {
	fmt.Fprintf(out, "%-8s home %.2f%%  draw %.2f%%  away %.2f%%\n", label+":",
		models.Percent(o.HomeWin), models.Percent(o.Draw), models.Percent(o.AwayWin))
}

func writeCandidates(out io.Writer, candidates []models.ValueBetCandidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(out, "No candidates")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tFIXTURE\tMATCH\tMARKET\tSELECTION\tBOOKMAKER\tODDS\tMODEL %\tIMPLIED %\tEDGE %\tEV %")
	for _, v := range models.Views(candidates) {
		fmt.Fprintf(w, "%d\t%d\t%s v %s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			v.Rank, v.FixtureID, v.Teams.Home, v.Teams.Away, v.Market, v.Selection, v.Bookmaker,
			v.Odds, v.EstimatedProbability, v.ImpliedProbability, v.Edge, v.ExpectedValue)
	}
	w.Flush()
	fmt.Fprintln(out)
}
