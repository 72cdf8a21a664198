package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/valuebet/internal/datasource"
	"github.com/yourusername/valuebet/internal/logger"
	"github.com/yourusername/valuebet/internal/service"
)

var (
	syncFrom string
	syncTo   string
)

func init() {
	syncFixturesCmd.Flags().StringVar(&syncFrom, "from", "", "First kickoff day (YYYY-MM-DD, default 3 days ago)")
	syncFixturesCmd.Flags().StringVar(&syncTo, "to", "", "Last kickoff day (YYYY-MM-DD, default football_api.lookahead_days ahead)")
	syncCmd.AddCommand(syncFixturesCmd, syncOddsCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest fixtures and odds from API-Football",
}

var syncFixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Fetch fixtures and results for the configured leagues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		from, err := parseDay(syncFrom, today.AddDate(0, 0, -3))
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to, err := parseDay(syncTo, today.AddDate(0, 0, cfg.FootballAPI.LookaheadDays))
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}

		ingestion, closeFn, err := newIngestionService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := ingestion.SyncFixtures(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.String())
		return nil
	},
}

var syncOddsCmd = &cobra.Command{
	Use:   "odds",
	Short: "Fetch pre-match odds for upcoming fixtures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ingestion, closeFn, err := newIngestionService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := ingestion.SyncOdds(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.String())
		return nil
	},
}

func newIngestionService(cmd *cobra.Command) (*service.IngestionService, func(), error) {
	if err := ratings.Load(cmd.Context()); err != nil {
		return nil, nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	source, httpClient, err := datasource.NewFromConfig(&cfg.FootballAPI, appLog)
	if err != nil {
		return nil, nil, err
	}

	ingestion := service.NewIngestionService(source, repos.Fixture, repos.Odds, ratings, logger.NewIngestionLogger(appLog), service.IngestionConfig{
		Leagues:       cfg.FootballAPI.Leagues,
		Season:        cfg.FootballAPI.Season,
		Bookmakers:    cfg.FootballAPI.Bookmakers,
		LookaheadDays: cfg.FootballAPI.LookaheadDays,
	})
	return ingestion, func() { httpClient.Close() }, nil
}

func parseDay(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", value)
}
