// Package main provides the valuebet operator CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/valuebet/internal/analysis"
	"github.com/yourusername/valuebet/internal/config"
	"github.com/yourusername/valuebet/internal/database"
	"github.com/yourusername/valuebet/internal/logger"
	"github.com/yourusername/valuebet/internal/probability"
	"github.com/yourusername/valuebet/internal/repository"
	"github.com/yourusername/valuebet/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	jsonOutput bool
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
	ratings    *service.RatingService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(scanCmd, predictCmd, ratingsCmd, syncCmd, backtestCmd)
}

var rootCmd = &cobra.Command{
	Use:     "valuebet",
	Short:   "Football value-bet analysis",
	Long:    `Scans upcoming fixtures for value bets, maintains Elo ratings, ingests fixtures and odds, and backtests the probability model.`,
	Version: fmt.Sprintf("%s (%s)", Version, GitCommit),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	if config.SecretsEnabled(cfg) {
		if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLog = logger.NewLoggerWithOutput(cfg.App.LogLevel, cfg.App.Environment, os.Stderr)

	var err error
	db, err = database.Initialize(ctx, cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	ratings = service.NewRatingService(cfg.ModelParams().Elo, repos.Fixture, repos.Rating, logger.NewIngestionLogger(appLog))
	return nil
}

// newValueBetService builds the analysis stack over the loaded ratings
func newValueBetService(ctx context.Context) (*service.ValueBetService, error) {
	if err := ratings.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	analyzer := analysis.NewAnalyzer(
		analysis.NewEngine(probability.NewModel(cfg.ModelParams())),
		repos.Fixture, repos.Fixture, repos.Odds, ratings,
		logger.NewAnalysisLogger(appLog),
		analysis.WithWorkers(cfg.Selection.Workers),
		analysis.WithHorizon(cfg.ScanHorizon()),
	)
	return service.NewValueBetService(analyzer, ratings, service.NewResultCache(cfg.CacheTTL(), cfg.Cache.MaxSize), cfg.DefaultFilter()), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
