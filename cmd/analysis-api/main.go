// Package main provides the entry point for the value-bet analysis API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/analysis"
	"github.com/yourusername/valuebet/internal/api"
	"github.com/yourusername/valuebet/internal/config"
	"github.com/yourusername/valuebet/internal/database"
	"github.com/yourusername/valuebet/internal/datasource"
	"github.com/yourusername/valuebet/internal/logger"
	"github.com/yourusername/valuebet/internal/metrics"
	"github.com/yourusername/valuebet/internal/probability"
	"github.com/yourusername/valuebet/internal/repository"
	"github.com/yourusername/valuebet/internal/scheduler"
	"github.com/yourusername/valuebet/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

const fixtureSyncBackDays = 3

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if config.SecretsEnabled(cfg) {
		secretsCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := config.LoadSecretsFromAWS(secretsCtx, cfg)
		cancel()
		if err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		log.Fatalf("Invalid configuration for %s: %v", cfg.App.Environment, err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"commit":      GitCommit,
	}).Info("Value-bet analysis API starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.InitRegistry()

	// Initialize database connection
	db, err := database.Initialize(ctx, cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	// Ratings must be loaded before the API reports ready
	ingestionLog := logger.NewIngestionLogger(appLog)
	params := cfg.ModelParams()
	ratings := service.NewRatingService(params.Elo, repos.Fixture, repos.Rating, ingestionLog)
	if err := ratings.Load(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to load ratings")
	}

	analyzer := analysis.NewAnalyzer(
		analysis.NewEngine(probability.NewModel(params)),
		repos.Fixture, repos.Fixture, repos.Odds, ratings,
		logger.NewAnalysisLogger(appLog),
		analysis.WithWorkers(cfg.Selection.Workers),
		analysis.WithHorizon(cfg.ScanHorizon()),
	)
	cache := service.NewResultCache(cfg.CacheTTL(), cfg.Cache.MaxSize)
	valueBets := service.NewValueBetService(analyzer, ratings, cache, cfg.DefaultFilter())

	health := api.NewHealth(cfg.App.Name, Version, GitCommit, db)
	hub := api.NewHub(appLog)

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(api.RouterDeps{
		Service: valueBets,
		Health:  health,
		Hub:     hub,
		Metrics: cfg.Metrics,
		Logger:  appLog,
	})
	server := api.NewServer(cfg.Server, router, hub, appLog)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		source, httpClient, err := datasource.NewFromConfig(&cfg.FootballAPI, appLog)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to create football data source")
		}
		defer httpClient.Close()

		ingestion := service.NewIngestionService(source, repos.Fixture, repos.Odds, ratings, ingestionLog, service.IngestionConfig{
			Leagues:       cfg.FootballAPI.Leagues,
			Season:        cfg.FootballAPI.Season,
			Bookmakers:    cfg.FootballAPI.Bookmakers,
			LookaheadDays: cfg.FootballAPI.LookaheadDays,
		})

		sched = scheduler.NewScheduler(appLog)
		if err := sched.ScheduleFixtureSync(cfg.Scheduler.FixtureSync, ingestion, fixtureSyncBackDays, cfg.FootballAPI.LookaheadDays); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule fixture sync")
		}
		if err := sched.ScheduleOddsSync(cfg.Scheduler.OddsSync, ingestion); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule odds sync")
		}
		if err := sched.ScheduleRatingRebuild(cfg.Scheduler.RatingRebuild, ratings); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule rating rebuild")
		}
		if err := sched.ScheduleRefresh(cfg.Scheduler.Refresh, valueBets, hub); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule refresh")
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
	} else {
		appLog.Info("Scheduler disabled; ingestion must be run with the valuebet CLI")
	}

	errCh := server.Start(ctx)
	health.SetReady(true)
	appLog.WithField("port", cfg.Server.Port).Info("Value-bet analysis API ready")

	select {
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			appLog.WithError(err).Error("HTTP API stopped")
		}
		stop()
	}

	health.SetReady(false)
	if sched != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
		if err := sched.Stop(stopCtx); err != nil {
			appLog.WithError(err).Warn("Scheduler did not stop cleanly")
		}
		cancel()
	}
	// Server.Start shuts down on ctx cancellation; wait for the listener to return
	<-errCh

	appLog.Info("Value-bet analysis API shut down successfully")
}
