// Package config provides configuration management for the value-bet service.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/probability"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	FootballAPI FootballAPIConfig `mapstructure:"football_api" validate:"required"`
	Model       ModelConfig       `mapstructure:"model" validate:"required"`
	Selection   SelectionConfig   `mapstructure:"selection" validate:"required"`
	Cache       CacheConfig       `mapstructure:"cache" validate:"required"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler" validate:"required"`
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Secrets     SecretsConfig     `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// FootballAPIConfig represents the upstream fixtures and odds feed
type FootballAPIConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	Leagues           []int64 `mapstructure:"leagues" validate:"required,min=1,dive,gt=0"`
	Season            int     `mapstructure:"season" validate:"required,gte=2000"`
	Bookmakers        []int   `mapstructure:"bookmakers" validate:"dive,gt=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `mapstructure:"burst" validate:"required,gt=0"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	LookaheadDays     int     `mapstructure:"lookahead_days" validate:"required,gt=0"`
}

// EloConfig represents rating system parameters
type EloConfig struct {
	InitialRating   float64 `mapstructure:"initial_rating" validate:"required,gt=0"`
	KFactor         float64 `mapstructure:"k_factor" validate:"required,gt=0"`
	HomeAdvantage   float64 `mapstructure:"home_advantage" validate:"gte=0"`
	DrawProbability float64 `mapstructure:"draw_probability" validate:"gte=0,lt=1"`
}

// ModelConfig represents probability model parameters
type ModelConfig struct {
	LookbackMatches int       `mapstructure:"lookback_matches" validate:"required,gt=0"`
	MinMatches      int       `mapstructure:"min_matches" validate:"gte=0"`
	MaxGoals        int       `mapstructure:"max_goals" validate:"required,gt=0,lte=20"`
	HomeAdvantage   float64   `mapstructure:"home_advantage" validate:"required,gt=0"`
	PoissonWeight   float64   `mapstructure:"poisson_weight" validate:"gte=0,lte=1"`
	LeagueAvgGoals  float64   `mapstructure:"league_avg_goals" validate:"required,gt=0"`
	Elo             EloConfig `mapstructure:"elo" validate:"required"`
}

// SelectionConfig represents default value-bet filtering
type SelectionConfig struct {
	MinEdge     float64  `mapstructure:"min_edge" validate:"gte=-1,lte=1"`
	MaxResults  int      `mapstructure:"max_results" validate:"required,gt=0"`
	Markets     []string `mapstructure:"markets" validate:"omitempty,markets"`
	Workers     int      `mapstructure:"workers" validate:"required,gt=0"`
	HorizonDays int      `mapstructure:"horizon_days" validate:"required,gt=0"`
}

// CacheConfig represents the value-bet result cache
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	MaxSize    int `mapstructure:"max_size" validate:"required,gt=0"`
}

// SchedulerConfig represents background job schedules
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	FixtureSync   string `mapstructure:"fixture_sync" validate:"required,cronspec"`
	OddsSync      string `mapstructure:"odds_sync" validate:"required,cronspec"`
	RatingRebuild string `mapstructure:"rating_rebuild" validate:"required,cronspec"`
	Refresh       string `mapstructure:"refresh" validate:"required,cronspec"`
}

// ServerConfig represents the HTTP API
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Mode                   string `mapstructure:"mode" validate:"required,oneof=debug release test"`
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents Prometheus exposition
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// SecretsConfig represents the optional AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ModelParams converts the model section to probability parameters
func (c *Config) ModelParams() probability.Params {
	return probability.Params{
		LookbackMatches: c.Model.LookbackMatches,
		MinMatches:      c.Model.MinMatches,
		MaxGoals:        c.Model.MaxGoals,
		HomeAdvantage:   c.Model.HomeAdvantage,
		PoissonWeight:   c.Model.PoissonWeight,
		LeagueAvgGoals:  c.Model.LeagueAvgGoals,
		Elo: probability.EloParams{
			InitialRating:   c.Model.Elo.InitialRating,
			KFactor:         c.Model.Elo.KFactor,
			HomeAdvantage:   c.Model.Elo.HomeAdvantage,
			DrawProbability: c.Model.Elo.DrawProbability,
		},
	}
}

// DefaultFilter returns the configured selection filter
func (c *Config) DefaultFilter() models.SelectionFilter {
	return models.SelectionFilter{
		MinEdge:    c.Selection.MinEdge,
		MaxResults: c.Selection.MaxResults,
		Markets:    c.Selection.Markets,
	}
}

// CacheTTL returns the cache entry lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// ScanHorizon returns the default scan window length
func (c *Config) ScanHorizon() time.Duration {
	return time.Duration(c.Selection.HorizonDays) * 24 * time.Hour
}
