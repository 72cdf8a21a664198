package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "VALUEBET"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for every field.
// A missing file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// ReloadFromEnv reloads the configuration from VALUEBET_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment overrides: VALUEBET_MODEL_POISSON_WEIGHT -> model.poisson_weight
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file omits it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "valuebet")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "valuebet")
	v.SetDefault("database.user", "valuebet")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("football_api.base_url", "https://v3.football.api-sports.io")
	v.SetDefault("football_api.api_key", "")
	v.SetDefault("football_api.leagues", []int64{39})
	v.SetDefault("football_api.season", 2024)
	v.SetDefault("football_api.bookmakers", []int{})
	v.SetDefault("football_api.requests_per_second", 5.0)
	v.SetDefault("football_api.burst", 5)
	v.SetDefault("football_api.timeout_seconds", 30)
	v.SetDefault("football_api.retry_attempts", 3)
	v.SetDefault("football_api.lookahead_days", 7)

	v.SetDefault("model.lookback_matches", 10)
	v.SetDefault("model.min_matches", 3)
	v.SetDefault("model.max_goals", 9)
	v.SetDefault("model.home_advantage", 1.2)
	v.SetDefault("model.poisson_weight", 0.5)
	v.SetDefault("model.league_avg_goals", 1.35)
	v.SetDefault("model.elo.initial_rating", 1500.0)
	v.SetDefault("model.elo.k_factor", 40.0)
	v.SetDefault("model.elo.home_advantage", 100.0)
	v.SetDefault("model.elo.draw_probability", 0.3)

	v.SetDefault("selection.min_edge", 0.05)
	v.SetDefault("selection.max_results", 20)
	v.SetDefault("selection.markets", []string{})
	v.SetDefault("selection.workers", 8)
	v.SetDefault("selection.horizon_days", 7)

	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.max_size", 1000)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.fixture_sync", "0 */6 * * *")
	v.SetDefault("scheduler.odds_sync", "*/15 * * * *")
	v.SetDefault("scheduler.rating_rebuild", "30 4 * * *")
	v.SetDefault("scheduler.refresh", "*/5 * * * *")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("secrets.enabled", false)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")
}
