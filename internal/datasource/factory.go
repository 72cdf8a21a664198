package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/config"
)

// NewFromConfig builds the football data source and its HTTP client from configuration
func NewFromConfig(cfg *config.FootballAPIConfig, logger *logrus.Logger) (FootballDataSource, *RateLimitedHTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("football API key is required")
	}

	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.RetryAttempts
	httpCfg.RateLimit = cfg.RequestsPerSecond
	httpCfg.Burst = cfg.Burst

	httpClient := NewRateLimitedHTTPClient(httpCfg, logger)
	return NewAPIFootballClient(httpClient, cfg.BaseURL, cfg.APIKey, logger), httpClient, nil
}
