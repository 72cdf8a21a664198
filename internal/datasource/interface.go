package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/valuebet/internal/models"
)

// FootballDataSource fetches fixtures and bookmaker odds from an external provider
type FootballDataSource interface {
	// FetchFixtures retrieves fixtures for a league and season within a date range
	FetchFixtures(ctx context.Context, query FixtureQuery) ([]FixtureData, error)

	// FetchOdds retrieves pre-match odds for a league and season on one date
	FetchOdds(ctx context.Context, query OddsQuery) ([]OddsData, error)

	// Name returns the name of the data source
	Name() string
}

// FixtureQuery selects fixtures. From and To are inclusive calendar days.
type FixtureQuery struct {
	LeagueID int64
	Season   int
	From     time.Time
	To       time.Time
}

// OddsQuery selects odds for one match day
type OddsQuery struct {
	LeagueID  int64
	Season    int
	Date      time.Time
	Bookmaker int
}

// FixtureData represents a fixture as published by the provider
type FixtureData struct {
	SourceID   int64     `json:"source_id"`
	Kickoff    time.Time `json:"kickoff"`
	LeagueID   int64     `json:"league_id"`
	LeagueName string    `json:"league_name"`
	Season     int       `json:"season"`
	HomeTeamID int64     `json:"home_team_id"`
	HomeTeam   string    `json:"home_team"`
	AwayTeamID int64     `json:"away_team_id"`
	AwayTeam   string    `json:"away_team"`
	StatusCode string    `json:"status_code"` // Provider short status (e.g., "NS", "FT")
	HomeGoals  *int      `json:"home_goals"`
	AwayGoals  *int      `json:"away_goals"`
}

// OddsData represents one bookmaker price for one selection
type OddsData struct {
	FixtureID int64           `json:"fixture_id"`
	Bookmaker string          `json:"bookmaker"`
	Market    string          `json:"market"`
	Selection string          `json:"selection"`
	Odds      decimal.Decimal `json:"odds"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Provider short status codes grouped by fixture lifecycle state
var (
	scheduledStatuses = map[string]bool{"TBD": true, "NS": true, "PST": true}
	inPlayStatuses    = map[string]bool{"1H": true, "HT": true, "2H": true, "ET": true, "BT": true, "P": true, "SUSP": true, "INT": true, "LIVE": true}
	finishedStatuses  = map[string]bool{"FT": true, "AET": true, "PEN": true}
)

// Status maps the provider status to a fixture status. Cancelled, abandoned
// and awarded fixtures have no mapping.
func (d FixtureData) Status() (models.FixtureStatus, bool) {
	switch {
	case scheduledStatuses[d.StatusCode]:
		return models.FixtureScheduled, true
	case inPlayStatuses[d.StatusCode]:
		return models.FixtureInPlay, true
	case finishedStatuses[d.StatusCode]:
		return models.FixtureFinished, true
	default:
		return "", false
	}
}

// ToFixture converts provider data to a fixture. The score is attached only
// to finished fixtures.
func (d FixtureData) ToFixture() (models.Fixture, error) {
	status, ok := d.Status()
	if !ok {
		return models.Fixture{}, models.NewValidationError("unsupported_status", fmt.Sprintf("fixture %d has status %q", d.SourceID, d.StatusCode))
	}

	f := models.Fixture{
		ID:         d.SourceID,
		Kickoff:    d.Kickoff.UTC(),
		LeagueID:   d.LeagueID,
		LeagueName: d.LeagueName,
		Season:     d.Season,
		HomeTeamID: d.HomeTeamID,
		HomeTeam:   d.HomeTeam,
		AwayTeamID: d.AwayTeamID,
		AwayTeam:   d.AwayTeam,
		Status:     status,
	}
	if status == models.FixtureFinished {
		if d.HomeGoals == nil || d.AwayGoals == nil {
			return models.Fixture{}, models.NewValidationError("missing_score", fmt.Sprintf("fixture %d finished without a score", d.SourceID))
		}
		f.Score = &models.Score{Home: *d.HomeGoals, Away: *d.AwayGoals}
	}
	return f, nil
}

// ToQuote converts provider data to an odds quote
func (d OddsData) ToQuote() models.OddsQuote {
	return models.OddsQuote{
		FixtureID:  d.FixtureID,
		Market:     d.Market,
		Selection:  d.Selection,
		Bookmaker:  d.Bookmaker,
		Odds:       d.Odds.InexactFloat64(),
		ObservedAt: d.UpdatedAt.UTC(),
	}
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeAPIError             = "api_error"
	ErrCodeUnknown              = "unknown"
)

// Sentinel errors
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrCircuitOpen          = errors.New("circuit breaker open")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
