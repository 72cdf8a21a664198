package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuebet/internal/config"
	"github.com/yourusername/valuebet/internal/models"
)

const fixturesBody = `{
  "errors": [],
  "results": 2,
  "paging": {"current": 1, "total": 1},
  "response": [
    {
      "fixture": {"id": 1001, "date": "2024-03-09T15:00:00+00:00", "status": {"short": "NS"}},
      "league": {"id": 39, "name": "Premier League", "season": 2023},
      "teams": {"home": {"id": 40, "name": "Liverpool"}, "away": {"id": 50, "name": "Manchester City"}},
      "goals": {"home": null, "away": null}
    },
    {
      "fixture": {"id": 1000, "date": "2024-03-02T12:30:00+00:00", "status": {"short": "FT"}},
      "league": {"id": 39, "name": "Premier League", "season": 2023},
      "teams": {"home": {"id": 50, "name": "Manchester City"}, "away": {"id": 33, "name": "Manchester United"}},
      "goals": {"home": 3, "away": 1}
    }
  ]
}`

func oddsPage(page, total int) string {
	return fmt.Sprintf(`{
  "errors": {},
  "paging": {"current": %d, "total": %d},
  "response": [
    {
      "fixture": {"id": 100%d},
      "update": "2024-03-08T10:00:00+00:00",
      "bookmakers": [
        {"id": 8, "name": "Bet365", "bets": [
          {"id": 1, "name": "Match Winner", "values": [
            {"value": "Home", "odd": "2.10"}, {"value": "Draw", "odd": "3.40"}, {"value": "Away", "odd": "bad"}
          ]}
        ]}
      ]
    }
  ]
}`, page, total, page)
}

func testHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 1000
	cfg.MaxRetries = 1
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	cfg.CircuitBreakerMax = 2
	return NewRateLimitedHTTPClient(cfg, nil)
}

func TestFetchFixtures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fixtures", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-apisports-key"))
		assert.Equal(t, "39", r.URL.Query().Get("league"))
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("from"))
		fmt.Fprint(w, fixturesBody)
	}))
	defer server.Close()

	client := NewAPIFootballClient(testHTTPClient(), server.URL+"/", "secret", nil)
	fixtures, err := client.FetchFixtures(context.Background(), FixtureQuery{
		LeagueID: 39,
		Season:   2023,
		From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	assert.Equal(t, int64(1001), fixtures[0].SourceID)
	assert.Nil(t, fixtures[0].HomeGoals)

	finished, err := fixtures[1].ToFixture()
	require.NoError(t, err)
	assert.Equal(t, models.FixtureFinished, finished.Status)
	assert.Equal(t, &models.Score{Home: 3, Away: 1}, finished.Score)
	assert.Equal(t, "api_football", client.Name())
}

func TestFetchOddsFollowsPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/odds", r.URL.Path)
		page := r.URL.Query().Get("page")
		if page == "1" {
			fmt.Fprint(w, oddsPage(1, 2))
			return
		}
		fmt.Fprint(w, oddsPage(2, 2))
	}))
	defer server.Close()

	client := NewAPIFootballClient(testHTTPClient(), server.URL, "secret", nil)
	odds, err := client.FetchOdds(context.Background(), OddsQuery{LeagueID: 39, Season: 2023, Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)})

	require.NoError(t, err)
	// Two pages, two parseable prices each
	require.Len(t, odds, 4)
	assert.Equal(t, int64(1001), odds[0].FixtureID)
	assert.Equal(t, int64(1002), odds[2].FixtureID)
	assert.True(t, decimal.RequireFromString("2.10").Equal(odds[0].Odds))

	quote := odds[0].ToQuote()
	assert.Equal(t, 2.1, quote.Odds)
	assert.Equal(t, "Bet365", quote.Bookmaker)
	assert.Equal(t, time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC), quote.ObservedAt)
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrCodeAuthenticationFailed},
		{"api error object", http.StatusOK, `{"errors": {"token": "Error/Missing application key"}, "response": []}`, ErrCodeAPIError},
		{"api error list", http.StatusOK, `{"errors": ["bad league"], "response": []}`, ErrCodeAPIError},
		{"malformed", http.StatusOK, `{"response": [`, ErrCodeInvalidData},
		{"not found", http.StatusNotFound, `missing`, ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewAPIFootballClient(testHTTPClient(), server.URL, "secret", nil)
			_, err := client.FetchFixtures(context.Background(), FixtureQuery{LeagueID: 39, Season: 2023})

			var dsErr DataSourceError
			require.True(t, errors.As(err, &dsErr), "got %v", err)
			assert.Equal(t, tt.code, dsErr.Code)
		})
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	var calls atomic.Int32
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if healthy.Load() {
			fmt.Fprint(w, `{"errors": [], "response": []}`)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	httpClient := testHTTPClient()
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	httpClient.now = func() time.Time { return now }
	client := NewAPIFootballClient(httpClient, server.URL, "secret", nil)

	for i := 0; i < 2; i++ {
		_, err := client.FetchFixtures(context.Background(), FixtureQuery{LeagueID: 39, Season: 2023})
		require.Error(t, err)
	}

	before := calls.Load()
	_, err := client.FetchFixtures(context.Background(), FixtureQuery{LeagueID: 39, Season: 2023})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, calls.Load())

	healthy.Store(true)
	now = now.Add(2 * time.Minute)
	_, err = client.FetchFixtures(context.Background(), FixtureQuery{LeagueID: 39, Season: 2023})
	assert.NoError(t, err)
}

func TestFixtureDataToFixture(t *testing.T) {
	two, one := 2, 1
	tests := []struct {
		name    string
		data    FixtureData
		status  models.FixtureStatus
		wantErr string
	}{
		{"scheduled", FixtureData{SourceID: 1, StatusCode: "NS"}, models.FixtureScheduled, ""},
		{"postponed", FixtureData{SourceID: 1, StatusCode: "PST"}, models.FixtureScheduled, ""},
		{"half time", FixtureData{SourceID: 1, StatusCode: "HT", HomeGoals: &one, AwayGoals: &one}, models.FixtureInPlay, ""},
		{"penalties", FixtureData{SourceID: 1, StatusCode: "PEN", HomeGoals: &two, AwayGoals: &two}, models.FixtureFinished, ""},
		{"cancelled", FixtureData{SourceID: 1, StatusCode: "CANC"}, "", "unsupported_status"},
		{"finished without score", FixtureData{SourceID: 1, StatusCode: "FT"}, "", "missing_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.data.ToFixture()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, f.Status)
			if tt.status != models.FixtureFinished {
				assert.Nil(t, f.Score)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	_, _, err := NewFromConfig(&config.FootballAPIConfig{}, nil)
	assert.Error(t, err)

	source, httpClient, err := NewFromConfig(&config.FootballAPIConfig{
		BaseURL:           "https://v3.football.api-sports.io",
		APIKey:            "key",
		RequestsPerSecond: 2,
		Burst:             2,
		TimeoutSeconds:    5,
		RetryAttempts:     1,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "api_football", source.Name())
	assert.NoError(t, httpClient.Close())
}
