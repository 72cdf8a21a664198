package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/metrics"
)

const (
	apiFootballName = "api_football"
	apiDateLayout   = "2006-01-02"
	maxOddsPages    = 50
)

// APIFootballClient implements FootballDataSource for the API-Football v3 API
type APIFootballClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Entry
}

// apiEnvelope is the common response wrapper. Errors is either an empty
// array or an object keyed by parameter name.
type apiEnvelope struct {
	Errors  json.RawMessage `json:"errors"`
	Results int             `json:"results"`
	Paging  struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	} `json:"paging"`
	Response json.RawMessage `json:"response"`
}

type apiTeam struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiFixture struct {
	Fixture struct {
		ID     int64     `json:"id"`
		Date   time.Time `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Season int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home apiTeam `json:"home"`
		Away apiTeam `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type apiOdds struct {
	Fixture struct {
		ID int64 `json:"id"`
	} `json:"fixture"`
	Update     time.Time `json:"update"`
	Bookmakers []struct {
		Name string `json:"name"`
		Bets []struct {
			Name   string `json:"name"`
			Values []struct {
				Value string `json:"value"`
				Odd   string `json:"odd"`
			} `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}

// NewAPIFootballClient creates a new API-Football client
func NewAPIFootballClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *APIFootballClient {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &APIFootballClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.WithField("component", apiFootballName),
	}
}

// Name returns the name of the data source
func (c *APIFootballClient) Name() string {
	return apiFootballName
}

// FetchFixtures retrieves fixtures for a league and season within a date range
func (c *APIFootballClient) FetchFixtures(ctx context.Context, query FixtureQuery) ([]FixtureData, error) {
	params := url.Values{}
	params.Set("league", strconv.FormatInt(query.LeagueID, 10))
	params.Set("season", strconv.Itoa(query.Season))
	params.Set("from", query.From.UTC().Format(apiDateLayout))
	params.Set("to", query.To.UTC().Format(apiDateLayout))
	params.Set("timezone", "UTC")

	env, err := c.get(ctx, "fixtures", params)
	if err != nil {
		return nil, err
	}

	var raw []apiFixture
	if err := json.Unmarshal(env.Response, &raw); err != nil {
		return nil, NewDataSourceError(apiFootballName, ErrCodeInvalidData, "failed to parse fixtures", err)
	}

	fixtures := make([]FixtureData, 0, len(raw))
	for _, r := range raw {
		fixtures = append(fixtures, FixtureData{
			SourceID:   r.Fixture.ID,
			Kickoff:    r.Fixture.Date.UTC(),
			LeagueID:   r.League.ID,
			LeagueName: r.League.Name,
			Season:     r.League.Season,
			HomeTeamID: r.Teams.Home.ID,
			HomeTeam:   r.Teams.Home.Name,
			AwayTeamID: r.Teams.Away.ID,
			AwayTeam:   r.Teams.Away.Name,
			StatusCode: r.Fixture.Status.Short,
			HomeGoals:  r.Goals.Home,
			AwayGoals:  r.Goals.Away,
		})
	}
	return fixtures, nil
}

// FetchOdds retrieves pre-match odds for one match day, following pagination.
// Prices that do not parse as decimals are dropped and logged.
func (c *APIFootballClient) FetchOdds(ctx context.Context, query OddsQuery) ([]OddsData, error) {
	params := url.Values{}
	params.Set("league", strconv.FormatInt(query.LeagueID, 10))
	params.Set("season", strconv.Itoa(query.Season))
	params.Set("date", query.Date.UTC().Format(apiDateLayout))
	params.Set("timezone", "UTC")
	if query.Bookmaker > 0 {
		params.Set("bookmaker", strconv.Itoa(query.Bookmaker))
	}

	var odds []OddsData
	for page := 1; page <= maxOddsPages; page++ {
		params.Set("page", strconv.Itoa(page))
		env, err := c.get(ctx, "odds", params)
		if err != nil {
			return nil, err
		}

		var raw []apiOdds
		if err := json.Unmarshal(env.Response, &raw); err != nil {
			return nil, NewDataSourceError(apiFootballName, ErrCodeInvalidData, "failed to parse odds", err)
		}
		odds = append(odds, c.flattenOdds(raw)...)

		if env.Paging.Total <= page {
			break
		}
	}
	return odds, nil
}

func (c *APIFootballClient) flattenOdds(raw []apiOdds) []OddsData {
	var out []OddsData
	for _, fixture := range raw {
		for _, bookmaker := range fixture.Bookmakers {
			for _, bet := range bookmaker.Bets {
				for _, v := range bet.Values {
					price, err := decimal.NewFromString(strings.TrimSpace(v.Odd))
					if err != nil {
						c.logger.WithFields(logrus.Fields{
							"fixture_id": fixture.Fixture.ID,
							"bookmaker":  bookmaker.Name,
							"market":     bet.Name,
							"odd":        v.Odd,
						}).Warn("Dropping unparseable price")
						continue
					}
					out = append(out, OddsData{
						FixtureID: fixture.Fixture.ID,
						Bookmaker: bookmaker.Name,
						Market:    bet.Name,
						Selection: v.Value,
						Odds:      price,
						UpdatedAt: fixture.Update.UTC(),
					})
				}
			}
		}
	}
	return out
}

// get performs one API call and unwraps the envelope
func (c *APIFootballClient) get(ctx context.Context, endpoint string, params url.Values) (*apiEnvelope, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordFootballAPIRequest(endpoint, status, time.Since(start).Seconds())
	}()

	target := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	resp, err := c.httpClient.Get(ctx, target, map[string]string{
		"x-apisports-key": c.apiKey,
		"Accept":          "application/json",
	})
	if err != nil {
		return nil, NewDataSourceError(apiFootballName, ErrCodeNetworkError, "request to "+endpoint+" failed", err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(apiFootballName, ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(apiFootballName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, NewDataSourceError(apiFootballName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, NewDataSourceError(apiFootballName, ErrCodeInvalidData, "failed to parse response", err)
	}
	if msg := envelopeErrors(env.Errors); msg != "" {
		return nil, NewDataSourceError(apiFootballName, ErrCodeAPIError, msg, nil)
	}
	return &env, nil
}

// envelopeErrors flattens the errors field; an empty array or object means none
func envelopeErrors(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "[]" || trimmed == "{}" || trimmed == "null" {
		return ""
	}

	var byField map[string]string
	if err := json.Unmarshal(raw, &byField); err == nil {
		parts := make([]string, 0, len(byField))
		for k, v := range byField {
			parts = append(parts, k+": "+v)
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return trimmed
}
