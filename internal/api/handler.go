// Package api exposes the value-bet analysis over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/analysis"
	"github.com/yourusername/valuebet/internal/models"
)

const maxResultsLimit = 200

// AnalysisService is the read side the handlers serve from
type AnalysisService interface {
	DefaultFilter() models.SelectionFilter
	ValueBets(ctx context.Context, filter models.SelectionFilter) (*models.AnalysisRun, error)
	Predict(ctx context.Context, fixtureID int64) (*models.Prediction, error)
	Betting(ctx context.Context, fixtureID int64) (*analysis.FixtureEvaluation, error)
	TeamForm(ctx context.Context, teamID int64) (models.TeamForm, error)
}

// AnalysisHandler serves /api/analysis/*
type AnalysisHandler struct {
	service AnalysisService
	logger  *logrus.Logger
}

// NewAnalysisHandler creates the analysis handler
func NewAnalysisHandler(service AnalysisService, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{service: service, logger: logger}
}

// MarketView is one priced market of a fixture
type MarketView struct {
	Market     string                      `json:"market"`
	Line       string                      `json:"line,omitempty"`
	Overround  float64                     `json:"overround"`
	Selections []models.ImpliedProbability `json:"selections"`
}

// BettingView is the betting analysis of one fixture
type BettingView struct {
	FixtureID  int64                 `json:"fixture_id"`
	League     models.LeagueView     `json:"league"`
	Teams      models.TeamsView      `json:"teams"`
	Kickoff    time.Time             `json:"kickoff"`
	Prediction *models.Prediction    `json:"prediction"`
	Markets    []MarketView          `json:"markets"`
	Candidates []models.ValueBetView `json:"candidates"`
	Skipped    []string              `json:"skipped"`
}

// ValueBets handles GET /api/analysis/value-bets
// Query: league_id, date (YYYY-MM-DD), min_edge, max_results, markets (comma separated)
func (h *AnalysisHandler) ValueBets(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.service.ValueBets(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":    run.ID,
		"evaluated": run.Evaluated,
		"results":   len(run.Candidates),
		"failures":  len(run.Failures),
		"response":  models.Views(run.Candidates),
	})
}

// Predict handles GET /api/analysis/predict/:fixture_id
func (h *AnalysisHandler) Predict(c *gin.Context) {
	fixtureID, ok := pathID(c, "fixture_id")
	if !ok {
		return
	}

	pred, err := h.service.Predict(c.Request.Context(), fixtureID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": pred})
}

// Betting handles GET /api/analysis/betting/:fixture_id
func (h *AnalysisHandler) Betting(c *gin.Context) {
	fixtureID, ok := pathID(c, "fixture_id")
	if !ok {
		return
	}

	eval, err := h.service.Betting(c.Request.Context(), fixtureID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": bettingView(eval)})
}

// TeamForm handles GET /api/analysis/team/:id/form
func (h *AnalysisHandler) TeamForm(c *gin.Context) {
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	form, err := h.service.TeamForm(c.Request.Context(), teamID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": form})
}

func (h *AnalysisHandler) parseFilter(c *gin.Context) (models.SelectionFilter, error) {
	filter := h.service.DefaultFilter()

	if v := c.Query("league_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, errors.New("league_id must be a positive integer")
		}
		filter.LeagueID = &id
	}
	if v := c.Query("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("date must be formatted as YYYY-MM-DD")
		}
		filter.Date = &d
	}
	if v := c.Query("min_edge"); v != "" {
		edge, err := strconv.ParseFloat(v, 64)
		if err != nil || edge < -1 || edge > 1 {
			return filter, errors.New("min_edge must be a number between -1 and 1")
		}
		filter.MinEdge = edge
	}
	if v := c.Query("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxResultsLimit {
			return filter, errors.New("max_results must be an integer between 1 and 200")
		}
		filter.MaxResults = n
	}
	if v := c.Query("markets"); v != "" {
		var markets []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				markets = append(markets, m)
			}
		}
		filter.Markets = markets
	}
	return filter, nil
}

// fail maps service errors onto status codes
func (h *AnalysisHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientData):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrFixtureNotEvaluable):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Analysis request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func bettingView(eval *analysis.FixtureEvaluation) BettingView {
	f := eval.Fixture
	view := BettingView{
		FixtureID:  f.ID,
		League:     models.LeagueView{ID: f.LeagueID, Name: f.LeagueName},
		Teams:      models.TeamsView{Home: f.HomeTeam, Away: f.AwayTeam},
		Kickoff:    f.Kickoff,
		Prediction: eval.Prediction,
		Markets:    make([]MarketView, 0, len(eval.Books)),
		Candidates: models.Views(eval.Candidates),
		Skipped:    make([]string, 0, len(eval.Skipped)),
	}
	for _, book := range eval.Books {
		view.Markets = append(view.Markets, MarketView{
			Market:     book.Key.Market,
			Line:       book.Key.Line,
			Overround:  book.Overround,
			Selections: book.Selections,
		})
	}
	for _, err := range eval.Skipped {
		view.Skipped = append(view.Skipped, err.Error())
	}
	return view
}
