package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/analysis"
	"github.com/yourusername/valuebet/internal/metrics"
	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/probability"
)

// HistorySource lists finished fixtures by kickoff
type HistorySource interface {
	ListFinished(ctx context.Context, from, to time.Time) ([]models.Fixture, error)
}

// QuoteSource lists quotes for fixtures kicking off in [from, to)
type QuoteSource interface {
	QuotesBetween(ctx context.Context, from, to time.Time) ([]models.OddsQuote, error)
}

// Result is the outcome of one backtest run
type Result struct {
	State      *State
	Metrics    Metrics
	MonteCarlo *MonteCarloResult
}

// Engine replays history through the value-bet engine
type Engine struct {
	config   Config
	fixtures HistorySource
	odds     QuoteSource
	engine   *analysis.Engine
	logger   *logrus.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg Config, fixtures HistorySource, odds QuoteSource, logger *logrus.Logger) (*Engine, error) {
	if fixtures == nil {
		return nil, fmt.Errorf("fixture history is required")
	}
	if odds == nil {
		return nil, fmt.Errorf("odds history is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Engine{
		config:   cfg,
		fixtures: fixtures,
		odds:     odds,
		engine:   analysis.NewEngine(probability.NewModel(cfg.Model)),
		logger:   logger,
	}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() Config {
	return e.config
}

// Run loads history up to the end of the window, replays it and computes
// metrics
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	e.logger.WithFields(logrus.Fields{"from": e.config.From, "to": e.config.To}).Info("Starting backtest run")

	result, err := e.run(ctx)
	if err != nil {
		metrics.RecordBacktestRun("failure", time.Since(start).Seconds(), 0)
		return nil, err
	}

	metrics.RecordBacktestRun("success", time.Since(start).Seconds(), result.Metrics.BrierScore)
	e.logger.WithFields(logrus.Fields{
		"evaluated":   result.Metrics.Evaluated,
		"skipped":     result.Metrics.Skipped,
		"brier":       result.Metrics.BrierScore,
		"log_loss":    result.Metrics.LogLoss,
		"bets":        result.Metrics.TotalBets,
		"roi":         result.Metrics.ROI,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Backtest completed")
	return result, nil
}

func (e *Engine) run(ctx context.Context) (*Result, error) {
	history, err := e.fixtures.ListFinished(ctx, time.Time{}, e.config.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	quotes, err := e.odds.QuotesBetween(ctx, e.config.From, e.config.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load odds: %w", err)
	}

	state, err := e.Replay(ctx, history, quotes)
	if err != nil {
		return nil, err
	}

	result := &Result{State: state, Metrics: CalculateMetrics(state, e.config)}
	if e.config.MonteCarloIterations > 0 && len(state.Bets) > 0 {
		mc := RunMonteCarlo(state.Bets, MonteCarloConfig{Iterations: e.config.MonteCarloIterations, Seed: e.config.Seed})
		result.MonteCarlo = &mc
	}
	return result, nil
}

// Replay walks finished fixtures forward in kickoff order. Each fixture in
// the window is forecast from a rating snapshot and form windows that contain
// only fixtures kicking off strictly earlier, and priced only from quotes
// observed before kickoff. Fixtures sharing a kickoff are all forecast before
// any of them is applied.
func (e *Engine) Replay(ctx context.Context, history []models.Fixture, quotes []models.OddsQuote) (*State, error) {
	ordered := make([]models.Fixture, 0, len(history))
	for _, f := range history {
		if f.IsFinished() {
			ordered = append(ordered, f)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Kickoff.Equal(ordered[j].Kickoff) {
			return ordered[i].Kickoff.Before(ordered[j].Kickoff)
		}
		return ordered[i].ID < ordered[j].ID
	})

	quotesByFixture := make(map[int64][]models.OddsQuote)
	for _, q := range quotes {
		quotesByFixture[q.FixtureID] = append(quotesByFixture[q.FixtureID], q)
	}

	state := NewState()
	table := probability.NewRatingTable(e.config.Model.Elo)
	byTeam := make(map[int64][]models.Fixture)

	for i := 0; i < len(ordered); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		j := i
		for j < len(ordered) && ordered[j].Kickoff.Equal(ordered[i].Kickoff) {
			j++
		}
		group := ordered[i:j]

		snapshot := table.Snapshot()
		for _, f := range group {
			if f.Kickoff.Before(e.config.From) || !f.Kickoff.Before(e.config.To) {
				continue
			}
			e.score(f, byTeam, quotesByFixture[f.ID], snapshot, state)
		}

		for _, f := range group {
			if _, _, err := table.Apply(f); err != nil {
				e.logger.WithError(err).WithField("fixture_id", f.ID).Warn("Fixture not applied to ratings")
				continue
			}
			byTeam[f.HomeTeamID] = append(byTeam[f.HomeTeamID], f)
			byTeam[f.AwayTeamID] = append(byTeam[f.AwayTeamID], f)
		}
		i = j
	}
	return state, nil
}

// score forecasts one finished fixture as if it had not been played
func (e *Engine) score(f models.Fixture, byTeam map[int64][]models.Fixture, quotes []models.OddsQuote, snapshot *probability.RatingSnapshot, state *State) {
	actual, _ := f.Result()
	final := *f.Score

	pending := f
	pending.Status = models.FixtureScheduled
	pending.Score = nil

	lookback := e.config.Model.LookbackMatches
	eval, err := e.engine.Evaluate(analysis.FixtureInput{
		Fixture:     pending,
		HomeHistory: probability.Window(f.HomeTeamID, byTeam[f.HomeTeamID], f.Kickoff, lookback),
		AwayHistory: probability.Window(f.AwayTeamID, byTeam[f.AwayTeamID], f.Kickoff, lookback),
		Quotes:      beforeKickoff(quotes, f.Kickoff),
		Ratings:     snapshot,
		AsOf:        f.Kickoff,
	})
	if err != nil {
		reason := analysis.FailureReason(err)
		state.RecordSkipped(reason)
		if !errors.Is(err, models.ErrInsufficientData) {
			e.logger.WithError(err).WithField("fixture_id", f.ID).Debug("Fixture skipped")
		}
		return
	}

	state.RecordPrediction(PredictionRecord{
		FixtureID:      f.ID,
		Kickoff:        f.Kickoff,
		Outcome:        eval.Prediction.Outcome,
		Confidence:     eval.Prediction.Confidence,
		Actual:         actual,
		RatingsVersion: snapshot.Version(),
	})

	for _, c := range analysis.Select(eval.Candidates, e.config.Filter()) {
		state.RecordBet(Settle(c, final), f.Kickoff)
	}
}

// beforeKickoff drops quotes observed at or after kickoff
func beforeKickoff(quotes []models.OddsQuote, kickoff time.Time) []models.OddsQuote {
	out := make([]models.OddsQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.ObservedAt.Before(kickoff) {
			out = append(out, q)
		}
	}
	return out
}

// Settle grades a candidate against the final score at a one-unit stake.
// An over/under total landing exactly on the line, or an unknown selection,
// is void.
func Settle(c models.ValueBetCandidate, score models.Score) SettledBet {
	bet := SettledBet{ValueBetCandidate: c}

	var won bool
	switch c.Market {
	case models.MarketMatchWinner:
		switch c.Selection {
		case models.SelectionHome:
			won = score.Home > score.Away
		case models.SelectionDraw:
			won = score.Home == score.Away
		case models.SelectionAway:
			won = score.Home < score.Away
		default:
			bet.Void = true
		}
	case models.MarketBTTS:
		both := score.Home > 0 && score.Away > 0
		switch c.Selection {
		case models.SelectionYes:
			won = both
		case models.SelectionNo:
			won = !both
		default:
			bet.Void = true
		}
	case models.MarketOverUnder:
		side, line, ok := models.ParseTotalSelection(c.Selection)
		if !ok {
			bet.Void = true
			break
		}
		threshold, err := strconv.ParseFloat(line, 64)
		if err != nil {
			bet.Void = true
			break
		}
		total := float64(score.Home + score.Away)
		switch {
		case total == threshold:
			bet.Void = true
		case side == "Over":
			won = total > threshold
		default:
			won = total < threshold
		}
	default:
		bet.Void = true
	}

	switch {
	case bet.Void:
		bet.Profit = 0
	case won:
		bet.Won = true
		bet.Profit = c.Odds - 1
	default:
		bet.Profit = -1
	}
	return bet
}
