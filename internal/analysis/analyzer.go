package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/valuebet/internal/logger"
	"github.com/yourusername/valuebet/internal/metrics"
	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/probability"
)

const (
	defaultWorkers = 8
	defaultHorizon = 7 * 24 * time.Hour
)

// FixtureSource looks up fixtures
type FixtureSource interface {
	GetFixture(ctx context.Context, id int64) (*models.Fixture, error)
	ListUpcoming(ctx context.Context, from, to time.Time, leagueID *int64) ([]models.Fixture, error)
}

// ResultsSource returns a team's finished fixtures that kicked off before a
// time, ordered by kickoff ascending, at most limit of the most recent.
type ResultsSource interface {
	TeamHistory(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.Fixture, error)
}

// OddsSource returns every recorded quote for a fixture. An empty market
// means all markets.
type OddsSource interface {
	QuotesForFixture(ctx context.Context, fixtureID int64, market string) ([]models.OddsQuote, error)
}

// RatingSource provides the current rating snapshot
type RatingSource interface {
	Snapshot() *probability.RatingSnapshot
}

// ScanRequest selects the fixtures of a batch evaluation. A zero window
// defaults to the next seven days; a filter date overrides the window.
type ScanRequest struct {
	From   time.Time
	To     time.Time
	Filter models.SelectionFilter
}

// Analyzer loads snapshots through accessors and runs the engine over one
// fixture or a batch.
type Analyzer struct {
	engine   *Engine
	fixtures FixtureSource
	results  ResultsSource
	odds     OddsSource
	ratings  RatingSource
	log      *logger.AnalysisLogger
	workers  int
	horizon  time.Duration
	now      func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithWorkers bounds the number of fixtures evaluated concurrently
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithHorizon sets the default scan window
func WithHorizon(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.horizon = d
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(engine *Engine, fixtures FixtureSource, results ResultsSource, odds OddsSource, ratings RatingSource, log *logger.AnalysisLogger, opts ...Option) *Analyzer {
	a := &Analyzer{
		engine:   engine,
		fixtures: fixtures,
		results:  results,
		odds:     odds,
		ratings:  ratings,
		log:      log,
		workers:  defaultWorkers,
		horizon:  defaultHorizon,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engine returns the pure engine
func (a *Analyzer) Engine() *Engine {
	return a.engine
}

// load builds the evaluation snapshot for a fixture
func (a *Analyzer) load(ctx context.Context, fixture models.Fixture, ratings *probability.RatingSnapshot) (FixtureInput, error) {
	lookback := a.engine.Model().Params().LookbackMatches

	homeHistory, err := a.results.TeamHistory(ctx, fixture.HomeTeamID, fixture.Kickoff, lookback)
	if err != nil {
		return FixtureInput{}, fmt.Errorf("load home history for fixture %d: %w", fixture.ID, err)
	}
	awayHistory, err := a.results.TeamHistory(ctx, fixture.AwayTeamID, fixture.Kickoff, lookback)
	if err != nil {
		return FixtureInput{}, fmt.Errorf("load away history for fixture %d: %w", fixture.ID, err)
	}
	quotes, err := a.odds.QuotesForFixture(ctx, fixture.ID, "")
	if err != nil {
		return FixtureInput{}, fmt.Errorf("load odds for fixture %d: %w", fixture.ID, err)
	}

	return FixtureInput{
		Fixture:     fixture,
		HomeHistory: homeHistory,
		AwayHistory: awayHistory,
		Quotes:      quotes,
		Ratings:     ratings,
		AsOf:        a.now(),
	}, nil
}

// EvaluateFixture evaluates one fixture by id
func (a *Analyzer) EvaluateFixture(ctx context.Context, fixtureID int64) (*FixtureEvaluation, error) {
	fixture, err := a.fixtures.GetFixture(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("get fixture %d: %w", fixtureID, err)
	}
	return a.evaluate(ctx, *fixture, a.ratings.Snapshot())
}

func (a *Analyzer) evaluate(ctx context.Context, fixture models.Fixture, ratings *probability.RatingSnapshot) (*FixtureEvaluation, error) {
	start := time.Now()

	in, err := a.load(ctx, fixture, ratings)
	if err != nil {
		metrics.RecordFixtureEvaluation("error", time.Since(start).Seconds())
		return nil, err
	}

	eval, err := a.engine.Evaluate(in)
	if err != nil {
		metrics.RecordFixtureEvaluation(FailureReason(err), time.Since(start).Seconds())
		return nil, err
	}

	for _, skipped := range eval.Skipped {
		if errors.Is(skipped, models.ErrUnsupportedMarket) {
			metrics.RecordMarketSkipped("unsupported")
		} else {
			metrics.RecordMarketSkipped("invalid")
		}
	}
	duration := time.Since(start)
	metrics.RecordFixtureEvaluation("ok", duration.Seconds())
	a.log.LogFixtureEvaluation(fixture.ID, string(eval.Prediction.Confidence), len(eval.Books), len(eval.Skipped), len(eval.Candidates), float64(duration.Microseconds())/1000)
	return eval, nil
}

// Predict returns the model output for a fixture without odds
func (a *Analyzer) Predict(ctx context.Context, fixtureID int64) (*models.Prediction, error) {
	fixture, err := a.fixtures.GetFixture(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("get fixture %d: %w", fixtureID, err)
	}
	in, err := a.load(ctx, *fixture, a.ratings.Snapshot())
	if err != nil {
		return nil, err
	}
	return a.engine.Model().Predict(probability.Input{
		Fixture:     in.Fixture,
		HomeHistory: in.HomeHistory,
		AwayHistory: in.AwayHistory,
		Ratings:     in.Ratings,
	})
}

// TeamForm returns a team's form over the lookback window before asOf.
// A team with no finished fixtures yields models.ErrNotFound.
func (a *Analyzer) TeamForm(ctx context.Context, teamID int64, asOf time.Time) (models.TeamForm, error) {
	lookback := a.engine.Model().Params().LookbackMatches
	history, err := a.results.TeamHistory(ctx, teamID, asOf, lookback)
	if err != nil {
		return models.TeamForm{}, fmt.Errorf("load history for team %d: %w", teamID, err)
	}
	window := probability.Window(teamID, history, asOf, lookback)
	if len(window) == 0 {
		return models.TeamForm{}, fmt.Errorf("team %d: %w", teamID, models.ErrNotFound)
	}
	return probability.BuildForm(teamID, window, asOf, a.ratings.Snapshot().Rating(teamID)), nil
}

// Scan evaluates every upcoming fixture in the request window with a bounded
// worker pool and selects value bets from the merged candidates. Fixtures
// that fail are recorded in the run and do not abort the batch. All fixtures
// share one rating snapshot.
func (a *Analyzer) Scan(ctx context.Context, req ScanRequest) (*models.AnalysisRun, error) {
	started := a.now()
	from, to := a.window(req, started)

	fixtures, err := a.fixtures.ListUpcoming(ctx, from, to, req.Filter.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("list upcoming fixtures: %w", err)
	}

	ratings := a.ratings.Snapshot()
	type outcome struct {
		candidates []models.ValueBetCandidate
		failure    *models.FixtureFailure
	}
	outcomes := make([]outcome, len(fixtures))

	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i := range fixtures {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			fixture := fixtures[i]
			if ctx.Err() != nil {
				outcomes[i].failure = &models.FixtureFailure{FixtureID: fixture.ID, Reason: "cancelled", Err: ctx.Err()}
				return
			}
			eval, err := a.evaluate(ctx, fixture, ratings)
			if err != nil {
				reason := FailureReason(err)
				a.log.LogFixtureSkipped(fixture.ID, reason, err)
				outcomes[i].failure = &models.FixtureFailure{FixtureID: fixture.ID, Reason: reason, Err: err}
				return
			}
			outcomes[i].candidates = eval.Candidates
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &models.AnalysisRun{
		ID:        uuid.New().String(),
		StartedAt: started,
		Evaluated: len(fixtures),
		Failures:  []models.FixtureFailure{},
	}
	var all []models.ValueBetCandidate
	for _, o := range outcomes {
		if o.failure != nil {
			run.Failures = append(run.Failures, *o.failure)
			continue
		}
		all = append(all, o.candidates...)
	}
	run.Candidates = Select(all, req.Filter)
	run.FinishedAt = a.now()

	duration := run.FinishedAt.Sub(started)
	metrics.RecordScan(len(run.Candidates), duration.Seconds())
	a.log.LogSelection(run.ID, run.Evaluated, len(run.Failures), len(all), len(run.Candidates), req.Filter.MinEdge, float64(duration.Milliseconds()))
	return run, nil
}

func (a *Analyzer) window(req ScanRequest, now time.Time) (time.Time, time.Time) {
	if req.Filter.Date != nil {
		d := req.Filter.Date.UTC()
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		return from, from.Add(24 * time.Hour)
	}
	from, to := req.From, req.To
	if from.IsZero() {
		from = now
	}
	if to.IsZero() {
		to = from.Add(a.horizon)
	}
	return from, to
}

// FailureReason maps an evaluation error to a short reason code
func FailureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, models.ErrFixtureNotEvaluable):
		return "not_evaluable"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
