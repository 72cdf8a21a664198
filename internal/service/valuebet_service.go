package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/valuebet/internal/analysis"
	"github.com/yourusername/valuebet/internal/metrics"
	"github.com/yourusername/valuebet/internal/models"
)

// Cache kinds
const (
	cacheKindValueBets  = "value-bets"
	cacheKindPrediction = "prediction"
	cacheKindBetting    = "betting"
)

// ValueBetService serves analysis results to the API and scheduler, caching
// them per rating version.
type ValueBetService struct {
	analyzer *analysis.Analyzer
	ratings  analysis.RatingSource
	cache    *ResultCache
	defaults models.SelectionFilter
	now      func() time.Time
}

// NewValueBetService creates a value-bet service
func NewValueBetService(analyzer *analysis.Analyzer, ratings analysis.RatingSource, cache *ResultCache, defaults models.SelectionFilter) *ValueBetService {
	return &ValueBetService{
		analyzer: analyzer,
		ratings:  ratings,
		cache:    cache,
		defaults: defaults,
		now:      time.Now,
	}
}

// DefaultFilter returns the configured selection filter
func (s *ValueBetService) DefaultFilter() models.SelectionFilter {
	return s.defaults
}

func (s *ValueBetService) key(kind, subject string) CacheKey {
	return CacheKey{Kind: kind, Subject: subject, RatingsVersion: s.ratings.Snapshot().Version()}
}

// ValueBets scans upcoming fixtures and selects value bets
func (s *ValueBetService) ValueBets(ctx context.Context, filter models.SelectionFilter) (*models.AnalysisRun, error) {
	key := s.key(cacheKindValueBets, FilterKey(filter))
	if cached, ok := s.cache.Get(key); ok {
		if run, ok := cached.(*models.AnalysisRun); ok {
			return run, nil
		}
	}

	run, err := s.analyzer.Scan(ctx, analysis.ScanRequest{Filter: filter})
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, run)
	return run, nil
}

// Predict returns the model output for one fixture
func (s *ValueBetService) Predict(ctx context.Context, fixtureID int64) (*models.Prediction, error) {
	key := s.key(cacheKindPrediction, strconv.FormatInt(fixtureID, 10))
	if cached, ok := s.cache.Get(key); ok {
		if pred, ok := cached.(*models.Prediction); ok {
			return pred, nil
		}
	}

	pred, err := s.analyzer.Predict(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, pred)
	return pred, nil
}

// Betting returns every evaluated candidate for one fixture, unfiltered
func (s *ValueBetService) Betting(ctx context.Context, fixtureID int64) (*analysis.FixtureEvaluation, error) {
	key := s.key(cacheKindBetting, strconv.FormatInt(fixtureID, 10))
	if cached, ok := s.cache.Get(key); ok {
		if eval, ok := cached.(*analysis.FixtureEvaluation); ok {
			return eval, nil
		}
	}

	eval, err := s.analyzer.EvaluateFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, eval)
	return eval, nil
}

// TeamForm returns a team's current form
func (s *ValueBetService) TeamForm(ctx context.Context, teamID int64) (models.TeamForm, error) {
	return s.analyzer.TeamForm(ctx, teamID, s.now())
}

// Refresh drops cached odds-dependent results and recomputes the default
// value-bet list. Predictions stay cached until the rating version moves.
func (s *ValueBetService) Refresh(ctx context.Context) (*models.AnalysisRun, error) {
	s.cache.InvalidateKind(cacheKindValueBets)
	s.cache.InvalidateKind(cacheKindBetting)
	run, err := s.ValueBets(ctx, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("refresh value bets: %w", err)
	}
	metrics.UpdateLastScanCandidates(len(run.Candidates))
	return run, nil
}

// FilterKey renders a filter as a stable cache key
func FilterKey(f models.SelectionFilter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "min=%s;max=%d", strconv.FormatFloat(f.MinEdge, 'f', -1, 64), f.MaxResults)
	if f.LeagueID != nil {
		fmt.Fprintf(&b, ";league=%d", *f.LeagueID)
	}
	if f.Date != nil {
		fmt.Fprintf(&b, ";date=%s", f.Date.UTC().Format("2006-01-02"))
	}
	if len(f.Markets) > 0 {
		markets := append([]string(nil), f.Markets...)
		sort.Strings(markets)
		fmt.Fprintf(&b, ";markets=%s", strings.Join(markets, ","))
	}
	return b.String()
}
