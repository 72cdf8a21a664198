package analysis

import (
	"fmt"
	"time"

	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/odds"
	"github.com/yourusername/valuebet/internal/probability"
)

// FixtureInput is a complete snapshot for evaluating one fixture. AsOf bounds
// which quotes are used; zero means the latest available.
type FixtureInput struct {
	Fixture     models.Fixture
	HomeHistory []models.Fixture
	AwayHistory []models.Fixture
	Quotes      []models.OddsQuote
	Ratings     *probability.RatingSnapshot
	AsOf        time.Time
}

// FixtureEvaluation is the full result for one fixture. Candidates are
// sorted and ranked but not filtered.
type FixtureEvaluation struct {
	Fixture    models.Fixture
	Prediction *models.Prediction
	Books      []*odds.MarketBook
	Candidates []models.ValueBetCandidate
	// Skipped holds InvalidMarketError and UnsupportedMarketError values for
	// markets that were excluded.
	Skipped []error
}

// Engine evaluates fixtures. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	model *probability.Model
}

// NewEngine creates an engine around a probability model
func NewEngine(model *probability.Model) *Engine {
	return &Engine{model: model}
}

// Model returns the underlying probability model
func (e *Engine) Model() *probability.Model {
	return e.model
}

// Evaluate runs the model, the normalizer and the edge evaluator for one
// fixture. Finished fixtures are rejected.
func (e *Engine) Evaluate(in FixtureInput) (*FixtureEvaluation, error) {
	if in.Fixture.Status == models.FixtureFinished {
		return nil, fmt.Errorf("%w: fixture %d is finished", models.ErrFixtureNotEvaluable, in.Fixture.ID)
	}

	prediction, err := e.model.Predict(probability.Input{
		Fixture:     in.Fixture,
		HomeHistory: in.HomeHistory,
		AwayHistory: in.AwayHistory,
		Ratings:     in.Ratings,
	})
	if err != nil {
		return nil, err
	}

	normalized := odds.NormalizeFixture(in.Fixture.ID, in.Quotes, in.AsOf)
	candidates, unsupported := EvaluateEdges(in.Fixture, prediction, normalized.Books)
	if candidates == nil {
		candidates = []models.ValueBetCandidate{}
	}
	Sort(candidates)

	skipped := make([]error, 0, len(normalized.Skipped)+len(unsupported))
	skipped = append(skipped, normalized.Skipped...)
	skipped = append(skipped, unsupported...)

	return &FixtureEvaluation{
		Fixture:    in.Fixture,
		Prediction: prediction,
		Books:      normalized.Books,
		Candidates: candidates,
		Skipped:    skipped,
	}, nil
}
