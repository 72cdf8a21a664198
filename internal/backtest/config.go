package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/probability"
)

// Config selects the replay window and the model under test
type Config struct {
	// From and To bound the kickoffs that are scored, [From, To). Fixtures
	// before From still feed ratings and form.
	From                 time.Time
	To                   time.Time
	MinEdge              float64
	Markets              []string
	Model                probability.Params
	MonteCarloIterations int
	Seed                 int64
}

// DefaultConfig returns a config for the window with model defaults
func DefaultConfig(from, to time.Time) Config {
	return Config{
		From:                 from,
		To:                   to,
		MinEdge:              models.DefaultSelectionFilter().MinEdge,
		Model:                probability.DefaultParams(),
		MonteCarloIterations: 1000,
	}
}

// Validate validates backtest config parameters
func (c Config) Validate() error {
	if c.From.IsZero() || c.To.IsZero() {
		return fmt.Errorf("from and to dates are required")
	}
	if !c.From.Before(c.To) {
		return fmt.Errorf("from date must be before to date")
	}
	if c.MinEdge < -1 || c.MinEdge > 1 {
		return fmt.Errorf("min edge must be between -1 and 1")
	}
	if c.MonteCarloIterations < 0 {
		return fmt.Errorf("monte carlo iterations cannot be negative")
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("invalid model parameters: %w", err)
	}
	return nil
}

// Filter returns the selection filter applied to each fixture's candidates
func (c Config) Filter() models.SelectionFilter {
	return models.SelectionFilter{
		MinEdge: c.MinEdge,
		Markets: c.Markets,
	}
}
