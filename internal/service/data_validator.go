package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/valuebet/internal/models"
)

const (
	maxKickoffPast   = 5 * 365 * 24 * time.Hour
	maxKickoffFuture = 365 * 24 * time.Hour
	maxOdds          = 1000.0
)

// DataValidator validates fixtures and odds quotes before they are stored
type DataValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewDataValidator creates a new data validator
func NewDataValidator() *DataValidator {
	return &DataValidator{
		validate: validator.New(),
		now:      time.Now,
	}
}

// ValidateFixture checks struct constraints and a plausible kickoff
func (v *DataValidator) ValidateFixture(f *models.Fixture) error {
	if f.Status == models.FixtureFinished && f.Score == nil {
		return models.NewValidationError("missing_score", fmt.Sprintf("fixture %d finished without a score", f.ID))
	}
	if f.Score != nil && (f.Score.Home < 0 || f.Score.Away < 0) {
		return models.NewValidationError("negative_score", fmt.Sprintf("fixture %d has a negative score", f.ID))
	}
	if err := v.validate.Struct(f); err != nil {
		return toValidationError(fmt.Sprintf("fixture %d", f.ID), err)
	}

	now := v.now()
	if f.Kickoff.Before(now.Add(-maxKickoffPast)) || f.Kickoff.After(now.Add(maxKickoffFuture)) {
		return models.NewValidationError("kickoff_out_of_range", fmt.Sprintf("fixture %d kicks off at %s", f.ID, f.Kickoff.Format(time.RFC3339)))
	}
	return nil
}

// ValidateQuote checks struct constraints and a sane decimal price
func (v *DataValidator) ValidateQuote(q *models.OddsQuote) error {
	if q.Odds <= 1.0 {
		return models.NewValidationError("odds_not_above_one", fmt.Sprintf("fixture %d %s/%s at %s priced %.3f", q.FixtureID, q.Market, q.Selection, q.Bookmaker, q.Odds))
	}
	if q.Odds > maxOdds {
		return models.NewValidationError("odds_out_of_range", fmt.Sprintf("fixture %d %s/%s at %s priced %.3f", q.FixtureID, q.Market, q.Selection, q.Bookmaker, q.Odds))
	}
	if err := v.validate.Struct(q); err != nil {
		return toValidationError(fmt.Sprintf("quote for fixture %d", q.FixtureID), err)
	}
	return nil
}

// toValidationError flattens validator field errors into one ValidationError
func toValidationError(subject string, err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return models.NewValidationError("invalid", fmt.Sprintf("%s: %v", subject, err))
	}

	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return models.NewValidationError("invalid_"+strings.ToLower(fieldErrors[0].Field()), subject+": "+strings.Join(parts, ", "))
}
