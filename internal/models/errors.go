package models

import (
	"errors"
	"fmt"
	"strings"
)

// Custom errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrInsufficientData    = errors.New("insufficient historical data")
	ErrInvalidMarket       = errors.New("invalid market")
	ErrUnsupportedMarket   = errors.New("unsupported market")
	ErrValidation          = errors.New("validation failed")
	ErrFixtureImmutable    = errors.New("fixture is immutable")
	ErrInvalidTransition   = errors.New("invalid fixture status transition")
	ErrFixtureNotEvaluable = errors.New("fixture is not open for evaluation")
)

// InsufficientDataError is returned when neither team has any finished match in
// the data source. It is fatal for the fixture being evaluated.
type InsufficientDataError struct {
	FixtureID  int64
	HomeTeamID int64
	AwayTeamID int64
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("fixture %d: no historical matches for team %d or team %d", e.FixtureID, e.HomeTeamID, e.AwayTeamID)
}

// Is matches ErrInsufficientData
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// InvalidMarketError is returned when a market lacks prices for some of its selections
type InvalidMarketError struct {
	FixtureID int64
	Market    string
	Missing   []string
}

func (e *InvalidMarketError) Error() string {
	return fmt.Sprintf("fixture %d market %q: missing selections [%s]", e.FixtureID, e.Market, strings.Join(e.Missing, ", "))
}

// Is matches ErrInvalidMarket
func (e *InvalidMarketError) Is(target error) bool {
	return target == ErrInvalidMarket
}

// UnsupportedMarketError is returned for markets without a probability model
type UnsupportedMarketError struct {
	Market string
}

func (e *UnsupportedMarketError) Error() string {
	return fmt.Sprintf("market %q has no probability model", e.Market)
}

// Is matches ErrUnsupportedMarket
func (e *UnsupportedMarketError) Is(target error) bool {
	return target == ErrUnsupportedMarket
}

// ValidationError is raised at ingestion for malformed input
type ValidationError struct {
	Code    string
	Message string
}

// NewValidationError creates a validation error with a machine-readable code
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
