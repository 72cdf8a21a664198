package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/valuebet/internal/models"
)

func newTestValidator() *DataValidator {
	v := NewDataValidator()
	v.now = func() time.Time { return testNow }
	return v
}

func validationCode(err error) string {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

func TestValidateFixture(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Fixture)
		code   string
	}{
		{"valid scheduled", func(f *models.Fixture) {}, ""},
		{"valid finished", func(f *models.Fixture) {
			f.Status = models.FixtureFinished
			f.Score = &models.Score{Home: 1, Away: 1}
		}, ""},
		{"finished without score", func(f *models.Fixture) { f.Status = models.FixtureFinished }, "missing_score"},
		{"negative score", func(f *models.Fixture) {
			f.Status = models.FixtureFinished
			f.Score = &models.Score{Home: -1, Away: 0}
		}, "negative_score"},
		{"same teams", func(f *models.Fixture) { f.AwayTeamID = f.HomeTeamID }, "invalid_hometeamid"},
		{"missing league", func(f *models.Fixture) { f.LeagueID = 0 }, "invalid_leagueid"},
		{"unknown status", func(f *models.Fixture) { f.Status = "abandoned" }, "invalid_status"},
		{"kickoff too far ahead", func(f *models.Fixture) { f.Kickoff = testNow.AddDate(2, 0, 0) }, "kickoff_out_of_range"},
		{"kickoff too old", func(f *models.Fixture) { f.Kickoff = testNow.AddDate(-6, 0, 0) }, "kickoff_out_of_range"},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := scheduledFixture(100, 1, 2)
			tt.mutate(&f)

			err := v.ValidateFixture(&f)

			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, validationCode(err))
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestValidateQuote(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.OddsQuote)
		code   string
	}{
		{"valid", func(q *models.OddsQuote) {}, ""},
		{"even money floor", func(q *models.OddsQuote) { q.Odds = 1.0 }, "odds_not_above_one"},
		{"absurd price", func(q *models.OddsQuote) { q.Odds = 5000 }, "odds_out_of_range"},
		{"missing bookmaker", func(q *models.OddsQuote) { q.Bookmaker = "" }, "invalid_bookmaker"},
		{"missing fixture", func(q *models.OddsQuote) { q.FixtureID = 0 }, "invalid_fixtureid"},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := quote(100, models.MarketMatchWinner, models.SelectionHome, 2.5)
			tt.mutate(&q)

			err := v.ValidateQuote(&q)

			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, validationCode(err))
		})
	}
}
