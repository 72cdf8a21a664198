package models

import (
	"fmt"
	"time"
)

// FixtureStatus is the lifecycle state of a fixture
type FixtureStatus string

const (
	FixtureScheduled FixtureStatus = "scheduled"
	FixtureInPlay    FixtureStatus = "in_play"
	FixtureFinished  FixtureStatus = "finished"
)

// Score is the final score of a finished fixture
type Score struct {
	Home int `db:"home_goals" json:"home" validate:"gte=0"`
	Away int `db:"away_goals" json:"away" validate:"gte=0"`
}

// MatchResult is the 1X2 outcome of a finished fixture
type MatchResult string

const (
	ResultHomeWin MatchResult = "home_win"
	ResultDraw    MatchResult = "draw"
	ResultAwayWin MatchResult = "away_win"
)

// Fixture represents a single scheduled or completed match
type Fixture struct {
	ID         int64         `db:"id" json:"id" validate:"required,gt=0"`
	Kickoff    time.Time     `db:"kickoff" json:"kickoff" validate:"required"`
	LeagueID   int64         `db:"league_id" json:"league_id" validate:"required,gt=0"`
	LeagueName string        `db:"league_name" json:"league_name"`
	Season     int           `db:"season" json:"season"`
	HomeTeamID int64         `db:"home_team_id" json:"home_team_id" validate:"required,gt=0,nefield=AwayTeamID"`
	HomeTeam   string        `db:"home_team" json:"home_team"`
	AwayTeamID int64         `db:"away_team_id" json:"away_team_id" validate:"required,gt=0"`
	AwayTeam   string        `db:"away_team" json:"away_team"`
	Status     FixtureStatus `db:"status" json:"status" validate:"required,oneof=scheduled in_play finished"`
	Score      *Score        `db:"-" json:"score,omitempty"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// IsFinished reports whether the fixture has a final score
func (f *Fixture) IsFinished() bool {
	return f.Status == FixtureFinished && f.Score != nil
}

// Involves reports whether the team played in the fixture
func (f *Fixture) Involves(teamID int64) bool {
	return f.HomeTeamID == teamID || f.AwayTeamID == teamID
}

// Result returns the 1X2 outcome of a finished fixture
func (f *Fixture) Result() (MatchResult, bool) {
	if !f.IsFinished() {
		return "", false
	}
	switch {
	case f.Score.Home > f.Score.Away:
		return ResultHomeWin, true
	case f.Score.Home < f.Score.Away:
		return ResultAwayWin, true
	default:
		return ResultDraw, true
	}
}

// GoalsFor returns goals scored and conceded by the team in a finished fixture
func (f *Fixture) GoalsFor(teamID int64) (scored, conceded int, ok bool) {
	if !f.IsFinished() || !f.Involves(teamID) {
		return 0, 0, false
	}
	if f.HomeTeamID == teamID {
		return f.Score.Home, f.Score.Away, true
	}
	return f.Score.Away, f.Score.Home, true
}

// Transition moves the fixture to the next status. Finished fixtures are immutable
// and statuses only move forward: scheduled -> in_play -> finished.
func (f *Fixture) Transition(next FixtureStatus, score *Score) error {
	if f.Status == FixtureFinished {
		if next == FixtureFinished && score != nil && f.Score != nil && *score == *f.Score {
			return nil
		}
		return fmt.Errorf("%w: fixture %d is finished", ErrFixtureImmutable, f.ID)
	}
	if statusRank(next) < statusRank(f.Status) {
		return fmt.Errorf("%w: fixture %d cannot move from %s to %s", ErrInvalidTransition, f.ID, f.Status, next)
	}
	if next == FixtureFinished {
		if score == nil {
			return NewValidationError("missing_score", fmt.Sprintf("fixture %d finished without a score", f.ID))
		}
		if score.Home < 0 || score.Away < 0 {
			return NewValidationError("negative_score", fmt.Sprintf("fixture %d has a negative score", f.ID))
		}
		s := *score
		f.Score = &s
	}
	f.Status = next
	return nil
}

func statusRank(s FixtureStatus) int {
	switch s {
	case FixtureScheduled:
		return 0
	case FixtureInPlay:
		return 1
	case FixtureFinished:
		return 2
	default:
		return -1
	}
}
