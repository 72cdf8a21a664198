package probability

import (
	"strings"
	"time"

	"github.com/yourusername/valuebet/internal/models"
)

// formPointsWindow is the number of matches counted for PointsLast5
const formPointsWindow = 5

// Window selects the last n finished fixtures involving teamID that kicked off
// strictly before asOf. history must be ordered by kickoff ascending. The
// returned slice is ordered oldest first and shares no storage with history.
func Window(teamID int64, history []models.Fixture, asOf time.Time, n int) []models.Fixture {
	if n <= 0 {
		return nil
	}
	picked := make([]models.Fixture, 0, n)
	for i := len(history) - 1; i >= 0 && len(picked) < n; i-- {
		f := history[i]
		if !f.IsFinished() || !f.Involves(teamID) || !f.Kickoff.Before(asOf) {
			continue
		}
		picked = append(picked, f)
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}

// BuildForm computes rolling averages, the home/away split and the recent form
// summary for one team over a bounded window. It is a pure function of its
// inputs; rating is copied in from the caller's snapshot.
func BuildForm(teamID int64, window []models.Fixture, asOf time.Time, rating float64) models.TeamForm {
	form := models.TeamForm{
		TeamID:             teamID,
		AsOf:               asOf,
		Rating:             rating,
		GoalsScoredTrend:   []int{},
		GoalsConcededTrend: []int{},
	}

	var scored, conceded, homeScored, homeConceded, awayScored, awayConceded int
	for _, f := range window {
		s, c, ok := f.GoalsFor(teamID)
		if !ok {
			continue
		}
		form.Matches++
		scored += s
		conceded += c
		if f.HomeTeamID == teamID {
			form.HomeMatches++
			homeScored += s
			homeConceded += c
		} else {
			form.AwayMatches++
			awayScored += s
			awayConceded += c
		}
	}

	form.GoalsScoredAvg = average(scored, form.Matches)
	form.GoalsConcededAvg = average(conceded, form.Matches)
	form.HomeScoredAvg = average(homeScored, form.HomeMatches)
	form.HomeConcededAvg = average(homeConceded, form.HomeMatches)
	form.AwayScoredAvg = average(awayScored, form.AwayMatches)
	form.AwayConcededAvg = average(awayConceded, form.AwayMatches)

	var sb strings.Builder
	for i := len(window) - 1; i >= 0; i-- {
		f := window[i]
		s, c, ok := f.GoalsFor(teamID)
		if !ok {
			continue
		}
		letter, points := resultLetter(s, c)
		sb.WriteByte(letter)
		if sb.Len() <= formPointsWindow {
			form.PointsLast5 += points
		}
		form.GoalsScoredTrend = append(form.GoalsScoredTrend, s)
		form.GoalsConcededTrend = append(form.GoalsConcededTrend, c)
	}
	form.FormString = sb.String()

	return form
}

func resultLetter(scored, conceded int) (byte, int) {
	switch {
	case scored > conceded:
		return 'W', 3
	case scored < conceded:
		return 'L', 0
	default:
		return 'D', 1
	}
}

func average(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}
