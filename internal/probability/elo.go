package probability

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/valuebet/internal/models"
)

// EloParams configures the rating system
type EloParams struct {
	InitialRating   float64
	KFactor         float64
	HomeAdvantage   float64
	DrawProbability float64
}

// DefaultEloParams returns 1500 initial, K=40, +100 home, 0.3 draw
func DefaultEloParams() EloParams {
	return EloParams{
		InitialRating:   1500,
		KFactor:         40,
		HomeAdvantage:   100,
		DrawProbability: 0.3,
	}
}

// Rating is one team's strength at a table version
type Rating struct {
	TeamID    int64     `db:"team_id" json:"team_id"`
	Rating    float64   `db:"rating" json:"rating"`
	Matches   int       `db:"matches" json:"matches"`
	Version   uint64    `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RatingUpdate describes the effect of applying one finished fixture
type RatingUpdate struct {
	FixtureID  int64
	HomeTeamID int64
	AwayTeamID int64
	HomeBefore float64
	HomeAfter  float64
	AwayBefore float64
	AwayAfter  float64
	Version    uint64

	homePrev Rating
	awayPrev Rating
}

type ratingEntry struct {
	mu     sync.Mutex
	rating Rating
}

// RatingTable owns team ratings. Updates for one team are serialized by that
// team's lock; updates touching disjoint teams run in parallel. Entries are
// never removed once created.
type RatingTable struct {
	params EloParams

	// mu guards the entries map. Updates hold it for reading for their whole
	// critical section so Snapshot can take a consistent cut.
	mu      sync.RWMutex
	entries map[int64]*ratingEntry

	appliedMu sync.Mutex
	applied   map[int64]struct{}

	version atomic.Uint64
	now     func() time.Time
}

// NewRatingTable creates an empty table
func NewRatingTable(params EloParams) *RatingTable {
	return &RatingTable{
		params:  params,
		entries: make(map[int64]*ratingEntry),
		applied: make(map[int64]struct{}),
		now:     time.Now,
	}
}

// Params returns the rating parameters
func (t *RatingTable) Params() EloParams {
	return t.params
}

// Version returns the number of applied updates
func (t *RatingTable) Version() uint64 {
	return t.version.Load()
}

// Restore loads persisted ratings and the set of fixtures they already
// include. It replaces any existing state.
func (t *RatingTable) Restore(ratings []Rating, appliedFixtures []int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make(map[int64]*ratingEntry, len(ratings))
	var maxVersion uint64
	for _, r := range ratings {
		t.entries[r.TeamID] = &ratingEntry{rating: r}
		if r.Version > maxVersion {
			maxVersion = r.Version
		}
	}

	t.appliedMu.Lock()
	t.applied = make(map[int64]struct{}, len(appliedFixtures))
	for _, id := range appliedFixtures {
		t.applied[id] = struct{}{}
	}
	t.appliedMu.Unlock()

	t.version.Store(maxVersion)
}

// Applied reports whether a fixture has already been folded into the table
func (t *RatingTable) Applied(fixtureID int64) bool {
	t.appliedMu.Lock()
	defer t.appliedMu.Unlock()
	_, ok := t.applied[fixtureID]
	return ok
}

// Apply folds one finished fixture into both teams' ratings. Applying the same
// fixture twice is a no-op and returns applied=false.
func (t *RatingTable) Apply(f models.Fixture) (update RatingUpdate, applied bool, err error) {
	result, ok := f.Result()
	if !ok {
		return RatingUpdate{}, false, fmt.Errorf("%w: fixture %d", models.ErrFixtureNotEvaluable, f.ID)
	}
	if f.HomeTeamID == f.AwayTeamID {
		return RatingUpdate{}, false, models.NewValidationError("same_team", fmt.Sprintf("fixture %d has identical teams", f.ID))
	}

	t.appliedMu.Lock()
	if _, dup := t.applied[f.ID]; dup {
		t.appliedMu.Unlock()
		return RatingUpdate{}, false, nil
	}
	t.applied[f.ID] = struct{}{}
	t.appliedMu.Unlock()

	home := t.entry(f.HomeTeamID)
	away := t.entry(f.AwayTeamID)

	t.mu.RLock()
	defer t.mu.RUnlock()

	first, second := home, away
	if f.AwayTeamID < f.HomeTeamID {
		first, second = away, home
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	actualHome := actualScore(result)
	expectedHome := ExpectedScore(home.rating.Rating+t.params.HomeAdvantage, away.rating.Rating)
	delta := t.params.KFactor * (actualHome - expectedHome)

	version := t.version.Add(1)
	now := t.now().UTC()

	update = RatingUpdate{
		FixtureID:  f.ID,
		HomeTeamID: f.HomeTeamID,
		AwayTeamID: f.AwayTeamID,
		HomeBefore: home.rating.Rating,
		AwayBefore: away.rating.Rating,
		Version:    version,
		homePrev:   home.rating,
		awayPrev:   away.rating,
	}

	home.rating.Rating += delta
	home.rating.Matches++
	home.rating.Version = version
	home.rating.UpdatedAt = now

	away.rating.Rating -= delta
	away.rating.Matches++
	away.rating.Version = version
	away.rating.UpdatedAt = now

	update.HomeAfter = home.rating.Rating
	update.AwayAfter = away.rating.Rating
	return update, true, nil
}

// Revert undoes an update returned by Apply and clears the fixture's applied
// mark. It returns false, changing nothing, when either team has been updated
// again since.
func (t *RatingTable) Revert(update RatingUpdate) bool {
	t.mu.RLock()
	home, okHome := t.entries[update.HomeTeamID]
	away, okAway := t.entries[update.AwayTeamID]
	if !okHome || !okAway {
		t.mu.RUnlock()
		return false
	}

	first, second := home, away
	if update.AwayTeamID < update.HomeTeamID {
		first, second = away, home
	}
	first.mu.Lock()
	second.mu.Lock()
	reverted := home.rating.Version == update.Version && away.rating.Version == update.Version
	if reverted {
		home.rating = update.homePrev
		away.rating = update.awayPrev
	}
	second.mu.Unlock()
	first.mu.Unlock()
	t.mu.RUnlock()

	if reverted {
		t.appliedMu.Lock()
		delete(t.applied, update.FixtureID)
		t.appliedMu.Unlock()
	}
	return reverted
}

// Get returns the team's current rating
func (t *RatingTable) Get(teamID int64) (Rating, bool) {
	t.mu.RLock()
	e, ok := t.entries[teamID]
	t.mu.RUnlock()
	if !ok {
		return Rating{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rating, true
}

// entry returns the team's entry, creating it at the initial rating
func (t *RatingTable) entry(teamID int64) *ratingEntry {
	t.mu.RLock()
	e, ok := t.entries[teamID]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok = t.entries[teamID]; ok {
		return e
	}
	e = &ratingEntry{rating: Rating{TeamID: teamID, Rating: t.params.InitialRating}}
	t.entries[teamID] = e
	return e
}

// Snapshot returns an immutable copy of the table. No update is in flight
// while the copy is taken.
func (t *RatingTable) Snapshot() *RatingSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	ratings := make(map[int64]Rating, len(t.entries))
	for id, e := range t.entries {
		e.mu.Lock()
		ratings[id] = e.rating
		e.mu.Unlock()
	}
	return &RatingSnapshot{
		params:  t.params,
		ratings: ratings,
		version: t.version.Load(),
	}
}

// AppliedFixtures returns the applied fixture ids in ascending order
func (t *RatingTable) AppliedFixtures() []int64 {
	t.appliedMu.Lock()
	ids := make([]int64, 0, len(t.applied))
	for id := range t.applied {
		ids = append(ids, id)
	}
	t.appliedMu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RebuildFromHistory replays finished fixtures in kickoff order into a fresh
// table. Fixtures that are not finished are ignored.
func RebuildFromHistory(params EloParams, history []models.Fixture) *RatingTable {
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

	table := NewRatingTable(params)
	for _, f := range ordered {
		_, _, _ = table.Apply(f)
	}
	return table
}

// RatingSnapshot is a read-only view of the table at one version
type RatingSnapshot struct {
	params  EloParams
	ratings map[int64]Rating
	version uint64
}

// NewRatingSnapshot builds a snapshot from explicit ratings
func NewRatingSnapshot(params EloParams, ratings map[int64]float64) *RatingSnapshot {
	s := &RatingSnapshot{params: params, ratings: make(map[int64]Rating, len(ratings))}
	for id, r := range ratings {
		s.ratings[id] = Rating{TeamID: id, Rating: r}
	}
	return s
}

// Version returns the table version the snapshot was taken at
func (s *RatingSnapshot) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Rating returns the team's rating, or the initial rating if unseen
func (s *RatingSnapshot) Rating(teamID int64) float64 {
	if s == nil {
		return DefaultEloParams().InitialRating
	}
	if r, ok := s.ratings[teamID]; ok {
		return r.Rating
	}
	return s.params.InitialRating
}

// Ratings returns all ratings ordered by rating descending, then team id
func (s *RatingSnapshot) Ratings() []Rating {
	if s == nil {
		return nil
	}
	out := make([]Rating, 0, len(s.ratings))
	for _, r := range s.ratings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out
}

// Predict returns the Elo-derived 1X2 triple. A fixed share of mass goes to
// the draw and the rest splits by the home expected score.
func (s *RatingSnapshot) Predict(homeTeamID, awayTeamID int64) models.OutcomeProbability {
	params := DefaultEloParams()
	if s != nil {
		params = s.params
	}
	expected := ExpectedScore(s.Rating(homeTeamID)+params.HomeAdvantage, s.Rating(awayTeamID))
	draw := clamp01(params.DrawProbability)
	h, d, a := normalize3(expected*(1-draw), draw, (1-expected)*(1-draw))
	return models.OutcomeProbability{HomeWin: h, Draw: d, AwayWin: a}
}

// ExpectedScore is the logistic expected score of a against b
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

func actualScore(result models.MatchResult) float64 {
	switch result {
	case models.ResultHomeWin:
		return 1
	case models.ResultAwayWin:
		return 0
	default:
		return 0.5
	}
}
