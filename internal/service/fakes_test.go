package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/yourusername/valuebet/internal/datasource"
	"github.com/yourusername/valuebet/internal/logger"
	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/probability"
)

var (
	testNow     = time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	testKickoff = time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
)

// MockDataSource mocks the football data provider
type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) FetchFixtures(ctx context.Context, query datasource.FixtureQuery) ([]datasource.FixtureData, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datasource.FixtureData), args.Error(1)
}

func (m *MockDataSource) FetchOdds(ctx context.Context, query datasource.OddsQuery) ([]datasource.OddsData, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datasource.OddsData), args.Error(1)
}

func (m *MockDataSource) Name() string {
	return "mock"
}

type memFixtureRepo struct {
	mu       sync.Mutex
	fixtures map[int64]models.Fixture
}

func newMemFixtureRepo(fixtures ...models.Fixture) *memFixtureRepo {
	r := &memFixtureRepo{fixtures: make(map[int64]models.Fixture)}
	for _, f := range fixtures {
		r.fixtures[f.ID] = f
	}
	return r
}

func (r *memFixtureRepo) GetFixture(ctx context.Context, id int64) (*models.Fixture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.fixtures[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &f, nil
}

func (r *memFixtureRepo) filter(keep func(models.Fixture) bool) []models.Fixture {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Fixture{}
	for _, f := range r.fixtures {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Kickoff.Equal(out[j].Kickoff) {
			return out[i].Kickoff.Before(out[j].Kickoff)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memFixtureRepo) ListUpcoming(ctx context.Context, from, to time.Time, leagueID *int64) ([]models.Fixture, error) {
	return r.filter(func(f models.Fixture) bool {
		return f.Status != models.FixtureFinished && !f.Kickoff.Before(from) && f.Kickoff.Before(to) &&
			(leagueID == nil || f.LeagueID == *leagueID)
	}), nil
}

func (r *memFixtureRepo) ListFinished(ctx context.Context, from, to time.Time) ([]models.Fixture, error) {
	return r.filter(func(f models.Fixture) bool {
		return f.Status == models.FixtureFinished && !f.Kickoff.Before(from) && f.Kickoff.Before(to)
	}), nil
}

func (r *memFixtureRepo) TeamHistory(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.Fixture, error) {
	out := r.filter(func(f models.Fixture) bool {
		return f.Status == models.FixtureFinished && f.Kickoff.Before(before) && f.Involves(teamID)
	})
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memFixtureRepo) Upsert(ctx context.Context, f *models.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.fixtures[f.ID]; ok && cur.Status == models.FixtureFinished {
		return nil
	}
	r.fixtures[f.ID] = *f
	return nil
}

type memOddsRepo struct {
	mu     sync.Mutex
	quotes []models.OddsQuote
	reads  int
}

func (r *memOddsRepo) InsertBatch(ctx context.Context, quotes []models.OddsQuote) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes = append(r.quotes, quotes...)
	return int64(len(quotes)), nil
}

func (r *memOddsRepo) QuotesForFixture(ctx context.Context, fixtureID int64, market string) ([]models.OddsQuote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	out := []models.OddsQuote{}
	for _, q := range r.quotes {
		if q.FixtureID == fixtureID && (market == "" || q.Market == market) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *memOddsRepo) QuotesBetween(ctx context.Context, from, to time.Time) ([]models.OddsQuote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OddsQuote{}, r.quotes...), nil
}

func (r *memOddsRepo) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

type memRatingRepo struct {
	mu      sync.Mutex
	ratings map[int64]probability.Rating
	applied map[int64]bool
	saves   int
}

func newMemRatingRepo() *memRatingRepo {
	return &memRatingRepo{ratings: make(map[int64]probability.Rating), applied: make(map[int64]bool)}
}

func (r *memRatingRepo) Load(ctx context.Context) ([]probability.Rating, []int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ratings []probability.Rating
	for _, rt := range r.ratings {
		ratings = append(ratings, rt)
	}
	var applied []int64
	for id := range r.applied {
		applied = append(applied, id)
	}
	return ratings, applied, nil
}

func (r *memRatingRepo) Save(ctx context.Context, ratings []probability.Rating, appliedFixtures []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	for _, rt := range ratings {
		r.ratings[rt.TeamID] = rt
	}
	for _, id := range appliedFixtures {
		r.applied[id] = true
	}
	return nil
}

func (r *memRatingRepo) Replace(ctx context.Context, ratings []probability.Rating, appliedFixtures []int64) error {
	r.mu.Lock()
	r.ratings = make(map[int64]probability.Rating)
	r.applied = make(map[int64]bool)
	r.mu.Unlock()
	return r.Save(ctx, ratings, appliedFixtures)
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testIngestionLogger() *logger.IngestionLogger {
	return logger.NewIngestionLogger(discardLogger())
}

func finishedFixture(id, home, away int64, hg, ag, daysBefore int) models.Fixture {
	return models.Fixture{
		ID:         id,
		Kickoff:    testKickoff.AddDate(0, 0, -daysBefore),
		LeagueID:   39,
		LeagueName: "Premier League",
		Season:     2023,
		HomeTeamID: home,
		HomeTeam:   "Home FC",
		AwayTeamID: away,
		AwayTeam:   "Away FC",
		Status:     models.FixtureFinished,
		Score:      &models.Score{Home: hg, Away: ag},
	}
}

func scheduledFixture(id, home, away int64) models.Fixture {
	return models.Fixture{
		ID:         id,
		Kickoff:    testKickoff,
		LeagueID:   39,
		LeagueName: "Premier League",
		Season:     2023,
		HomeTeamID: home,
		HomeTeam:   "Home FC",
		AwayTeamID: away,
		AwayTeam:   "Away FC",
		Status:     models.FixtureScheduled,
	}
}

func goals(n int) *int {
	return &n
}

func fixtureData(id, home, away int64, status string, hg, ag *int) datasource.FixtureData {
	return datasource.FixtureData{
		SourceID:   id,
		Kickoff:    testKickoff,
		LeagueID:   39,
		LeagueName: " Premier  League ",
		Season:     2023,
		HomeTeamID: home,
		HomeTeam:   "Home FC",
		AwayTeamID: away,
		AwayTeam:   "Away FC",
		StatusCode: status,
		HomeGoals:  hg,
		AwayGoals:  ag,
	}
}
