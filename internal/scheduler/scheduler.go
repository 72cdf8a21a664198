package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/service"
)

// Job names
const (
	JobFixtureSync   = "fixture_sync"
	JobOddsSync      = "odds_sync"
	JobRatingRebuild = "rating_rebuild"
	JobRefresh       = "refresh"
)

// Ingester pulls provider feeds into storage
type Ingester interface {
	SyncFixtures(ctx context.Context, from, to time.Time) (*service.IngestionReport, error)
	SyncOdds(ctx context.Context) (*service.IngestionReport, error)
}

// RatingRebuilder replays finished fixtures into a fresh rating table
type RatingRebuilder interface {
	Rebuild(ctx context.Context) error
}

// Refresher recomputes the default value-bet list
type Refresher interface {
	Refresh(ctx context.Context) (*models.AnalysisRun, error)
}

// Publisher receives each refreshed value-bet list
type Publisher interface {
	Publish(run *models.AnalysisRun)
}

type job struct {
	name    string
	spec    string
	timeout time.Duration
	run     func(ctx context.Context) error
	entryID cron.EntryID
}

// Scheduler manages the background ingestion and analysis jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobs            map[string]*job
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler. Overlapping runs of one job are
// skipped.
func NewScheduler(logger *logrus.Logger) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry)), cron.SkipIfStillRunning(cron.PrintfLogger(entry))),
		),
		logger:          entry,
		jobs:            make(map[string]*job),
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

func (s *Scheduler) add(j *job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobs[j.name]; exists {
		return fmt.Errorf("job %s is already scheduled", j.name)
	}

	entryID, err := s.cron.AddFunc(j.spec, func() {
		if err := s.Run(context.Background(), j.name); err != nil {
			s.logger.WithError(err).WithField("job", j.name).Error("Scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", j.name, err)
	}

	j.entryID = entryID
	s.jobs[j.name] = j
	s.logger.WithFields(logrus.Fields{"job": j.name, "spec": j.spec}).Info("Scheduled job")
	return nil
}

// ScheduleFixtureSync pulls fixtures from back days ago to ahead days out,
// picking up final scores of recent fixtures.
func (s *Scheduler) ScheduleFixtureSync(spec string, ingester Ingester, back, ahead int) error {
	return s.add(&job{
		name:    JobFixtureSync,
		spec:    spec,
		timeout: 30 * time.Minute,
		run: func(ctx context.Context) error {
			now := s.now().UTC()
			report, err := ingester.SyncFixtures(ctx, now.AddDate(0, 0, -back), now.AddDate(0, 0, ahead))
			if report != nil {
				s.logger.WithField("job", JobFixtureSync).Info(report.String())
			}
			return err
		},
	})
}

// ScheduleOddsSync pulls the latest odds for upcoming fixtures
func (s *Scheduler) ScheduleOddsSync(spec string, ingester Ingester) error {
	return s.add(&job{
		name:    JobOddsSync,
		spec:    spec,
		timeout: 10 * time.Minute,
		run: func(ctx context.Context) error {
			report, err := ingester.SyncOdds(ctx)
			if report != nil {
				s.logger.WithField("job", JobOddsSync).Info(report.String())
			}
			return err
		},
	})
}

// ScheduleRatingRebuild replays the rating table from stored results
func (s *Scheduler) ScheduleRatingRebuild(spec string, ratings RatingRebuilder) error {
	return s.add(&job{
		name:    JobRatingRebuild,
		spec:    spec,
		timeout: 30 * time.Minute,
		run:     ratings.Rebuild,
	})
}

// ScheduleRefresh recomputes the default value-bet list and hands it to the
// publisher, which may be nil.
func (s *Scheduler) ScheduleRefresh(spec string, refresher Refresher, publisher Publisher) error {
	return s.add(&job{
		name:    JobRefresh,
		spec:    spec,
		timeout: 5 * time.Minute,
		run: func(ctx context.Context) error {
			run, err := refresher.Refresh(ctx)
			if err != nil {
				return err
			}
			if publisher != nil {
				publisher.Publish(run)
			}
			return nil
		},
	})
}

// Run executes one job immediately with its timeout
func (s *Scheduler) Run(ctx context.Context, name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	err := j.run(ctx)
	entry := s.logger.WithFields(logrus.Fields{
		"job":         name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	entry.Debug("Job completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.gracefulTimeout)
	defer cancel()

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// JobNames returns the scheduled job names in order
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}

	s.cron.Remove(j.entryID)
	delete(s.jobs, name)
	s.logger.WithField("job", name).Info("Removed job")
	return nil
}
