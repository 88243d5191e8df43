// Package scheduler runs the slip server's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job names
const (
	JobPersistRetry       = "persist-retry"
	JobSessionEviction    = "session-eviction"
	JobSuggestionPrefetch = "suggestion-prefetch"
)

// RetrySweeper re-attempts failed slip writes
type RetrySweeper interface {
	RetryPending(ctx context.Context) (succeeded, remaining int)
}

// Evictor drops sessions idle since before now minus its timeout
type Evictor interface {
	EvictIdle(now time.Time) int
}

// Refresher re-fetches the suggestion lists for the given sports
type Refresher interface {
	Refresh(ctx context.Context, sports []string) error
}

// Scheduler manages the maintenance jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          map[string]cron.EntryID
	jobs            map[string]func()
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler. Overlapping runs of the same job are
// skipped and panics inside a job are recovered.
func NewScheduler(logger *logrus.Logger) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	cronLog := cron.PrintfLogger(entry)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:          entry,
		jobIDs:          make(map[string]cron.EntryID),
		jobs:            make(map[string]func()),
		jobTimeout:      time.Minute,
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

func (s *Scheduler) add(name, spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobIDs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobIDs[name] = entryID
	s.jobs[name] = job
	s.logger.WithFields(logrus.Fields{"job": name, "spec": spec}).Info("Scheduled job")
	return nil
}

// SchedulePersistRetry re-attempts failed slip writes on spec
func (s *Scheduler) SchedulePersistRetry(spec string, sweeper RetrySweeper) error {
	return s.add(JobPersistRetry, spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		succeeded, remaining := sweeper.RetryPending(ctx)
		if succeeded == 0 && remaining == 0 {
			return
		}
		s.logger.WithFields(logrus.Fields{
			"job":       JobPersistRetry,
			"succeeded": succeeded,
			"remaining": remaining,
		}).Info("Retried pending slip writes")
	})
}

// ScheduleSessionEviction drops idle sessions on spec
func (s *Scheduler) ScheduleSessionEviction(spec string, evictor Evictor) error {
	return s.add(JobSessionEviction, spec, func() {
		if n := evictor.EvictIdle(s.now()); n > 0 {
			s.logger.WithFields(logrus.Fields{
				"job":     JobSessionEviction,
				"evicted": n,
			}).Info("Evicted idle sessions")
		}
	})
}

// ScheduleSuggestionPrefetch refreshes the cached suggestions of sports on spec
func (s *Scheduler) ScheduleSuggestionPrefetch(spec string, refresher Refresher, sports []string) error {
	if len(sports) == 0 {
		return fmt.Errorf("no sports to prefetch")
	}
	sports = append([]string(nil), sports...)

	return s.add(JobSuggestionPrefetch, spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		if err := refresher.Refresh(ctx, sports); err != nil {
			s.logger.WithError(err).WithField("job", JobSuggestionPrefetch).Warn("Suggestion prefetch failed")
		}
	})
}

// Run executes a scheduled job immediately on the calling goroutine
func (s *Scheduler) Run(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	job()
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler jobs still running after %s", s.gracefulTimeout)
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
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// Jobs returns the names of scheduled jobs, sorted
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
