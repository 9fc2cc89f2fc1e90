package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AI2HU/bulletcalc/internal/logger"
)

// SessionPurgeSpec is the cron expression for expired session cleanup
const SessionPurgeSpec = "@hourly"

// Job is a named housekeeping task run on a cron expression
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// SessionPurger deletes expired login sessions
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// SessionPurgeJob returns the hourly job that removes expired sessions
func SessionPurgeJob(purger SessionPurger) Job {
	return Job{
		Name: "purge-sessions",
		Spec: SessionPurgeSpec,
		Run: func(ctx context.Context) error {
			n, err := purger.PurgeExpiredSessions(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("Purged %d expired sessions", n)
			}
			return nil
		},
	}
}

// Scheduler runs housekeeping jobs on their cron expressions
type Scheduler struct {
	jobs    []Job
	cron    *cron.Cron
	running bool
	lastRun map[string]time.Time
	mu      sync.RWMutex
}

// New creates a new scheduler
func New(jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		cron:    cron.New(),
		lastRun: make(map[string]time.Time),
	}
}

// Start registers every job and starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron = cron.New()
	for _, job := range s.jobs {
		if err := s.registerJob(ctx, job); err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.Name, err)
		}
	}

	s.cron.Start()
	s.running = true

	logger.Info("Scheduler started with %d jobs", len(s.jobs))
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	done := s.cron.Stop()
	s.running = false
	s.mu.Unlock()

	<-done.Done()
	logger.Info("Scheduler stopped")
}

// Running reports whether the scheduler has been started
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// registerJob registers a job with cron
func (s *Scheduler) registerJob(ctx context.Context, job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() {
		if err := s.execute(ctx, job); err != nil {
			logger.Error("Failed to execute job %s: %v", job.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	logger.Debug("Registered job %s with cron expression: %s", job.Name, job.Spec)
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	started := time.Now()
	err := job.Run(ctx)

	s.mu.Lock()
	s.lastRun[job.Name] = started
	s.mu.Unlock()

	logger.Debug("Job %s finished in %v", job.Name, time.Since(started))
	return err
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.execute(ctx, job)
		}
	}
	return fmt.Errorf("job not found: %s", name)
}

// LastRun returns when a job last started, if it has run
func (s *Scheduler) LastRun(name string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastRun[name]
	return t, ok
}
