// Package scheduler runs recurring background jobs on cron schedules.
// It wraps robfig/cron with named jobs, panic recovery and slog output.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler manages named cron jobs. Specs use the 6-field form with a
// seconds column ("0 0 3 * * *"), plus the @every shorthand.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	logger  *slog.Logger
	entries map[string]cron.EntryID
	started bool
}

// New creates a stopped scheduler. Call Start to begin running jobs.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

// AddJob registers fn to run on the given cron spec. Job names must be
// unique. Panics inside fn are recovered and logged.
func (s *Scheduler) AddJob(name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	id, err := s.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("job panicked", "job", name, "panic", r)
			}
		}()
		s.logger.Debug("job starting", "job", name)
		fn()
	})
	if err != nil {
		return fmt.Errorf("registering job %q with spec %q: %w", name, spec, err)
	}

	s.entries[name] = id
	s.logger.Info("job registered", "job", name, "spec", spec)
	return nil
}

// RemoveJob unregisters a job by name. Unknown names are a no-op.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
		s.logger.Info("job removed", "job", name)
	}
}

// Start begins running registered jobs. Starting twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("scheduler started", "jobs", len(s.entries))
}

// Stop halts scheduling and blocks until running jobs finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// JobNames returns the registered job names, for diagnostics.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}
