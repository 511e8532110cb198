// Package scheduler provides the cron-driven delivery loop for the daemon.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"carebook/internal/config"
	"carebook/internal/logging"
)

// Scheduler runs the periodic alert delivery tick.
type Scheduler struct {
	cron      *cron.Cron
	checker   *AlertChecker
	lastTick  time.Time
	mu        sync.Mutex
	tickSpec  string
	sleepGap  time.Duration
}

// NewScheduler creates a scheduler using the runtime configuration.
func NewScheduler(checker *AlertChecker) *Scheduler {
	cfg := config.Global.Scheduler
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		checker:  checker,
		tickSpec: cfg.TickSpec,
		sleepGap: cfg.SleepThreshold,
	}
}

// Start starts the delivery tick.
func (s *Scheduler) Start() error {
	s.lastTick = time.Now()

	_, err := s.cron.AddFunc(s.tickSpec, s.tick)
	if err != nil {
		return fmt.Errorf("failed to add delivery tick: %w", err)
	}

	s.cron.Start()
	logging.DebugLog("scheduler started", "tick_spec", s.tickSpec)
	return nil
}

// Stop stops the scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	logging.DebugLog("scheduler stopped")
}

// tick runs one delivery pass. A gap larger than the sleep threshold means
// the system was suspended; the stale pass is skipped and the next tick
// catches up.
func (s *Scheduler) tick() {
	s.mu.Lock()
	elapsed := time.Since(s.lastTick)
	s.lastTick = time.Now()
	s.mu.Unlock()

	if elapsed > s.sleepGap {
		logging.DebugLog("skipping stale tick after sleep",
			"elapsed", elapsed.Round(time.Second).String())
		return
	}

	s.checker.Check()
}

// AddJob adds a custom job to the scheduler.
func (s *Scheduler) AddJob(spec string, job func()) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, job)
}

// Entries returns all scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
