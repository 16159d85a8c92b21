// Package scheduler drives recurring monitor checks and retention pruning
// within a single process. Job state lives in memory and is re-derived from
// the monitor table on boot.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"statusping/internal/checker"
	"statusping/internal/models"
)

// pruneSchedule is the fixed cadence of the retention pruning job.
const pruneSchedule = "@every 1h"

// Scheduler owns one recurring job per active monitor plus the pruning job.
// Jobs are keyed by monitor id, so Schedule is idempotent and replace-safe.
// Cron's skip-if-still-running wrapper enforces at most one concurrently
// running instance per job: a tick firing while the previous one is still in
// flight is skipped, not queued.
type Scheduler struct {
	db      *gorm.DB
	checker *checker.Checker
	pruner  *checker.Pruner
	cron    *cron.Cron
	logger  *zap.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a new Scheduler
func New(db *gorm.DB, chk *checker.Checker, pruner *checker.Pruner, logger *zap.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return &Scheduler{
		db:      db,
		checker: chk,
		pruner:  pruner,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start loads every active monitor, schedules its recurring check plus the
// hourly pruning job, and begins firing ticks.
func (s *Scheduler) Start() error {
	var monitors []models.Monitor
	if err := s.db.Where("is_active = ?", true).Find(&monitors).Error; err != nil {
		return fmt.Errorf("load active monitors: %w", err)
	}

	for _, m := range monitors {
		if err := s.Schedule(m.ID, m.CheckInterval); err != nil {
			return err
		}
		s.logger.Info("scheduled monitor",
			zap.String("monitor", m.Name),
			zap.Int("interval_seconds", m.CheckInterval))
	}

	_, err := s.cron.AddFunc(pruneSchedule, func() {
		if err := s.pruner.PruneExpired(context.Background()); err != nil {
			s.logger.Error("retention pruning failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule pruning job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("monitors", len(monitors)))
	return nil
}

// Schedule creates or replaces the recurring check job for a monitor.
func (s *Scheduler) Schedule(monitorID string, intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[monitorID]; ok {
		s.cron.Remove(id)
		delete(s.entries, monitorID)
	}

	spec := fmt.Sprintf("@every %ds", intervalSeconds)
	id, err := s.cron.AddFunc(spec, func() {
		if err := s.checker.PerformCheck(context.Background(), monitorID); err != nil {
			// Failure isolation is per job: this tick is abandoned and
			// the next one retries fresh.
			s.logger.Error("check failed",
				zap.String("monitor_id", monitorID),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule monitor %s: %w", monitorID, err)
	}

	s.entries[monitorID] = id
	return nil
}

// Unschedule removes the check job for a monitor. Unscheduling a monitor
// that was never scheduled is a no-op; an in-flight tick is not interrupted.
func (s *Scheduler) Unschedule(monitorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[monitorID]; ok {
		s.cron.Remove(id)
		delete(s.entries, monitorID)
	}
}

// Stop stops firing new ticks. It does not wait for in-flight ticks.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// Scheduled reports whether a monitor currently has a job.
func (s *Scheduler) Scheduled(monitorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[monitorID]
	return ok
}
