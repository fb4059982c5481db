// Package cron schedules recurring maintenance jobs over robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepSchedule fires the stale-import sweep daily at 03:00 server time.
const sweepSchedule = "0 3 * * *"

const sweepTimeout = 5 * time.Minute

// StaleImportStore is the slice of the import repository the sweep needs.
type StaleImportStore interface {
	MarkStaleImportsFailed(ctx context.Context, olderThan time.Time) (int64, error)
}

// Scheduler owns the recurring jobs a deployment runs beside the API. There
// is one today: a daily sweep that fails import logs whose worker died
// mid-run, so they stop rendering as in-flight forever.
type Scheduler struct {
	cron     *cron.Cron
	imports  StaleImportStore
	staleAge time.Duration
	logger   *slog.Logger
}

// NewScheduler builds the scheduler. staleAge is how long an import log may
// sit in processing before the sweep gives up on its worker.
func NewScheduler(imports StaleImportStore, staleAge time.Duration, logger *slog.Logger) *Scheduler {
	// Standard 5-field spec format; robfig logs through slog at debug.
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))

	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cronLogger)),
		imports:  imports,
		staleAge: staleAge,
		logger:   logger,
	}
}

// Start registers the sweep and begins running it on schedule.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(sweepSchedule, s.sweepStaleImports); err != nil {
		return fmt.Errorf("failed to schedule stale import sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("sweep_schedule", sweepSchedule),
		slog.Duration("stale_age", s.staleAge),
	)
	return nil
}

// Stop halts scheduling. The returned context ends once jobs already in
// flight have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")
	return s.cron.Stop()
}

// RunNow kicks off one sweep immediately, off schedule. The worker calls
// this on boot so logs orphaned by a crash are cleaned up without waiting
// for the next scheduled run.
func (s *Scheduler) RunNow() {
	go s.sweepStaleImports()
}

func (s *Scheduler) sweepStaleImports() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cutoff := time.Now().Add(-s.staleAge)
	s.logger.Info("starting stale import sweep",
		slog.Time("cutoff", cutoff),
	)

	swept, err := s.imports.MarkStaleImportsFailed(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to sweep stale imports", slog.Any("error", err))
		return
	}

	s.logger.Info("stale import sweep completed",
		slog.Int64("imports_failed", swept),
	)
}
