// Package backup runs JSONL exports of the record store on a cron schedule.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mesh-intelligence/checklist/internal/sqlite"
)

// stampLayout names each backup directory.
const stampLayout = "20060102T150405Z"

// ErrNoSchedule is returned by Start for an empty schedule.
var ErrNoSchedule = errors.New("backup schedule is empty")

// Exporter writes a snapshot of the store into a directory.
type Exporter interface {
	Export(ctx context.Context, dir string) (sqlite.ExportStats, error)
}

// Scheduler exports the store into timestamped subdirectories of dir.
type Scheduler struct {
	exporter Exporter
	dir      string
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewScheduler(exporter Exporter, dir string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		exporter: exporter,
		dir:      dir,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules exports with a standard five-field cron expression or a
// descriptor such as "@daily". Runs never overlap.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		return ErrNoSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("backup scheduler already started")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("scheduled backup failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("parsing backup schedule %q: %w", schedule, err)
	}

	s.logger.Info("backup scheduler started", "schedule", schedule, "dir", s.dir)
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the schedule and waits for a running export to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("backup scheduler stopped")
}

// RunOnce exports into a new timestamped directory and returns its path.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	target := filepath.Join(s.dir, s.now().UTC().Format(stampLayout))
	stats, err := s.exporter.Export(ctx, target)
	if err != nil {
		return "", fmt.Errorf("backup to %s: %w", target, err)
	}
	s.logger.Info("backup written", "dir", target, "projects", stats.Projects, "steps", stats.Steps)
	return target, nil
}
