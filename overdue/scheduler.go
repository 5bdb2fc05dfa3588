package overdue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler owns the recurring scan: a process-local timer with a
// cancellable handle, decoupled from any trigger transport.
type Scheduler struct {
	scheduler gocron.Scheduler
	scanner   *Scanner
	logger    *slog.Logger
}

func NewScheduler(scanner *Scanner, logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("overdue: create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, scanner: scanner, logger: logger}, nil
}

// ScheduleScan registers the periodic scan job and returns its ID.
func (s *Scheduler) ScheduleScan(interval time.Duration) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runScan),
		gocron.WithName("overdue-scan"),
	)
	if err != nil {
		return "", fmt.Errorf("overdue: schedule scan: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.logger.Info("starting overdue scan scheduler")
	s.scheduler.Start()
}

// Shutdown stops the timer; an in-flight scan finishes its current pass.
func (s *Scheduler) Shutdown() error {
	s.logger.Info("stopping overdue scan scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.scanner.Scan(ctx, time.Now().UTC()); err != nil {
		s.logger.Error("scheduled scan failed", slog.Any("error", err))
	}
}
