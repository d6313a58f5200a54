package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eslsoft/vocquiz/internal/usecase"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = time.Hour

// StatsProvider reports the current state of the catalogue.
type StatsProvider interface {
	Stats(ctx context.Context) (*usecase.CatalogStats, error)
}

// Notifier receives every report produced by the watcher.
type Notifier interface {
	NotifyDue(ctx context.Context, stats *usecase.CatalogStats) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, stats *usecase.CatalogStats) error

// NotifyDue calls f.
func (f NotifierFunc) NotifyDue(ctx context.Context, stats *usecase.CatalogStats) error {
	return f(ctx, stats)
}

// Scheduler periodically checks how many items are due for review.
type Scheduler struct {
	scheduler *gocron.Scheduler
	stats     StatsProvider
	notifier  Notifier
	interval  time.Duration
	logger    logrus.FieldLogger
	timeout   time.Duration
}

// New creates a new scheduler instance.
func New(stats StatsProvider, notifier Notifier, interval time.Duration, logger logrus.FieldLogger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		stats:     stats,
		notifier:  notifier,
		interval:  interval,
		logger:    logger.WithField("component", "reminder"),
		timeout:   30 * time.Second,
	}
}

// Start schedules the due-review check and runs it once immediately.
func (s *Scheduler) Start() error {
	if s.stats == nil || s.notifier == nil {
		return errors.New("scheduler requires a stats provider and a notifier")
	}
	if _, err := s.scheduler.Every(s.interval).StartImmediately().Do(s.checkDue); err != nil {
		return fmt.Errorf("schedule due-review check: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.WithField("interval", s.interval.String()).Info("reminder scheduler started")
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("reminder scheduler stopped")
}

// RunOnce performs a single check outside the schedule.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return fmt.Errorf("load catalogue stats: %w", err)
	}
	if stats.Total == 0 {
		s.logger.Warn("catalogue is empty, nothing to review")
	}
	return s.notifier.NotifyDue(ctx, stats)
}

func (s *Scheduler) checkDue() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		s.logger.WithError(err).Error("due-review check failed")
	}
}
