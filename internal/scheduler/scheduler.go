// Package scheduler runs the daily practice reminder.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Notifier delivers the reminder
type Notifier interface {
	SendReminder() error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	logger    *slog.Logger
}

// New creates a new scheduler instance running in loc. A nil loc uses local time.
func New(notifier Notifier, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		notifier:  notifier,
		logger:    logger,
	}
}

// Start schedules the reminder every day at the given "HH:MM" and begins running it
func (s *Scheduler) Start(at string) error {
	if _, err := s.scheduler.Every(1).Day().At(at).Do(s.remind); err != nil {
		return fmt.Errorf("failed to schedule reminder at %q: %w", at, err)
	}
	s.scheduler.StartAsync()

	_, next := s.scheduler.NextRun()
	s.logger.Info("reminder scheduled", "at", at, "next_run", next)
	return nil
}

// NextRun returns when the reminder fires next
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunNow sends the reminder immediately
func (s *Scheduler) RunNow() {
	s.remind()
}

func (s *Scheduler) remind() {
	if err := s.notifier.SendReminder(); err != nil {
		s.logger.Error("failed to send reminder", "error", err)
	}
}
