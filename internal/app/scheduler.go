/**
 * @description
 * Cron scheduler setup for scheduled jobs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/juanelvasco/piletaTIP-sub000/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.CertSweepSchedule, s.jobs.SweepExpiredCertificates); err != nil {
		s.logger.Error("failed to schedule certificate sweep job", "error", err)
	} else {
		s.logger.Info("scheduled certificate sweep job", "schedule", s.config.CertSweepSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.SubscriptionSweepSchedule, s.jobs.SweepExpiredSubscriptions); err != nil {
		s.logger.Error("failed to schedule subscription sweep job", "error", err)
	} else {
		s.logger.Info("scheduled subscription sweep job", "schedule", s.config.SubscriptionSweepSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.ExpiryAlertSchedule, s.jobs.PublishExpiryAlerts); err != nil {
		s.logger.Error("failed to schedule expiry alert job", "error", err)
	} else {
		s.logger.Info("scheduled expiry alert job", "schedule", s.config.ExpiryAlertSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
