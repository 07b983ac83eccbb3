// Package scheduler triggers the reminder sweep: once at process start and
// then on a cron schedule.
package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/KamenskiyIlya/Self-Storage/internal/logger"
	"github.com/KamenskiyIlya/Self-Storage/internal/reminders"
)

type Scheduler struct {
	cron    *cron.Cron
	sweeper *reminders.Sweeper
}

// New registers the sweep under the given cron spec (standard 5-field).
func New(spec string, sweeper *reminders.Sweeper) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, sweeper: sweeper}
	if _, err := c.AddFunc(spec, func() { sweeper.Run() }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs an immediate sweep in the background and starts the cron loop.
func (s *Scheduler) Start() {
	go s.sweeper.Run()
	s.cron.Start()
	logger.Info("reminder scheduler started")
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("reminder scheduler stopped")
}
