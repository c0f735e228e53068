package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs background jobs on cron expressions such as "@every 1h"
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Schedule registers a job. Panics inside a run are logged and do not stop the scheduler.
func (s *Scheduler) Schedule(spec, name string, run func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				logrus.WithFields(logrus.Fields{
					"job":   name,
					"panic": recovered,
				}).Error("Scheduled job panicked")
			}
		}()
		run()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s with %q: %w", name, spec, err)
	}
	logrus.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Scheduled background job")
	return nil
}

// Jobs returns the number of scheduled jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; the returned context is done once running jobs finish
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
