package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/orders_service/pkg/logger"
)

// Janitor runs periodic maintenance jobs on cron schedules.
type Janitor struct {
	cron *cron.Cron
	log  *logrus.Entry
	jobs []string
}

// NewJanitor creates a janitor. Panicking jobs are recovered and logged.
func NewJanitor(log *logger.Logger) *Janitor {
	if log == nil {
		log = logger.NewDefault("janitor")
	}
	entry := log.Component("janitor")
	cronLog := cron.PrintfLogger(entry)
	return &Janitor{
		cron: cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		log:  entry,
	}
}

// Add schedules fn under spec. An empty spec disables the job.
func (j *Janitor) Add(name, spec string, fn func()) error {
	if spec == "" {
		j.log.WithField("job", name).Info("maintenance job disabled")
		return nil
	}
	if _, err := j.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	j.jobs = append(j.jobs, name)
	return nil
}

// Jobs returns the names of the scheduled jobs.
func (j *Janitor) Jobs() []string {
	return append([]string(nil), j.jobs...)
}

// Name implements system.Service.
func (j *Janitor) Name() string { return "janitor" }

// Start implements system.Service.
func (j *Janitor) Start(context.Context) error {
	j.cron.Start()
	j.log.WithField("jobs", len(j.jobs)).Info("janitor started")
	return nil
}

// Stop waits for running jobs to finish or for ctx to expire.
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
