// Package jobs schedules the periodic dataset refresh.
package jobs

import (
	"context"
	"time"

	"golang-ar-analytics-service/internal/ardata"
	"golang-ar-analytics-service/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Refresher runs the model load on a cron schedule. Failures are
// logged and the previous snapshot keeps serving; the next tick tries
// again.
type Refresher struct {
	model    *ardata.Model
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   logger.Logger
}

// NewRefresher creates a Refresher with a standard 5-field cron
// schedule, e.g. "*/30 * * * *" for every thirty minutes.
func NewRefresher(model *ardata.Model, schedule string, timeout time.Duration) *Refresher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Refresher{
		model:    model,
		schedule: schedule,
		timeout:  timeout,
		cron:     cron.New(),
		logger:   logger.GetGlobalLogger().WithComponent("jobs"),
	}
}

// Start registers the job and starts the scheduler.
func (r *Refresher) Start() error {
	_, err := r.cron.AddFunc(r.schedule, r.run)
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.WithField("schedule", r.schedule).Info("Refresh job scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Refresh job stopped")
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.model.Load(ctx); err != nil {
		r.logger.WithError(err).Error("Scheduled refresh failed, keeping previous snapshot")
		return
	}
	r.logger.WithFields(logger.Fields{
		"rows":     r.model.Dataset().Len(),
		"duration": time.Since(start).String(),
	}).Info("Scheduled refresh completed")
}
