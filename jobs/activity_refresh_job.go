// File: /jobs/activity_refresh_job.go
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ActivityRefresher rewrites stale event activity flags
type ActivityRefresher interface {
	RefreshActivity(ctx context.Context) (int64, error)
}

// ActivityRefreshJob periodically brings stored event activity flags in
// line with the clock
type ActivityRefreshJob struct {
	refresher ActivityRefresher
	interval  time.Duration
	logger    *slog.Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewActivityRefreshJob(refresher ActivityRefresher, interval time.Duration, logger *slog.Logger) *ActivityRefreshJob {
	return &ActivityRefreshJob{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs one refresh immediately and then one per interval until ctx
// is cancelled or Stop is called.
func (j *ActivityRefreshJob) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.logger.Info("Activity refresh job started", slog.Duration("interval", j.interval))

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.refresh(ctx)
		for {
			select {
			case <-ticker.C:
				j.refresh(ctx)
			case <-ctx.Done():
				j.logger.Info("Activity refresh job stopped")
				return
			}
		}
	}()
}

// Stop cancels the job and waits for the running refresh to finish
func (j *ActivityRefreshJob) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *ActivityRefreshJob) refresh(ctx context.Context) {
	changed, err := j.refresher.RefreshActivity(ctx)
	if err != nil {
		if ctx.Err() == nil {
			j.logger.Error("Activity refresh failed", slog.Any("error", err))
		}
		return
	}
	j.logger.Debug("Activity refresh completed", slog.Int64("updated", changed))
}
