package jobs

import (
	"context"
	"time"

	"github.com/ipowatch/dashboard-backend/services"
	"github.com/sirupsen/logrus"
)

// GMPRefreshJob periodically re-fetches grey-market premium quotes for the
// IPOs held in the listing cache, so quotes stay current between the much
// longer-lived listing snapshots.
type GMPRefreshJob struct {
	IPOService *services.IPOService
	Interval   time.Duration

	cancel context.CancelFunc
}

// NewGMPRefreshJob creates the background GMP refresh job.
func NewGMPRefreshJob(ipoService *services.IPOService, interval time.Duration) *GMPRefreshJob {
	return &GMPRefreshJob{
		IPOService: ipoService,
		Interval:   interval,
	}
}

// Start launches the refresh loop. The first run happens after one full
// interval; listing requests fetch their own quotes, so there is nothing to
// refresh at startup.
func (j *GMPRefreshJob) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel

	logrus.Infof("Starting GMP Refresh Job (runs every %v)...", j.Interval)
	ticker := time.NewTicker(j.Interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.Run(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the refresh loop and any in-flight refresh.
func (j *GMPRefreshJob) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
}

// Run refreshes the quotes for every cached IPO record once.
func (j *GMPRefreshJob) Run(ctx context.Context) {
	startTime := time.Now()
	logrus.Info("Running GMP Refresh Job...")

	refreshed := j.IPOService.RefreshGMPQuotes(ctx)
	if refreshed == 0 {
		logrus.Info("GMP Refresh Job: no cached IPO records to refresh")
		return
	}

	logrus.Infof("GMP Refresh Job completed: refreshed %d quotes (took %v)",
		refreshed, time.Since(startTime))
}
