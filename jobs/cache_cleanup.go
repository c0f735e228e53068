package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ResolutionCacheSweeper drops expired resolution cache entries
type ResolutionCacheSweeper interface {
	SweepResolutionCaches(ctx context.Context) (int, error)
}

// CleanupReport describes one sweep
type CleanupReport struct {
	Removed  int           `json:"removed"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

type CacheCleanupJob struct {
	Sweeper ResolutionCacheSweeper
	Timeout time.Duration
}

func NewCacheCleanupJob(sweeper ResolutionCacheSweeper) *CacheCleanupJob {
	return &CacheCleanupJob{Sweeper: sweeper, Timeout: time.Minute}
}

// Name identifies the job in scheduler logs
func (j *CacheCleanupJob) Name() string {
	return "resolution-cache-cleanup"
}

// Run sweeps every resolution cache once
func (j *CacheCleanupJob) Run() CleanupReport {
	logger := logrus.WithField("job", j.Name())
	logger.Debug("Starting resolution cache cleanup")

	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	started := time.Now()
	removed, err := j.Sweeper.SweepResolutionCaches(ctx)
	report := CleanupReport{Removed: removed, Duration: time.Since(started)}
	if err != nil {
		report.Error = err.Error()
		logger.WithError(err).Warn("Resolution cache cleanup failed")
		return report
	}

	logger.WithFields(logrus.Fields{
		"removed":  removed,
		"duration": report.Duration,
	}).Info("Resolution cache cleanup completed")
	return report
}
