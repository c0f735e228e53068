package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSweeper struct {
	removed  int
	err      error
	deadline bool
}

func (s *stubSweeper) SweepResolutionCaches(ctx context.Context) (int, error) {
	_, s.deadline = ctx.Deadline()
	return s.removed, s.err
}

func TestCacheCleanupJob_Run(t *testing.T) {
	sweeper := &stubSweeper{removed: 7}
	job := NewCacheCleanupJob(sweeper)

	report := job.Run()

	assert.Equal(t, 7, report.Removed)
	assert.Empty(t, report.Error)
	assert.True(t, sweeper.deadline)
	assert.Equal(t, "resolution-cache-cleanup", job.Name())
}

func TestCacheCleanupJob_ReportsFailure(t *testing.T) {
	job := NewCacheCleanupJob(&stubSweeper{err: errors.New("sweep interrupted")})

	report := job.Run()

	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, "sweep interrupted", report.Error)
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	scheduler := NewScheduler()

	err := scheduler.Schedule("not a schedule", "broken", func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 0, scheduler.Jobs())
}

func TestScheduler_RunsAndSurvivesPanics(t *testing.T) {
	scheduler := NewScheduler()
	var runs int32

	require.NoError(t, scheduler.Schedule("@every 1s", "panicky", func() {
		atomic.AddInt32(&runs, 1)
		panic("boom")
	}))
	assert.Equal(t, 1, scheduler.Jobs())

	scheduler.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, 5*time.Second, 50*time.Millisecond)

	select {
	case <-scheduler.Stop().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
