package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerAddJob(t *testing.T) {
	s := New(nil)

	require.NoError(t, s.AddJob("scan", "0 0 3 * * *", func() {}))
	assert.Error(t, s.AddJob("scan", "0 0 4 * * *", func() {}), "duplicate name should be rejected")
	assert.Error(t, s.AddJob("bad", "not a cron spec", func() {}))
	assert.ElementsMatch(t, []string{"scan"}, s.JobNames())
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := New(nil)

	var runs atomic.Int32
	require.NoError(t, s.AddJob("tick", "@every 10ms", func() {
		runs.Add(1)
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerRecoversPanics(t *testing.T) {
	s := New(nil)

	var after atomic.Bool
	require.NoError(t, s.AddJob("boom", "@every 10ms", func() {
		if !after.Swap(true) {
			panic("first run fails")
		}
	}))

	s.Start()
	defer s.Stop()

	// A second run happening at all proves the panic was contained.
	var second atomic.Bool
	require.NoError(t, s.AddJob("probe", "@every 10ms", func() {
		if after.Load() {
			second.Store(true)
		}
	}))

	assert.Eventually(t, func() bool { return second.Load() }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerRemoveJob(t *testing.T) {
	s := New(nil)

	require.NoError(t, s.AddJob("gone", "@every 1h", func() {}))
	s.RemoveJob("gone")
	s.RemoveJob("never existed")
	assert.Empty(t, s.JobNames())
}

func TestSchedulerStopIdempotent(t *testing.T) {
	s := New(nil)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
