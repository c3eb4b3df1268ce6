package stream

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWaiter() *Waiter {
	return NewWaiter(1024, 2, 5*time.Millisecond)
}

func TestWaitReady_StableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream0.ts")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	err := testWaiter().WaitReady(context.Background(), path, time.Second)

	assert.NoError(t, err)
}

func TestWaitReady_RequiresTwoEqualObservations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream0.ts")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	interval := 50 * time.Millisecond
	w := NewWaiter(1024, 2, interval)

	start := time.Now()
	require.NoError(t, w.WaitReady(context.Background(), path, 2*time.Second))

	// The first sighting is only the baseline; two equality observations
	// follow it, so readiness takes at least two full poll intervals.
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestWaitReady_MissingFileTimesOut(t *testing.T) {
	dir := t.TempDir()

	err := testWaiter().WaitReady(context.Background(), filepath.Join(dir, "stream0.ts"), 50*time.Millisecond)

	assert.ErrorIs(t, err, ErrReadinessTimeout)
}

func TestWaitReady_BelowMinSizeTimesOut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream0.ts")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	err := testWaiter().WaitReady(context.Background(), path, 50*time.Millisecond)

	assert.ErrorIs(t, err, ErrReadinessTimeout)
}

func TestWaitReady_GrowingFileNotServedUntilStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream0.ts")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	// Append continuously while the waiter polls, then stop. While the
	// writer runs, no two consecutive polls can observe an equal size.
	var stopped atomic.Bool
	go func() {
		until := time.Now().Add(60 * time.Millisecond)
		for time.Now().Before(until) {
			f.Write(make([]byte, 512))
		}
		stopped.Store(true)
	}()

	err = testWaiter().WaitReady(context.Background(), path, 2*time.Second)
	require.NoError(t, err)

	// Readiness must not have been reported while the file was still
	// growing between polls.
	assert.True(t, stopped.Load(), "file reported ready while still being written")
}

func TestWaitReady_ContextCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := testWaiter().WaitReady(ctx, filepath.Join(dir, "stream0.ts"), 10*time.Second)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitInitial_ConsecutiveSegments(t *testing.T) {
	dir := t.TempDir()
	for i := 3; i < 6; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, SegmentName(i)), make([]byte, 4096), 0o644))
	}

	err := testWaiter().WaitInitial(context.Background(), dir, 3, 3, time.Second)

	assert.NoError(t, err)
}

func TestWaitInitial_MissingSegmentTimesOut(t *testing.T) {
	dir := t.TempDir()
	// Segment 0 present, segment 1 never appears.
	require.NoError(t, os.WriteFile(filepath.Join(dir, SegmentName(0)), make([]byte, 4096), 0o644))

	err := testWaiter().WaitInitial(context.Background(), dir, 0, 2, 100*time.Millisecond)

	assert.ErrorIs(t, err, ErrReadinessTimeout)
}
