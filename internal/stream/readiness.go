package stream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Waiter reports when segment files are safe to serve. The encoder gives no
// completion signal, so readiness is inferred purely from polling: a file is
// ready once it has reached a minimum size and its size has held steady
// across consecutive polls. That distinguishes a finished segment from one
// the encoder is still flushing.
type Waiter struct {
	// MinBytes is the smallest size considered a playable segment.
	MinBytes int64
	// StableChecks is how many consecutive polls must observe the same
	// size (at or above MinBytes) before the file counts as ready.
	StableChecks int
	PollInterval time.Duration
}

// NewWaiter creates a readiness waiter.
func NewWaiter(minBytes int64, stableChecks int, pollInterval time.Duration) *Waiter {
	if stableChecks < 2 {
		stableChecks = 2
	}
	return &Waiter{
		MinBytes:     minBytes,
		StableChecks: stableChecks,
		PollInterval: pollInterval,
	}
}

// WaitReady blocks until path is ready or the timeout elapses. It suspends
// between polls, so it only ever occupies the calling goroutine. Returns
// ErrReadinessTimeout on deadline, or the context's error if it is
// cancelled first.
func (w *Waiter) WaitReady(ctx context.Context, path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	var lastSize int64 = -1
	stable := 0

	for {
		info, err := os.Stat(path)
		if err == nil && info.Size() >= w.MinBytes {
			// Only an observed size equality counts as a stable round; the
			// first sighting of a large-enough file is just the baseline.
			if info.Size() == lastSize {
				stable++
			} else {
				stable = 0
			}
			lastSize = info.Size()
			if stable >= w.StableChecks {
				return nil
			}
		} else {
			lastSize = -1
			stable = 0
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrReadinessTimeout, filepath.Base(path))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitInitial gates the initial buffer: it waits for count consecutive
// segments starting at startSegment, sharing one deadline across all of
// them. On success the player's first fetches are guaranteed to succeed
// immediately; on timeout no playback URL should be handed out at all.
func (w *Waiter) WaitInitial(ctx context.Context, dir string, startSegment, count int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for i := 0; i < count; i++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: initial buffer", ErrReadinessTimeout)
		}
		path := filepath.Join(dir, SegmentName(startSegment+i))
		if err := w.WaitReady(ctx, path, remaining); err != nil {
			return err
		}
	}
	return nil
}

// SegmentName returns the on-disk file name for a segment index.
func SegmentName(index int) string {
	return fmt.Sprintf("stream%d.ts", index)
}
