package stream

import "errors"

var (
	// ErrInvalidRequest covers malformed stream options: unknown quality or
	// resolution tokens, seeks beyond the media duration, negative seeks.
	ErrInvalidRequest = errors.New("invalid stream request")

	// ErrSessionNotFound is returned when a manifest or segment is requested
	// for a session that does not exist or has been preempted.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned by Acquire when the configured
	// concurrent-session cap has been reached.
	ErrTooManySessions = errors.New("too many active transcode sessions")

	// ErrReadinessTimeout is returned when a segment does not become
	// size-stable within the caller's deadline.
	ErrReadinessTimeout = errors.New("timed out waiting for segment")
)
