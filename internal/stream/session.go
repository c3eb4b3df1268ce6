package stream

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/henosis-us/lantern/internal/ffmpeg"
)

// Session is one in-flight transcode: a single supervised encoder process
// writing segments into a directory owned exclusively by this session.
// At most one session exists per asset key at any time; the Registry
// enforces that.
type Session struct {
	ID       string
	AssetKey string
	// Dir is always {hls_root}/{asset_key}/{session_id}.
	Dir string

	// StartSegment is the absolute index of the first segment this session
	// encodes, floor(seek / segment_duration).
	StartSegment int

	DurationSeconds float64
	CreatedAt       time.Time

	mu  sync.Mutex
	cmd *ffmpeg.Command // nil until the encoder actually starts
}

func newSession(assetKey, dir string, startSegment int, durationSeconds float64) *Session {
	return &Session{
		ID:              ulid.Make().String(),
		AssetKey:        assetKey,
		Dir:             dir,
		StartSegment:    startSegment,
		DurationSeconds: durationSeconds,
		CreatedAt:       time.Now(),
	}
}

// AttachProcess records the supervised encoder process handle.
func (s *Session) AttachProcess(cmd *ffmpeg.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmd = cmd
}

// Process returns the encoder process handle, or nil if never started.
func (s *Session) Process() *ffmpeg.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd
}
