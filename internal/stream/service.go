package stream

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"time"

	"github.com/henosis-us/lantern/internal/config"
	"github.com/henosis-us/lantern/internal/ffmpeg"
)

// Prober abstracts media inspection for the orchestrator.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.MediaInfo, error)
}

// Mode is how a stream will be delivered.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeHLS    Mode = "hls"
)

// StartRequest carries a validated asset plus the caller's playback options.
type StartRequest struct {
	Asset          *Asset
	SeekSeconds    float64
	Quality        string
	Resolution     string
	SubtitleBurn   string // resolved subtitle file path for burn-in, "" for none
	ForceTranscode bool
	PreferDirect   bool
}

// StartResult is the orchestrator's answer to a stream start.
type StartResult struct {
	Mode            Mode
	Reason          string
	DurationSeconds float64
	// Session is set for ModeHLS only.
	Session *Session
}

// Service ties the engine together: per request it classifies the asset,
// then either points the caller at the direct file or preempts into a new
// transcode session, launches the encoder, and holds the response until the
// initial buffer is confirmed on disk.
type Service struct {
	cfg      config.StreamingConfig
	prober   Prober
	driver   *Driver
	registry *Registry
	waiter   *Waiter
	logger   *slog.Logger
}

// NewService creates the stream orchestrator.
func NewService(cfg config.StreamingConfig, prober Prober, driver *Driver, registry *Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		prober:   prober,
		driver:   driver,
		registry: registry,
		waiter:   NewWaiter(int64(cfg.MinSegmentSize), 2, cfg.PollInterval),
		logger:   logger,
	}
}

// Registry exposes the session registry for shutdown draining.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Start runs the full stream-start state machine.
func (s *Service) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	asset := req.Asset

	quality, err := ParseQuality(req.Quality)
	if err != nil {
		return nil, err
	}
	resolution, err := ParseResolution(req.Resolution)
	if err != nil {
		return nil, err
	}
	if req.SeekSeconds < 0 || (asset.DurationSeconds > 0 && req.SeekSeconds >= asset.DurationSeconds) {
		return nil, fmt.Errorf("%w: seek %.1fs outside media duration %.1fs",
			ErrInvalidRequest, req.SeekSeconds, asset.DurationSeconds)
	}

	// Always probe fresh: the cached direct-play flag cannot account for
	// per-request options, and the file may have changed since the scan.
	probe, err := s.prober.Probe(ctx, asset.FilePath)
	if err != nil {
		s.logger.Warn("probe failed, assuming transcode",
			slog.String("path", asset.FilePath),
			slog.String("error", err.Error()))
		probe = nil
	}

	decision := Classify(asset.FilePath, probe, Options{
		Quality:        quality,
		Resolution:     resolution,
		SubtitleBurn:   req.SubtitleBurn,
		ForceTranscode: req.ForceTranscode,
		PreferDirect:   req.PreferDirect,
	})
	s.logger.Info("stream classified",
		slog.String("asset", asset.Key()),
		slog.Bool("direct", decision.Direct),
		slog.String("reason", decision.Reason))

	if decision.Direct {
		return &StartResult{
			Mode:            ModeDirect,
			Reason:          decision.Reason,
			DurationSeconds: asset.DurationSeconds,
		}, nil
	}

	startSegment := int(math.Floor(req.SeekSeconds / s.cfg.SegmentDuration.Seconds()))
	session, err := s.registry.Acquire(asset.Key(), startSegment, asset.DurationSeconds)
	if err != nil {
		return nil, err
	}

	job := EncodeJob{
		Session:         session,
		SourcePath:      asset.FilePath,
		SeekSeconds:     req.SeekSeconds,
		DurationSeconds: asset.DurationSeconds,
		Quality:         quality,
		Resolution:      resolution,
		SubtitleBurn:    req.SubtitleBurn,
	}
	if probe != nil {
		job.AudioCodec = probe.AudioCodec
		job.AudioChannels = probe.AudioChannels
	}

	if err := s.driver.Launch(job, func(exitErr error) {
		if exitErr != nil {
			s.registry.Evict(session.AssetKey, session.ID)
		}
	}); err != nil {
		// Leave the session registered: readiness will time out below and
		// a later request's preemption (or shutdown) cleans it up.
		s.logger.Error("encoder launch failed",
			slog.String("asset", asset.Key()),
			slog.String("error", err.Error()))
	}

	if err := s.waitInitialBuffer(ctx, session, req.SeekSeconds); err != nil {
		return nil, err
	}

	return &StartResult{
		Mode:            ModeHLS,
		Reason:          decision.Reason,
		DurationSeconds: asset.DurationSeconds,
		Session:         session,
	}, nil
}

// waitInitialBuffer gates the start response on the first segments being
// ready. A fresh start gets a generous timeout; a seek is already mid-
// playback, so the player deserves a faster failure.
func (s *Service) waitInitialBuffer(ctx context.Context, session *Session, seekSeconds float64) error {
	count := int(math.Ceil(s.cfg.InitialBuffer.Seconds() / s.cfg.SegmentDuration.Seconds()))
	if total := SegmentCount(session.DurationSeconds, s.cfg.SegmentDuration); total > 0 {
		if remaining := total - session.StartSegment; count > remaining {
			count = remaining
		}
	}
	if count < 1 {
		count = 1
	}

	timeout := 2 * s.cfg.InitialBuffer
	if seekSeconds > 0 {
		timeout = s.cfg.SeekBufferTimeout
	}

	return s.waiter.WaitInitial(ctx, session.Dir, session.StartSegment, count, timeout)
}

// Stop releases the asset's session. Idempotent: stopping an asset with no
// session succeeds as a no-op.
func (s *Service) Stop(assetKey string) {
	s.registry.Release(assetKey)
}

// Manifest renders the VOD playlist for a live session.
func (s *Service) Manifest(sessionID, token string) (string, error) {
	session, ok := s.registry.FindBySessionID(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}
	return BuildManifest(session.DurationSeconds, s.cfg.SegmentDuration, token)
}

var segmentNameRe = regexp.MustCompile(`^stream\d+\.ts$`)

// SegmentPath resolves a segment request to an on-disk path, holding the
// caller at the readiness gate until the file is safe to serve. Returns
// ErrReadinessTimeout when the segment never stabilizes; the HTTP layer
// maps that to a 404 the player will retry.
func (s *Service) SegmentPath(ctx context.Context, sessionID, name string) (string, error) {
	if !segmentNameRe.MatchString(name) {
		return "", fmt.Errorf("%w: bad segment name %q", ErrInvalidRequest, name)
	}
	session, ok := s.registry.FindBySessionID(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}

	path := filepath.Join(session.Dir, name)
	if err := s.waiter.WaitReady(ctx, path, s.cfg.SegmentTimeout); err != nil {
		return "", err
	}
	return path, nil
}

// Shutdown drains every live session, killing any encoder that ignores the
// grace period. Bounded: grace period plus teardown, never indefinite.
func (s *Service) Shutdown() {
	start := time.Now()
	n := s.registry.Len()
	s.registry.DrainAll()
	if n > 0 {
		s.logger.Info("drained transcode sessions",
			slog.Int("count", n),
			slog.Duration("took", time.Since(start)))
	}
}
