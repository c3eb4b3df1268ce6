package stream

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henosis-us/lantern/internal/config"
	"github.com/henosis-us/lantern/internal/ffmpeg"
	"github.com/henosis-us/lantern/internal/models"
)

type fakeProber struct {
	info *ffmpeg.MediaInfo
	err  error
}

func (p *fakeProber) Probe(_ context.Context, _ string) (*ffmpeg.MediaInfo, error) {
	return p.info, p.err
}

func testStreamingConfig() config.StreamingConfig {
	return config.StreamingConfig{
		SegmentDuration:    10 * time.Second,
		InitialBuffer:      2 * time.Second,
		EncodeWindow:       15 * time.Minute,
		SessionGracePeriod: 100 * time.Millisecond,
		SegmentTimeout:     200 * time.Millisecond,
		SeekBufferTimeout:  2 * time.Second,
		PollInterval:       5 * time.Millisecond,
		MinSegmentSize:     config.ByteSize(1024),
	}
}

// testService wires a service whose encoder binary does not exist; tests
// that need segments write them into the session directory themselves,
// standing in for the encoder.
func testService(t *testing.T, cfg config.StreamingConfig, prober Prober) *Service {
	t.Helper()
	registry := NewRegistry(t.TempDir(), cfg.SessionGracePeriod, cfg.MaxConcurrentSessions, nil)
	driver := NewDriver("/nonexistent/ffmpeg", StaticAccel(ffmpeg.AccelInfo{Accel: ffmpeg.AccelSoftware, Encoder: "libx264"}),
		t.TempDir(), cfg.SegmentDuration, cfg.EncodeWindow, nil)
	return NewService(cfg, prober, driver, registry, nil)
}

func testAsset() *Asset {
	return &Asset{
		ID:              models.NewULID(),
		Type:            models.ItemTypeMovie,
		FilePath:        "/media/movie.mp4",
		DurationSeconds: 5400,
	}
}

// writeSegmentsWhenAcquired waits for a session to register for the asset
// and then drops ready segment files into its directory.
func writeSegmentsWhenAcquired(t *testing.T, svc *Service, assetKey string, indexes ...int) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if session, ok := svc.Registry().Get(assetKey); ok {
				for _, i := range indexes {
					os.WriteFile(filepath.Join(session.Dir, SegmentName(i)), make([]byte, 4096), 0o644)
				}
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()
}

func TestService_Start_Direct(t *testing.T) {
	svc := testService(t, testStreamingConfig(), &fakeProber{info: browserSafeProbe()})

	result, err := svc.Start(context.Background(), StartRequest{
		Asset:        testAsset(),
		PreferDirect: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ModeDirect, result.Mode)
	assert.Nil(t, result.Session)
	assert.Equal(t, float64(5400), result.DurationSeconds)
	assert.Equal(t, 0, svc.Registry().Len())
}

func TestService_Start_TranscodeServing(t *testing.T) {
	svc := testService(t, testStreamingConfig(), &fakeProber{info: browserSafeProbe()})
	asset := testAsset()
	asset.FilePath = "/media/movie.mkv" // container forces transcode
	writeSegmentsWhenAcquired(t, svc, asset.Key(), 0)

	result, err := svc.Start(context.Background(), StartRequest{
		Asset:        asset,
		PreferDirect: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ModeHLS, result.Mode)
	require.NotNil(t, result.Session)
	assert.Equal(t, 0, result.Session.StartSegment)
	assert.Equal(t, 1, svc.Registry().Len())
}

func TestService_Start_SeekStartsAtOffsetSegment(t *testing.T) {
	svc := testService(t, testStreamingConfig(), &fakeProber{info: browserSafeProbe()})
	asset := testAsset()
	asset.FilePath = "/media/movie.mkv"
	writeSegmentsWhenAcquired(t, svc, asset.Key(), 12)

	result, err := svc.Start(context.Background(), StartRequest{
		Asset:        asset,
		SeekSeconds:  125,
		PreferDirect: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ModeHLS, result.Mode)
	assert.Equal(t, 12, result.Session.StartSegment)
}

func TestService_Start_BufferTimeoutFails(t *testing.T) {
	cfg := testStreamingConfig()
	cfg.InitialBuffer = 50 * time.Millisecond
	svc := testService(t, cfg, &fakeProber{info: browserSafeProbe()})
	asset := testAsset()
	asset.FilePath = "/media/movie.mkv"
	// No segments ever appear: the encoder binary is missing.

	_, err := svc.Start(context.Background(), StartRequest{
		Asset:        asset,
		PreferDirect: true,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadinessTimeout)
	// The orphaned session stays registered until preempted or drained.
	assert.Equal(t, 1, svc.Registry().Len())
}

func TestService_Start_ProbeFailureForcesTranscode(t *testing.T) {
	cfg := testStreamingConfig()
	svc := testService(t, cfg, &fakeProber{err: errors.New("ffprobe exploded")})
	asset := testAsset() // mp4 container would otherwise direct-play
	writeSegmentsWhenAcquired(t, svc, asset.Key(), 0)

	result, err := svc.Start(context.Background(), StartRequest{
		Asset:        asset,
		PreferDirect: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ModeHLS, result.Mode)
}

func TestService_Start_InvalidOptions(t *testing.T) {
	svc := testService(t, testStreamingConfig(), &fakeProber{info: browserSafeProbe()})

	tests := []StartRequest{
		{Asset: testAsset(), Quality: "ultra"},
		{Asset: testAsset(), Resolution: "8k"},
		{Asset: testAsset(), SeekSeconds: -5},
		{Asset: testAsset(), SeekSeconds: 6000}, // beyond duration
	}

	for _, req := range tests {
		_, err := svc.Start(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
	assert.Equal(t, 0, svc.Registry().Len())
}

func TestService_StopIdempotent(t *testing.T) {
	svc := testService(t, testStreamingConfig(), &fakeProber{info: browserSafeProbe()})

	// Stopping an asset with no session is a no-op.
	svc.Stop("movie-NEVER")

	asset := testAsset()
	asset.FilePath = "/media/movie.mkv"
	writeSegmentsWhenAcquired(t, svc, asset.Key(), 0)
	result, err := svc.Start(context.Background(), StartRequest{Asset: asset, PreferDirect: true})
	require.NoError(t, err)

	svc.Stop(asset.Key())
	assert.Equal(t, 0, svc.Registry().Len())
	assert.NoDirExists(t, result.Session.Dir)
	svc.Stop(asset.Key())
}

func TestService_Manifest(t *testing.T) {
	svc := testService(t, testStreamingConfig(), &fakeProber{info: browserSafeProbe()})
	asset := testAsset()
	asset.FilePath = "/media/movie.mkv"
	writeSegmentsWhenAcquired(t, svc, asset.Key(), 0)

	result, err := svc.Start(context.Background(), StartRequest{Asset: asset, PreferDirect: true})
	require.NoError(t, err)

	manifest, err := svc.Manifest(result.Session.ID, "tok")
	require.NoError(t, err)
	assert.Contains(t, manifest, "#EXT-X-ENDLIST")
	assert.Contains(t, manifest, "stream0.ts?token=tok")

	_, err = svc.Manifest("01BOGUSSESSION", "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_SegmentPath(t *testing.T) {
	svc := testService(t, testStreamingConfig(), &fakeProber{info: browserSafeProbe()})
	asset := testAsset()
	asset.FilePath = "/media/movie.mkv"
	writeSegmentsWhenAcquired(t, svc, asset.Key(), 0)

	result, err := svc.Start(context.Background(), StartRequest{Asset: asset, PreferDirect: true})
	require.NoError(t, err)
	sessionID := result.Session.ID

	path, err := svc.SegmentPath(context.Background(), sessionID, "stream0.ts")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(result.Session.Dir, "stream0.ts"), path)

	// A segment that never appears times out.
	_, err = svc.SegmentPath(context.Background(), sessionID, "stream99.ts")
	assert.ErrorIs(t, err, ErrReadinessTimeout)

	// Traversal and junk names are rejected outright.
	for _, name := range []string{"../secret", "stream0.mp4", "index.m3u8", "stream.ts"} {
		_, err := svc.SegmentPath(context.Background(), sessionID, name)
		assert.ErrorIs(t, err, ErrInvalidRequest, name)
	}

	_, err = svc.SegmentPath(context.Background(), "01BOGUSSESSION", "stream0.ts")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_Shutdown(t *testing.T) {
	svc := testService(t, testStreamingConfig(), &fakeProber{info: browserSafeProbe()})
	asset := testAsset()
	asset.FilePath = "/media/movie.mkv"
	writeSegmentsWhenAcquired(t, svc, asset.Key(), 0)

	_, err := svc.Start(context.Background(), StartRequest{Asset: asset, PreferDirect: true})
	require.NoError(t, err)

	svc.Shutdown()
	assert.Equal(t, 0, svc.Registry().Len())
}
