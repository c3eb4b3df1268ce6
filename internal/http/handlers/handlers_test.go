package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/henosis-us/lantern/internal/ffmpeg"
	"github.com/henosis-us/lantern/internal/http/middleware"
	"github.com/henosis-us/lantern/internal/identity"
	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
	"github.com/henosis-us/lantern/internal/tmdb"
)

// handlerFixture wires real repositories over an in-memory database so
// handler tests exercise the same query paths as production.
type handlerFixture struct {
	db        *gorm.DB
	libraries repository.LibraryRepository
	movies    repository.MovieRepository
	series    repository.SeriesRepository
	episodes  repository.EpisodeRepository
	history   repository.WatchHistoryRepository
	subtitles repository.SubtitleRepository
}

func setupHandlers(t *testing.T) *handlerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Library{}, &models.Movie{}, &models.Series{}, &models.Episode{},
		&models.WatchHistory{}, &models.Subtitle{}, &models.SubtitlePreference{},
	))

	return &handlerFixture{
		db:        db,
		libraries: repository.NewLibraryRepository(db),
		movies:    repository.NewMovieRepository(db),
		series:    repository.NewSeriesRepository(db),
		episodes:  repository.NewEpisodeRepository(db),
		history:   repository.NewWatchHistoryRepository(db),
		subtitles: repository.NewSubtitleRepository(db),
	}
}

func touchFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

// authedCtx returns a context carrying a verified non-owner caller.
func authedCtx(username string) context.Context {
	return middleware.WithUser(context.Background(), &identity.VerifyResult{
		Valid:    true,
		Username: username,
	})
}

// ownerCtx returns a context carrying the verified owner.
func ownerCtx(username string) context.Context {
	return middleware.WithUser(context.Background(), &identity.VerifyResult{
		Valid:    true,
		Username: username,
		IsOwner:  true,
	})
}

// assertStatus checks that a handler error carries the given HTTP status.
func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	require.Error(t, err)
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, want, se.GetStatus())
}

// stubProber satisfies scanner.Prober with a fixed direct-playable probe.
type stubProber struct{}

func (stubProber) Probe(context.Context, string) (*ffmpeg.MediaInfo, error) {
	return &ffmpeg.MediaInfo{
		FormatName:      "mov,mp4,m4a,3gp,3g2,mj2",
		DurationSeconds: 5400,
		VideoCodec:      "h264",
		AudioCodec:      "aac",
		AudioChannels:   2,
	}, nil
}

// stubMetadata satisfies scanner.MetadataClient like an unconfigured
// TMDB client.
type stubMetadata struct{}

func (stubMetadata) SearchMovie(context.Context, string, int) (*tmdb.Movie, error) {
	return nil, tmdb.ErrNotConfigured
}

func (stubMetadata) SearchSeries(context.Context, string) (*tmdb.Series, error) {
	return nil, tmdb.ErrNotConfigured
}

func (stubMetadata) MovieDetails(context.Context, int64) (*tmdb.Movie, error) {
	return nil, tmdb.ErrNotConfigured
}

func (stubMetadata) SeriesDetails(context.Context, int64) (*tmdb.Series, error) {
	return nil, tmdb.ErrNotConfigured
}

func (stubMetadata) EpisodeDetails(context.Context, int64, int, int) (*tmdb.Episode, error) {
	return nil, tmdb.ErrNotConfigured
}
