package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/henosis-us/lantern/internal/ffmpeg"
	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
	"github.com/henosis-us/lantern/internal/stream"
	"github.com/henosis-us/lantern/internal/tmdb"
)

// Prober inspects a media file's streams. *ffmpeg.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.MediaInfo, error)
}

// MetadataClient looks up titles on TMDB. *tmdb.Client satisfies it; the
// scanner treats tmdb.ErrNotConfigured as "skip enrichment".
type MetadataClient interface {
	SearchMovie(ctx context.Context, title string, year int) (*tmdb.Movie, error)
	SearchSeries(ctx context.Context, name string) (*tmdb.Series, error)
	MovieDetails(ctx context.Context, id int64) (*tmdb.Movie, error)
	SeriesDetails(ctx context.Context, id int64) (*tmdb.Series, error)
	EpisodeDetails(ctx context.Context, seriesID int64, season, episode int) (*tmdb.Episode, error)
}

// Scanner synchronizes library directories with the catalog.
type Scanner struct {
	libraries repository.LibraryRepository
	movies    repository.MovieRepository
	series    repository.SeriesRepository
	episodes  repository.EpisodeRepository
	prober    Prober
	metadata  MetadataClient
	logger    *slog.Logger

	// mu serializes scans; cron and the HTTP trigger share one Scanner.
	mu sync.Mutex
}

// New creates a scanner over the given repositories.
func New(
	libraries repository.LibraryRepository,
	movies repository.MovieRepository,
	series repository.SeriesRepository,
	episodes repository.EpisodeRepository,
	prober Prober,
	metadata MetadataClient,
	logger *slog.Logger,
) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		libraries: libraries,
		movies:    movies,
		series:    series,
		episodes:  episodes,
		prober:    prober,
		metadata:  metadata,
		logger:    logger.With("component", "scanner"),
	}
}

// Result summarizes a library scan.
type Result struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`
}

// ScanAll scans every library. Per-library failures are collected rather
// than aborting the whole run.
func (s *Scanner) ScanAll(ctx context.Context) error {
	libs, err := s.libraries.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("listing libraries: %w", err)
	}

	var errs []error
	for _, lib := range libs {
		if _, err := s.ScanLibrary(ctx, lib); err != nil {
			s.logger.Error("library scan failed", "library", lib.Name, "error", err)
			errs = append(errs, fmt.Errorf("library %q: %w", lib.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ScanLibrary walks one library root and reconciles the catalog with the
// files found on disk. Only one scan runs at a time.
func (s *Scanner) ScanLibrary(ctx context.Context, lib *models.Library) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("scanning library", "library", lib.Name, "path", lib.Path, "type", lib.Type)

	switch lib.Type {
	case models.LibraryTypeMovie:
		return s.scanMovies(ctx, lib)
	case models.LibraryTypeTV:
		return s.scanTV(ctx, lib)
	default:
		return nil, fmt.Errorf("library %q: %w", lib.Name, models.ErrInvalidLibraryType)
	}
}

func (s *Scanner) scanMovies(ctx context.Context, lib *models.Library) (*Result, error) {
	res := &Result{}
	var mains, extras []string

	err := filepath.WalkDir(lib.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("walk error", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !IsVideoFile(path) {
			return nil
		}
		if underExtrasDir(lib.Path, path) {
			extras = append(extras, path)
		} else {
			mains = append(mains, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", lib.Path, err)
	}

	// Main features first so extras can attach to them.
	for _, path := range mains {
		if err := s.upsertMovie(ctx, lib, path, nil, res); err != nil {
			return nil, err
		}
	}
	for _, path := range extras {
		parent, err := s.findExtraParent(ctx, path)
		if err != nil {
			return nil, err
		}
		if err := s.upsertMovie(ctx, lib, path, parent, res); err != nil {
			return nil, err
		}
	}

	seen := append(append([]string(nil), mains...), extras...)
	removed, err := s.movies.DeleteMissing(ctx, lib.ID, seen)
	if err != nil {
		return nil, err
	}
	res.Removed = int(removed)

	s.logger.Info("movie scan complete", "library", lib.Name,
		"added", res.Added, "updated", res.Updated, "removed", res.Removed, "skipped", res.Skipped)
	return res, nil
}

func (s *Scanner) upsertMovie(ctx context.Context, lib *models.Library, path string, parentID *models.ULID, res *Result) error {
	existing, err := s.movies.GetByFilePath(ctx, path)
	if err != nil {
		return err
	}
	if existing != nil {
		res.Skipped++
		return nil
	}

	title, year := CleanName(filepath.Base(path))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	movie := &models.Movie{
		LibraryID: lib.ID,
		Title:     title,
		FilePath:  path,
		ParentID:  parentID,
	}
	s.applyProbe(ctx, path, &movie.VideoCodec, &movie.AudioCodec, &movie.AudioChannels, &movie.DurationSeconds, &movie.DirectPlay)

	// Extras keep their filename-derived title; only features get metadata.
	if parentID == nil {
		s.enrichMovie(ctx, movie, title, year)
	}

	if err := s.movies.Create(ctx, movie); err != nil {
		return fmt.Errorf("creating movie %s: %w", path, err)
	}
	res.Added++
	return nil
}

func (s *Scanner) enrichMovie(ctx context.Context, movie *models.Movie, title string, year int) {
	match, err := s.metadata.SearchMovie(ctx, title, year)
	if err != nil {
		if !errors.Is(err, tmdb.ErrNotConfigured) {
			s.logger.Warn("tmdb movie search failed", "title", title, "error", err)
		}
		return
	}
	if match == nil {
		s.logger.Debug("no tmdb match", "title", title, "year", year)
		return
	}

	movie.TMDBID = match.ID
	movie.Title = match.Title
	movie.Overview = match.Overview
	movie.PosterPath = match.PosterPath
	movie.ReleaseDate = match.ReleaseDate
	movie.VoteAverage = match.VoteAverage

	// Search results carry genre IDs only; details carry names.
	if details, err := s.metadata.MovieDetails(ctx, match.ID); err == nil && details != nil {
		movie.Genres = tmdb.GenreNames(details.Genres)
	}
}

// findExtraParent locates the main feature an extras file belongs to: the
// movie whose file lives in an ancestor directory of the extras folder.
func (s *Scanner) findExtraParent(ctx context.Context, extraPath string) (*models.ULID, error) {
	for dir := filepath.Dir(extraPath); ; dir = filepath.Dir(dir) {
		base := strings.ToLower(filepath.Base(dir))
		if !extrasDirs[base] && !strings.Contains(base, "extra") {
			entries, err := filepath.Glob(filepath.Join(dir, "*"))
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				if !IsVideoFile(entry) {
					continue
				}
				movie, err := s.movies.GetByFilePath(ctx, entry)
				if err != nil {
					return nil, err
				}
				if movie != nil && movie.ParentID == nil {
					id := movie.ID
					return &id, nil
				}
			}
			return nil, nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return nil, nil
		}
	}
}

func (s *Scanner) scanTV(ctx context.Context, lib *models.Library) (*Result, error) {
	res := &Result{}
	var seen []string

	// Series rows created or matched during this walk, keyed by title.
	cache := map[string]*models.Series{}

	err := filepath.WalkDir(lib.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("walk error", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !IsVideoFile(path) {
			return nil
		}

		info, ok := ParseEpisode(path)
		if !ok {
			s.logger.Debug("unrecognized tv file", "path", path)
			res.Skipped++
			return nil
		}
		seen = append(seen, path)
		return s.upsertEpisode(ctx, lib, path, info, cache, res)
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", lib.Path, err)
	}

	removed, err := s.episodes.DeleteMissing(ctx, lib.ID, seen)
	if err != nil {
		return nil, err
	}
	res.Removed = int(removed)

	s.logger.Info("tv scan complete", "library", lib.Name,
		"added", res.Added, "updated", res.Updated, "removed", res.Removed, "skipped", res.Skipped)
	return res, nil
}

func (s *Scanner) upsertEpisode(ctx context.Context, lib *models.Library, path string, info *EpisodeInfo, cache map[string]*models.Series, res *Result) error {
	existing, err := s.episodes.GetByFilePath(ctx, path)
	if err != nil {
		return err
	}
	if existing != nil {
		res.Skipped++
		return nil
	}

	series, err := s.seriesFor(ctx, lib, info, cache)
	if err != nil {
		return err
	}

	episode := &models.Episode{
		SeriesID:  series.ID,
		Season:    info.Season,
		Episode:   info.Episode,
		FilePath:  path,
		ExtraType: info.ExtraType,
	}
	s.applyProbe(ctx, path, &episode.VideoCodec, &episode.AudioCodec, &episode.AudioChannels, &episode.DurationSeconds, &episode.DirectPlay)

	if !info.Extra && series.TMDBID != 0 {
		if details, err := s.metadata.EpisodeDetails(ctx, series.TMDBID, info.Season, info.Episode); err == nil && details != nil {
			episode.Title = details.Name
			episode.Overview = details.Overview
			episode.StillPath = details.StillPath
			episode.AirDate = details.AirDate
		}
	}
	if episode.Title == "" {
		episode.Title = fmt.Sprintf("Episode %d", info.Episode)
	}

	if err := s.episodes.Create(ctx, episode); err != nil {
		// Two files can parse to the same (series, season, episode);
		// keep the first and move on.
		s.logger.Warn("skipping episode", "path", path, "error", err)
		res.Skipped++
		return nil
	}
	res.Added++
	return nil
}

func (s *Scanner) seriesFor(ctx context.Context, lib *models.Library, info *EpisodeInfo, cache map[string]*models.Series) (*models.Series, error) {
	if series, ok := cache[info.Show]; ok {
		return series, nil
	}

	series, err := s.series.GetByTitle(ctx, info.Show)
	if err != nil {
		return nil, err
	}
	if series == nil {
		series = &models.Series{LibraryID: lib.ID, Title: info.Show}
		s.enrichSeries(ctx, series, info.Show)
		if err := s.series.Create(ctx, series); err != nil {
			return nil, fmt.Errorf("creating series %q: %w", info.Show, err)
		}
	}
	cache[info.Show] = series
	return series, nil
}

func (s *Scanner) enrichSeries(ctx context.Context, series *models.Series, name string) {
	match, err := s.metadata.SearchSeries(ctx, name)
	if err != nil {
		if !errors.Is(err, tmdb.ErrNotConfigured) {
			s.logger.Warn("tmdb series search failed", "name", name, "error", err)
		}
		return
	}
	if match == nil {
		return
	}

	series.TMDBID = match.ID
	series.Title = match.Name
	series.Overview = match.Overview
	series.PosterPath = match.PosterPath
	series.FirstAirDate = match.FirstAirDate
	series.VoteAverage = match.VoteAverage

	if details, err := s.metadata.SeriesDetails(ctx, match.ID); err == nil && details != nil {
		series.Genres = tmdb.GenreNames(details.Genres)
	}
}

// applyProbe fills codec fields and the cached playability decision. A
// failed probe leaves the zero values, which always classify as transcode.
func (s *Scanner) applyProbe(ctx context.Context, path string, videoCodec, audioCodec *string, channels *int, duration *float64, directPlay *bool) {
	probe, err := s.prober.Probe(ctx, path)
	if err != nil {
		s.logger.Warn("probe failed", "path", path, "error", err)
		return
	}
	*videoCodec = probe.VideoCodec
	*audioCodec = probe.AudioCodec
	*channels = probe.AudioChannels
	*duration = probe.DurationSeconds

	decision := stream.Classify(path, probe, stream.Options{PreferDirect: true})
	*directPlay = decision.Direct
	if !decision.Direct {
		s.logger.Debug("transcode required", "path", path, "reason", decision.Reason)
	}
}

// underExtrasDir reports whether path sits below a bonus-material
// directory inside root.
func underExtrasDir(root, path string) bool {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		lower := strings.ToLower(part)
		if extrasDirs[lower] || strings.Contains(lower, "extra") {
			return true
		}
	}
	return false
}
