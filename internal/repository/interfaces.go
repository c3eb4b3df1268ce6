// Package repository defines data access interfaces for lantern catalog
// entities. All database access goes through these interfaces, enabling
// easy testing and database backend switching.
package repository

import (
	"context"

	"github.com/henosis-us/lantern/internal/models"
)

// LibraryRepository defines operations for library persistence.
type LibraryRepository interface {
	// Create creates a new library.
	Create(ctx context.Context, library *models.Library) error
	// GetByID retrieves a library by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Library, error)
	// GetAll retrieves all libraries.
	GetAll(ctx context.Context) ([]*models.Library, error)
	// Update updates an existing library.
	Update(ctx context.Context, library *models.Library) error
	// Delete deletes a library by ID.
	Delete(ctx context.Context, id models.ULID) error
}

// MovieRepository defines operations for movie persistence.
type MovieRepository interface {
	// Create creates a new movie.
	Create(ctx context.Context, movie *models.Movie) error
	// GetByID retrieves a movie by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Movie, error)
	// GetByFilePath retrieves a movie by its file path.
	GetByFilePath(ctx context.Context, path string) (*models.Movie, error)
	// GetAll retrieves all main-feature movies (extras excluded).
	GetAll(ctx context.Context) ([]*models.Movie, error)
	// GetExtras retrieves extras attached to a main feature.
	GetExtras(ctx context.Context, parentID models.ULID) ([]*models.Movie, error)
	// Update updates an existing movie.
	Update(ctx context.Context, movie *models.Movie) error
	// Delete deletes a movie by ID.
	Delete(ctx context.Context, id models.ULID) error
	// DeleteMissing deletes movies whose file path is not in the given set,
	// returning the number of rows removed. Used after a scan sweep.
	DeleteMissing(ctx context.Context, libraryID models.ULID, keepPaths []string) (int64, error)
}

// SeriesRepository defines operations for series persistence.
type SeriesRepository interface {
	// Create creates a new series.
	Create(ctx context.Context, series *models.Series) error
	// GetByID retrieves a series by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Series, error)
	// GetByTitle retrieves a series by title.
	GetByTitle(ctx context.Context, title string) (*models.Series, error)
	// GetAll retrieves all series.
	GetAll(ctx context.Context) ([]*models.Series, error)
	// Update updates an existing series.
	Update(ctx context.Context, series *models.Series) error
	// Delete deletes a series and its episodes.
	Delete(ctx context.Context, id models.ULID) error
}

// EpisodeRepository defines operations for episode persistence.
type EpisodeRepository interface {
	// Create creates a new episode.
	Create(ctx context.Context, episode *models.Episode) error
	// GetByID retrieves an episode by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Episode, error)
	// GetByFilePath retrieves an episode by its file path.
	GetByFilePath(ctx context.Context, path string) (*models.Episode, error)
	// GetBySeriesID retrieves episodes of a series ordered by season and episode.
	GetBySeriesID(ctx context.Context, seriesID models.ULID) ([]*models.Episode, error)
	// Update updates an existing episode.
	Update(ctx context.Context, episode *models.Episode) error
	// Delete deletes an episode by ID.
	Delete(ctx context.Context, id models.ULID) error
	// DeleteMissing deletes episodes of a library's series whose file path
	// is not in keepPaths.
	DeleteMissing(ctx context.Context, libraryID models.ULID, keepPaths []string) (int64, error)
}

// SubtitleRepository defines operations for subtitle persistence.
type SubtitleRepository interface {
	// Create creates a new subtitle record.
	Create(ctx context.Context, subtitle *models.Subtitle) error
	// GetByID retrieves a subtitle by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.Subtitle, error)
	// GetByItem retrieves all subtitles for a movie or episode.
	GetByItem(ctx context.Context, itemType models.ItemType, itemID models.ULID) ([]*models.Subtitle, error)
	// Delete deletes a subtitle by ID.
	Delete(ctx context.Context, id models.ULID) error
	// GetPreference retrieves the selected subtitle for a user and item.
	GetPreference(ctx context.Context, username string, itemType models.ItemType, itemID models.ULID) (*models.SubtitlePreference, error)
	// SetPreference creates or updates the selected subtitle for a user and item.
	SetPreference(ctx context.Context, pref *models.SubtitlePreference) error
}

// WatchHistoryRepository defines operations for watch progress persistence.
type WatchHistoryRepository interface {
	// Save creates or updates the progress row for (username, item).
	Save(ctx context.Context, entry *models.WatchHistory) error
	// Get retrieves the progress for a user and item.
	Get(ctx context.Context, username string, itemType models.ItemType, itemID models.ULID) (*models.WatchHistory, error)
	// Delete removes the progress row for a user and item.
	Delete(ctx context.Context, username string, itemType models.ItemType, itemID models.ULID) error
	// GetContinueWatching retrieves partially watched entries for a user,
	// most recently updated first. Items at or past 90% complete are excluded.
	GetContinueWatching(ctx context.Context, username string, limit int) ([]*models.WatchHistory, error)
}

// ServerSettingRepository defines operations for server key/value settings.
type ServerSettingRepository interface {
	// Get retrieves a setting value; returns "" with no error when absent.
	Get(ctx context.Context, key string) (string, error)
	// Set creates or updates a setting.
	Set(ctx context.Context, key, value string) error
	// Delete removes a setting.
	Delete(ctx context.Context, key string) error
}
