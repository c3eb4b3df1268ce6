package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/henosis-us/lantern/internal/models"
	"gorm.io/gorm"
)

// episodeRepo implements EpisodeRepository using GORM.
type episodeRepo struct {
	db *gorm.DB
}

// NewEpisodeRepository creates a new EpisodeRepository.
func NewEpisodeRepository(db *gorm.DB) *episodeRepo {
	return &episodeRepo{db: db}
}

// Create creates a new episode.
func (r *episodeRepo) Create(ctx context.Context, episode *models.Episode) error {
	if err := r.db.WithContext(ctx).Create(episode).Error; err != nil {
		return fmt.Errorf("creating episode: %w", err)
	}
	return nil
}

// GetByID retrieves an episode by ID.
func (r *episodeRepo) GetByID(ctx context.Context, id models.ULID) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&episode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting episode by ID: %w", err)
	}
	return &episode, nil
}

// GetByFilePath retrieves an episode by its file path.
func (r *episodeRepo) GetByFilePath(ctx context.Context, path string) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).Where("file_path = ?", path).First(&episode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting episode by file path: %w", err)
	}
	return &episode, nil
}

// GetBySeriesID retrieves episodes of a series ordered by season and episode.
func (r *episodeRepo) GetBySeriesID(ctx context.Context, seriesID models.ULID) ([]*models.Episode, error) {
	var episodes []*models.Episode
	if err := r.db.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("season ASC, episode ASC").
		Find(&episodes).Error; err != nil {
		return nil, fmt.Errorf("getting episodes by series ID: %w", err)
	}
	return episodes, nil
}

// Update updates an existing episode.
func (r *episodeRepo) Update(ctx context.Context, episode *models.Episode) error {
	if err := r.db.WithContext(ctx).Save(episode).Error; err != nil {
		return fmt.Errorf("updating episode: %w", err)
	}
	return nil
}

// Delete deletes an episode by ID.
func (r *episodeRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Episode{}).Error; err != nil {
		return fmt.Errorf("deleting episode: %w", err)
	}
	return nil
}

// DeleteMissing deletes episodes of a library's series whose file path is
// not in keepPaths.
func (r *episodeRepo) DeleteMissing(ctx context.Context, libraryID models.ULID, keepPaths []string) (int64, error) {
	seriesIDs := r.db.Model(&models.Series{}).Select("id").Where("library_id = ?", libraryID)
	q := r.db.WithContext(ctx).Where("series_id IN (?)", seriesIDs)
	if len(keepPaths) > 0 {
		q = q.Where("file_path NOT IN ?", keepPaths)
	}
	res := q.Delete(&models.Episode{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting missing episodes: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Ensure episodeRepo implements EpisodeRepository at compile time.
var _ EpisodeRepository = (*episodeRepo)(nil)
