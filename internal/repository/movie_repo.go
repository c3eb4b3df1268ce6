package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/henosis-us/lantern/internal/models"
	"gorm.io/gorm"
)

// movieRepo implements MovieRepository using GORM.
type movieRepo struct {
	db *gorm.DB
}

// NewMovieRepository creates a new MovieRepository.
func NewMovieRepository(db *gorm.DB) *movieRepo {
	return &movieRepo{db: db}
}

// Create creates a new movie.
func (r *movieRepo) Create(ctx context.Context, movie *models.Movie) error {
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		return fmt.Errorf("creating movie: %w", err)
	}
	return nil
}

// GetByID retrieves a movie by ID.
func (r *movieRepo) GetByID(ctx context.Context, id models.ULID) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting movie by ID: %w", err)
	}
	return &movie, nil
}

// GetByFilePath retrieves a movie by its file path.
func (r *movieRepo) GetByFilePath(ctx context.Context, path string) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).Where("file_path = ?", path).First(&movie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting movie by file path: %w", err)
	}
	return &movie, nil
}

// GetAll retrieves all main-feature movies (extras excluded).
func (r *movieRepo) GetAll(ctx context.Context) ([]*models.Movie, error) {
	var movies []*models.Movie
	if err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("title ASC").
		Find(&movies).Error; err != nil {
		return nil, fmt.Errorf("getting movies: %w", err)
	}
	return movies, nil
}

// GetExtras retrieves extras attached to a main feature.
func (r *movieRepo) GetExtras(ctx context.Context, parentID models.ULID) ([]*models.Movie, error) {
	var extras []*models.Movie
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("title ASC").
		Find(&extras).Error; err != nil {
		return nil, fmt.Errorf("getting movie extras: %w", err)
	}
	return extras, nil
}

// Update updates an existing movie.
func (r *movieRepo) Update(ctx context.Context, movie *models.Movie) error {
	if err := r.db.WithContext(ctx).Save(movie).Error; err != nil {
		return fmt.Errorf("updating movie: %w", err)
	}
	return nil
}

// Delete deletes a movie by ID.
func (r *movieRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Movie{}).Error; err != nil {
		return fmt.Errorf("deleting movie: %w", err)
	}
	return nil
}

// DeleteMissing deletes movies in a library whose file path is not in keepPaths.
func (r *movieRepo) DeleteMissing(ctx context.Context, libraryID models.ULID, keepPaths []string) (int64, error) {
	q := r.db.WithContext(ctx).Where("library_id = ?", libraryID)
	if len(keepPaths) > 0 {
		q = q.Where("file_path NOT IN ?", keepPaths)
	}
	res := q.Delete(&models.Movie{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting missing movies: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Ensure movieRepo implements MovieRepository at compile time.
var _ MovieRepository = (*movieRepo)(nil)
