package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/henosis-us/lantern/internal/models"
	"gorm.io/gorm"
)

// seriesRepo implements SeriesRepository using GORM.
type seriesRepo struct {
	db *gorm.DB
}

// NewSeriesRepository creates a new SeriesRepository.
func NewSeriesRepository(db *gorm.DB) *seriesRepo {
	return &seriesRepo{db: db}
}

// Create creates a new series.
func (r *seriesRepo) Create(ctx context.Context, series *models.Series) error {
	if err := r.db.WithContext(ctx).Create(series).Error; err != nil {
		return fmt.Errorf("creating series: %w", err)
	}
	return nil
}

// GetByID retrieves a series by ID.
func (r *seriesRepo) GetByID(ctx context.Context, id models.ULID) (*models.Series, error) {
	var series models.Series
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&series).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting series by ID: %w", err)
	}
	return &series, nil
}

// GetByTitle retrieves a series by title.
func (r *seriesRepo) GetByTitle(ctx context.Context, title string) (*models.Series, error) {
	var series models.Series
	if err := r.db.WithContext(ctx).Where("title = ?", title).First(&series).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting series by title: %w", err)
	}
	return &series, nil
}

// GetAll retrieves all series.
func (r *seriesRepo) GetAll(ctx context.Context) ([]*models.Series, error) {
	var series []*models.Series
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&series).Error; err != nil {
		return nil, fmt.Errorf("getting series: %w", err)
	}
	return series, nil
}

// Update updates an existing series.
func (r *seriesRepo) Update(ctx context.Context, series *models.Series) error {
	if err := r.db.WithContext(ctx).Save(series).Error; err != nil {
		return fmt.Errorf("updating series: %w", err)
	}
	return nil
}

// Delete deletes a series and its episodes.
func (r *seriesRepo) Delete(ctx context.Context, id models.ULID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("series_id = ?", id).Delete(&models.Episode{}).Error; err != nil {
			return fmt.Errorf("deleting series episodes: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Series{}).Error; err != nil {
			return fmt.Errorf("deleting series: %w", err)
		}
		return nil
	})
}

// Ensure seriesRepo implements SeriesRepository at compile time.
var _ SeriesRepository = (*seriesRepo)(nil)
