package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/henosis-us/lantern/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subtitleRepo implements SubtitleRepository using GORM.
type subtitleRepo struct {
	db *gorm.DB
}

// NewSubtitleRepository creates a new SubtitleRepository.
func NewSubtitleRepository(db *gorm.DB) *subtitleRepo {
	return &subtitleRepo{db: db}
}

// Create creates a new subtitle record.
func (r *subtitleRepo) Create(ctx context.Context, subtitle *models.Subtitle) error {
	if err := r.db.WithContext(ctx).Create(subtitle).Error; err != nil {
		return fmt.Errorf("creating subtitle: %w", err)
	}
	return nil
}

// GetByID retrieves a subtitle by ID.
func (r *subtitleRepo) GetByID(ctx context.Context, id models.ULID) (*models.Subtitle, error) {
	var subtitle models.Subtitle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&subtitle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting subtitle by ID: %w", err)
	}
	return &subtitle, nil
}

// GetByItem retrieves all subtitles for a movie or episode.
func (r *subtitleRepo) GetByItem(ctx context.Context, itemType models.ItemType, itemID models.ULID) ([]*models.Subtitle, error) {
	var subtitles []*models.Subtitle
	if err := r.db.WithContext(ctx).
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Order("lang ASC, id ASC").
		Find(&subtitles).Error; err != nil {
		return nil, fmt.Errorf("getting subtitles by item: %w", err)
	}
	return subtitles, nil
}

// Delete deletes a subtitle by ID.
func (r *subtitleRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Subtitle{}).Error; err != nil {
		return fmt.Errorf("deleting subtitle: %w", err)
	}
	return nil
}

// GetPreference retrieves the selected subtitle for a user and item.
func (r *subtitleRepo) GetPreference(ctx context.Context, username string, itemType models.ItemType, itemID models.ULID) (*models.SubtitlePreference, error) {
	var pref models.SubtitlePreference
	if err := r.db.WithContext(ctx).
		Where("username = ? AND item_type = ? AND item_id = ?", username, itemType, itemID).
		First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting subtitle preference: %w", err)
	}
	return &pref, nil
}

// SetPreference creates or updates the selected subtitle for a user and item.
func (r *subtitleRepo) SetPreference(ctx context.Context, pref *models.SubtitlePreference) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}, {Name: "item_type"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"subtitle_id", "updated_at"}),
	}).Create(pref).Error; err != nil {
		return fmt.Errorf("setting subtitle preference: %w", err)
	}
	return nil
}

// Ensure subtitleRepo implements SubtitleRepository at compile time.
var _ SubtitleRepository = (*subtitleRepo)(nil)
