package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/henosis-us/lantern/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// watchHistoryRepo implements WatchHistoryRepository using GORM.
type watchHistoryRepo struct {
	db *gorm.DB
}

// NewWatchHistoryRepository creates a new WatchHistoryRepository.
func NewWatchHistoryRepository(db *gorm.DB) *watchHistoryRepo {
	return &watchHistoryRepo{db: db}
}

// Save creates or updates the progress row for (username, item).
func (r *watchHistoryRepo) Save(ctx context.Context, entry *models.WatchHistory) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}, {Name: "item_type"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position_seconds", "duration_seconds", "updated_at"}),
	}).Create(entry).Error; err != nil {
		return fmt.Errorf("saving watch history: %w", err)
	}
	return nil
}

// Get retrieves the progress for a user and item.
func (r *watchHistoryRepo) Get(ctx context.Context, username string, itemType models.ItemType, itemID models.ULID) (*models.WatchHistory, error) {
	var entry models.WatchHistory
	if err := r.db.WithContext(ctx).
		Where("username = ? AND item_type = ? AND item_id = ?", username, itemType, itemID).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting watch history: %w", err)
	}
	return &entry, nil
}

// Delete removes the progress row for a user and item.
func (r *watchHistoryRepo) Delete(ctx context.Context, username string, itemType models.ItemType, itemID models.ULID) error {
	// Hard delete: a soft-deleted row would still occupy the unique
	// (username, item) index and block future progress saves.
	if err := r.db.WithContext(ctx).Unscoped().
		Where("username = ? AND item_type = ? AND item_id = ?", username, itemType, itemID).
		Delete(&models.WatchHistory{}).Error; err != nil {
		return fmt.Errorf("deleting watch history: %w", err)
	}
	return nil
}

// GetContinueWatching retrieves partially watched entries for a user,
// most recently updated first. Items at or past 90% complete are excluded.
func (r *watchHistoryRepo) GetContinueWatching(ctx context.Context, username string, limit int) ([]*models.WatchHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	var entries []*models.WatchHistory
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Where("duration_seconds > 0 AND position_seconds < duration_seconds * 0.90").
		Order("updated_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("getting continue watching list: %w", err)
	}
	return entries, nil
}

// Ensure watchHistoryRepo implements WatchHistoryRepository at compile time.
var _ WatchHistoryRepository = (*watchHistoryRepo)(nil)
