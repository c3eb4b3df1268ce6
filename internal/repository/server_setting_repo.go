package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/henosis-us/lantern/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// serverSettingRepo implements ServerSettingRepository using GORM.
type serverSettingRepo struct {
	db *gorm.DB
}

// NewServerSettingRepository creates a new ServerSettingRepository.
func NewServerSettingRepository(db *gorm.DB) *serverSettingRepo {
	return &serverSettingRepo{db: db}
}

// Get retrieves a setting value; returns "" with no error when absent.
func (r *serverSettingRepo) Get(ctx context.Context, key string) (string, error) {
	var setting models.ServerSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("getting server setting: %w", err)
	}
	return setting.Value, nil
}

// Set creates or updates a setting.
func (r *serverSettingRepo) Set(ctx context.Context, key, value string) error {
	setting := &models.ServerSetting{Key: key, Value: value}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(setting).Error; err != nil {
		return fmt.Errorf("setting server setting: %w", err)
	}
	return nil
}

// Delete removes a setting.
func (r *serverSettingRepo) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.ServerSetting{}).Error; err != nil {
		return fmt.Errorf("deleting server setting: %w", err)
	}
	return nil
}

// Ensure serverSettingRepo implements ServerSettingRepository at compile time.
var _ ServerSettingRepository = (*serverSettingRepo)(nil)
