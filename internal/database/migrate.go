package database

import (
	"fmt"

	"github.com/henosis-us/lantern/internal/models"
)

// Migrate creates or updates the schema for all catalog models.
// GORM AutoMigrate only adds missing tables, columns, and indexes; it
// never drops existing data.
func (db *DB) Migrate() error {
	if err := db.DB.AutoMigrate(
		&models.Library{},
		&models.Movie{},
		&models.Series{},
		&models.Episode{},
		&models.Subtitle{},
		&models.SubtitlePreference{},
		&models.WatchHistory{},
		&models.ServerSetting{},
	); err != nil {
		return fmt.Errorf("running auto-migration: %w", err)
	}
	return nil
}
