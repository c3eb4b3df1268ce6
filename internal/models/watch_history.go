package models

import (
	"gorm.io/gorm"
)

// WatchHistory records a user's playback position for a movie or episode.
// One row per (username, item); progress updates overwrite in place.
type WatchHistory struct {
	BaseModel

	// Username is the viewer the progress belongs to.
	Username string `gorm:"not null;size:255;index:idx_history_item,unique" json:"username"`

	// ItemType says whether ItemID refers to a movie or an episode.
	ItemType ItemType `gorm:"not null;size:20;index:idx_history_item,unique" json:"item_type"`

	// ItemID is the movie or episode being watched.
	ItemID ULID `gorm:"type:varchar(26);not null;index:idx_history_item,unique" json:"item_id"`

	// PositionSeconds is the last reported playback position.
	PositionSeconds float64 `gorm:"default:0" json:"position_seconds"`

	// DurationSeconds is the item runtime reported by the client.
	DurationSeconds float64 `gorm:"default:0" json:"duration_seconds"`
}

// TableName returns the table name for WatchHistory.
func (WatchHistory) TableName() string {
	return "watch_history"
}

// Validate performs basic validation on the history entry.
func (w *WatchHistory) Validate() error {
	if w.Username == "" {
		return ErrUsernameRequired
	}
	if !w.ItemType.Valid() {
		return ErrInvalidItemType
	}
	if w.ItemID.IsZero() {
		return ErrItemIDRequired
	}
	if w.PositionSeconds < 0 {
		return ErrInvalidPosition
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the entry and generates its ULID.
func (w *WatchHistory) BeforeCreate(tx *gorm.DB) error {
	if err := w.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return w.Validate()
}

// BeforeUpdate is a GORM hook that validates the entry before update.
func (w *WatchHistory) BeforeUpdate(tx *gorm.DB) error {
	return w.Validate()
}
