package models

import (
	"gorm.io/gorm"
)

// Subtitle represents a cached subtitle file for a movie or episode.
// Movies and episodes share one table, keyed by (ItemType, ItemID).
type Subtitle struct {
	BaseModel

	// ItemType says whether ItemID refers to a movie or an episode.
	ItemType ItemType `gorm:"not null;size:20;index:idx_subtitle_item" json:"item_type"`

	// ItemID is the movie or episode this subtitle belongs to.
	ItemID ULID `gorm:"type:varchar(26);not null;index:idx_subtitle_item" json:"item_id"`

	// Lang is the subtitle language code (e.g. "en").
	Lang string `gorm:"size:20" json:"lang,omitempty"`

	// Provider identifies where the subtitle was downloaded from.
	Provider string `gorm:"size:50;index:idx_subtitle_provider,unique" json:"provider,omitempty"`

	// ProviderID is the provider's identifier, for dedupe on re-download.
	ProviderID string `gorm:"size:255;index:idx_subtitle_provider,unique" json:"provider_id,omitempty"`

	// FilePath is the cached VTT file path on disk.
	FilePath string `gorm:"size:4096" json:"file_path,omitempty"`

	// FileName is the display name shown to clients.
	FileName string `gorm:"size:512" json:"file_name,omitempty"`
}

// TableName returns the table name for Subtitle.
func (Subtitle) TableName() string {
	return "subtitles"
}

// Validate performs basic validation on the subtitle.
func (s *Subtitle) Validate() error {
	if !s.ItemType.Valid() {
		return ErrInvalidItemType
	}
	if s.ItemID.IsZero() {
		return ErrItemIDRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the subtitle and generates its ULID.
func (s *Subtitle) BeforeCreate(tx *gorm.DB) error {
	if err := s.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return s.Validate()
}

// SubtitlePreference records which subtitle a user selected for an item.
type SubtitlePreference struct {
	BaseModel

	// Username is the viewer the preference belongs to.
	Username string `gorm:"not null;size:255;index:idx_subtitle_pref,unique" json:"username"`

	// ItemType says whether ItemID refers to a movie or an episode.
	ItemType ItemType `gorm:"not null;size:20;index:idx_subtitle_pref,unique" json:"item_type"`

	// ItemID is the movie or episode the preference applies to.
	ItemID ULID `gorm:"type:varchar(26);not null;index:idx_subtitle_pref,unique" json:"item_id"`

	// SubtitleID is the selected subtitle; nil means subtitles off.
	SubtitleID *ULID `gorm:"type:varchar(26)" json:"subtitle_id,omitempty"`
}

// TableName returns the table name for SubtitlePreference.
func (SubtitlePreference) TableName() string {
	return "subtitle_prefs"
}

// Validate performs basic validation on the preference.
func (p *SubtitlePreference) Validate() error {
	if p.Username == "" {
		return ErrUsernameRequired
	}
	if !p.ItemType.Valid() {
		return ErrInvalidItemType
	}
	if p.ItemID.IsZero() {
		return ErrItemIDRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the preference and generates its ULID.
func (p *SubtitlePreference) BeforeCreate(tx *gorm.DB) error {
	if err := p.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return p.Validate()
}
