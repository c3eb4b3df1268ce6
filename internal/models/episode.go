package models

import (
	"gorm.io/gorm"
)

// Episode represents a single TV episode file in the catalog.
type Episode struct {
	BaseModel

	// SeriesID is the foreign key to the parent Series.
	SeriesID ULID `gorm:"type:varchar(26);not null;index:idx_series_season_episode,unique" json:"series_id"`

	// Season is the season number (0 = specials).
	Season int `gorm:"not null;index:idx_series_season_episode,unique" json:"season"`

	// Episode is the episode number within the season.
	Episode int `gorm:"not null;index:idx_series_season_episode,unique" json:"episode"`

	// Title is the episode title if known.
	Title string `gorm:"size:512" json:"title,omitempty"`

	// Overview is the TMDB synopsis.
	Overview string `gorm:"type:text" json:"overview,omitempty"`

	// FilePath is the absolute path to the media file.
	FilePath string `gorm:"not null;size:4096;uniqueIndex" json:"file_path"`

	// DurationSeconds is the probed runtime.
	DurationSeconds float64 `gorm:"default:0" json:"duration_seconds"`

	// AirDate is the TMDB air date (YYYY-MM-DD).
	AirDate string `gorm:"size:20" json:"air_date,omitempty"`

	// ExtraType marks non-episode content (behindthescenes, deleted, ...).
	ExtraType string `gorm:"size:50" json:"extra_type,omitempty"`

	// StillPath is the TMDB still image path.
	StillPath string `gorm:"size:512" json:"still_path,omitempty"`

	// VideoCodec is the probed codec of the first video stream.
	VideoCodec string `gorm:"size:50" json:"video_codec,omitempty"`

	// AudioCodec is the probed codec of the first audio stream.
	AudioCodec string `gorm:"size:50" json:"audio_codec,omitempty"`

	// AudioChannels is the probed channel count of the first audio stream.
	AudioChannels int `gorm:"default:0" json:"audio_channels,omitempty"`

	// DirectPlay records the playability decision made at scan time.
	DirectPlay bool `gorm:"default:false" json:"direct_play"`

	// Series is the relationship back to the parent Series.
	Series *Series `gorm:"foreignKey:SeriesID" json:"series,omitempty"`
}

// TableName returns the table name for Episode.
func (Episode) TableName() string {
	return "episodes"
}

// Validate performs basic validation on the episode.
func (e *Episode) Validate() error {
	if e.SeriesID.IsZero() {
		return ErrSeriesIDRequired
	}
	if e.FilePath == "" {
		return ErrFilePathRequired
	}
	if e.Season < 0 {
		return ErrInvalidSeasonNumber
	}
	if e.Episode < 0 {
		return ErrInvalidEpisodeNumber
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the episode and generates its ULID.
func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	if err := e.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return e.Validate()
}

// BeforeUpdate is a GORM hook that validates the episode before update.
func (e *Episode) BeforeUpdate(tx *gorm.DB) error {
	return e.Validate()
}
