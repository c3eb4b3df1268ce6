package models

import (
	"gorm.io/gorm"
)

// Movie represents a single movie file in the catalog.
type Movie struct {
	BaseModel

	// LibraryID is the foreign key to the owning Library.
	LibraryID ULID `gorm:"type:varchar(26);index" json:"library_id"`

	// Title is the display title, parsed from the filename or TMDB.
	Title string `gorm:"not null;size:512" json:"title"`

	// FilePath is the absolute path to the media file.
	FilePath string `gorm:"not null;size:4096;uniqueIndex" json:"file_path"`

	// TMDBID is the TMDB identifier if metadata has been matched.
	TMDBID int64 `gorm:"default:0" json:"tmdb_id,omitempty"`

	// Overview is the TMDB synopsis.
	Overview string `gorm:"type:text" json:"overview,omitempty"`

	// PosterPath is the TMDB poster image path.
	PosterPath string `gorm:"size:512" json:"poster_path,omitempty"`

	// ReleaseDate is the TMDB release date (YYYY-MM-DD).
	ReleaseDate string `gorm:"size:20" json:"release_date,omitempty"`

	// DurationSeconds is the probed runtime.
	DurationSeconds float64 `gorm:"default:0" json:"duration_seconds"`

	// VoteAverage is the TMDB rating.
	VoteAverage float64 `gorm:"default:0" json:"vote_average,omitempty"`

	// Genres is a comma-separated genre list from TMDB.
	Genres string `gorm:"size:512" json:"genres,omitempty"`

	// ParentID links extras (trailers, featurettes) to their main feature.
	ParentID *ULID `gorm:"type:varchar(26);index" json:"parent_id,omitempty"`

	// VideoCodec is the probed codec of the first video stream.
	VideoCodec string `gorm:"size:50" json:"video_codec,omitempty"`

	// AudioCodec is the probed codec of the first audio stream.
	AudioCodec string `gorm:"size:50" json:"audio_codec,omitempty"`

	// AudioChannels is the probed channel count of the first audio stream.
	AudioChannels int `gorm:"default:0" json:"audio_channels,omitempty"`

	// DirectPlay records the playability decision made at scan time.
	DirectPlay bool `gorm:"default:false" json:"direct_play"`

	// Library is the relationship back to the owning Library.
	Library *Library `gorm:"foreignKey:LibraryID" json:"library,omitempty"`
}

// TableName returns the table name for Movie.
func (Movie) TableName() string {
	return "movies"
}

// Validate performs basic validation on the movie.
func (m *Movie) Validate() error {
	if m.Title == "" {
		return ErrTitleRequired
	}
	if m.FilePath == "" {
		return ErrFilePathRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the movie and generates its ULID.
func (m *Movie) BeforeCreate(tx *gorm.DB) error {
	if err := m.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return m.Validate()
}

// BeforeUpdate is a GORM hook that validates the movie before update.
func (m *Movie) BeforeUpdate(tx *gorm.DB) error {
	return m.Validate()
}
