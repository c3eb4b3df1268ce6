package models

import (
	"gorm.io/gorm"
)

// Series represents a TV show grouping episodes.
type Series struct {
	BaseModel

	// LibraryID is the foreign key to the owning Library.
	LibraryID ULID `gorm:"type:varchar(26);index" json:"library_id"`

	// Title is the display title; unique so scans can merge by name.
	Title string `gorm:"not null;size:512;uniqueIndex" json:"title"`

	// TMDBID is the TMDB identifier if metadata has been matched.
	TMDBID int64 `gorm:"default:0" json:"tmdb_id,omitempty"`

	// Overview is the TMDB synopsis.
	Overview string `gorm:"type:text" json:"overview,omitempty"`

	// PosterPath is the TMDB poster image path.
	PosterPath string `gorm:"size:512" json:"poster_path,omitempty"`

	// FirstAirDate is the TMDB first air date (YYYY-MM-DD).
	FirstAirDate string `gorm:"size:20" json:"first_air_date,omitempty"`

	// VoteAverage is the TMDB rating.
	VoteAverage float64 `gorm:"default:0" json:"vote_average,omitempty"`

	// Genres is a comma-separated genre list from TMDB.
	Genres string `gorm:"size:512" json:"genres,omitempty"`

	// Episodes is the relationship to the episodes of this series.
	Episodes []Episode `gorm:"foreignKey:SeriesID" json:"episodes,omitempty"`
}

// TableName returns the table name for Series.
func (Series) TableName() string {
	return "series"
}

// Validate performs basic validation on the series.
func (s *Series) Validate() error {
	if s.Title == "" {
		return ErrTitleRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the series and generates its ULID.
func (s *Series) BeforeCreate(tx *gorm.DB) error {
	if err := s.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return s.Validate()
}

// BeforeUpdate is a GORM hook that validates the series before update.
func (s *Series) BeforeUpdate(tx *gorm.DB) error {
	return s.Validate()
}
