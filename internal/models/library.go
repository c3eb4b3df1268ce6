package models

import (
	"gorm.io/gorm"
)

// LibraryType identifies what kind of media a library contains.
type LibraryType string

const (
	LibraryTypeMovie LibraryType = "movie"
	LibraryTypeTV    LibraryType = "tv"
)

// Library represents a scanned media directory.
type Library struct {
	BaseModel

	// Name is the display name of the library.
	Name string `gorm:"not null;size:255;uniqueIndex" json:"name"`

	// Path is the filesystem root that gets scanned.
	Path string `gorm:"not null;size:4096" json:"path"`

	// Type determines how files under Path are catalogued.
	Type LibraryType `gorm:"not null;size:20" json:"type"`
}

// TableName returns the table name for Library.
func (Library) TableName() string {
	return "libraries"
}

// Validate performs basic validation on the library.
func (l *Library) Validate() error {
	if l.Name == "" {
		return ErrNameRequired
	}
	if l.Path == "" {
		return ErrPathRequired
	}
	if l.Type != LibraryTypeMovie && l.Type != LibraryTypeTV {
		return ErrInvalidLibraryType
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the library and generates its ULID.
func (l *Library) BeforeCreate(tx *gorm.DB) error {
	if err := l.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return l.Validate()
}

// BeforeUpdate is a GORM hook that validates the library before update.
func (l *Library) BeforeUpdate(tx *gorm.DB) error {
	return l.Validate()
}
