package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrTitleRequired indicates a required title field is empty.
	ErrTitleRequired = errors.New("title is required")

	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrFilePathRequired indicates a required file path field is empty.
	ErrFilePathRequired = errors.New("file_path is required")

	// ErrPathRequired indicates a required path field is empty.
	ErrPathRequired = errors.New("path is required")

	// ErrInvalidLibraryType indicates an invalid library type.
	ErrInvalidLibraryType = errors.New("invalid library type: must be 'movie' or 'tv'")

	// ErrInvalidItemType indicates an invalid media item type.
	ErrInvalidItemType = errors.New("invalid item type: must be 'movie' or 'episode'")

	// ErrSeriesIDRequired indicates a required series ID field is zero.
	ErrSeriesIDRequired = errors.New("series_id is required")

	// ErrItemIDRequired indicates a required item ID field is zero.
	ErrItemIDRequired = errors.New("item_id is required")

	// ErrUsernameRequired indicates a required username field is empty.
	ErrUsernameRequired = errors.New("username is required")

	// ErrKeyRequired indicates a required key field is empty.
	ErrKeyRequired = errors.New("key is required")

	// ErrInvalidSeasonNumber indicates a negative season number.
	ErrInvalidSeasonNumber = errors.New("season must not be negative")

	// ErrInvalidEpisodeNumber indicates a negative episode number.
	ErrInvalidEpisodeNumber = errors.New("episode must not be negative")

	// ErrInvalidPosition indicates a negative playback position.
	ErrInvalidPosition = errors.New("position_seconds must not be negative")
)
