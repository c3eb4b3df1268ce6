// Package handlers provides the HTTP API handlers for lantern.
package handlers

import (
	"time"

	"github.com/henosis-us/lantern/internal/models"
)

// LibraryResponse is the API shape of a library.
type LibraryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

// LibraryFromModel converts a Library model to its API shape.
func LibraryFromModel(l *models.Library) LibraryResponse {
	return LibraryResponse{
		ID:        l.ID.String(),
		Name:      l.Name,
		Path:      l.Path,
		Type:      string(l.Type),
		CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// MovieResponse is the API shape of a movie.
type MovieResponse struct {
	ID              string  `json:"id"`
	LibraryID       string  `json:"library_id"`
	Title           string  `json:"title"`
	Overview        string  `json:"overview,omitempty"`
	PosterPath      string  `json:"poster_path,omitempty"`
	ReleaseDate     string  `json:"release_date,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	VoteAverage     float64 `json:"vote_average,omitempty"`
	Genres          string  `json:"genres,omitempty"`
	ParentID        string  `json:"parent_id,omitempty"`
	VideoCodec      string  `json:"video_codec,omitempty"`
	AudioCodec      string  `json:"audio_codec,omitempty"`
	DirectPlay      bool    `json:"direct_play"`
}

// MovieFromModel converts a Movie model to its API shape.
func MovieFromModel(m *models.Movie) MovieResponse {
	resp := MovieResponse{
		ID:              m.ID.String(),
		LibraryID:       m.LibraryID.String(),
		Title:           m.Title,
		Overview:        m.Overview,
		PosterPath:      m.PosterPath,
		ReleaseDate:     m.ReleaseDate,
		DurationSeconds: m.DurationSeconds,
		VoteAverage:     m.VoteAverage,
		Genres:          m.Genres,
		VideoCodec:      m.VideoCodec,
		AudioCodec:      m.AudioCodec,
		DirectPlay:      m.DirectPlay,
	}
	if m.ParentID != nil {
		resp.ParentID = m.ParentID.String()
	}
	return resp
}

// SeriesResponse is the API shape of a series.
type SeriesResponse struct {
	ID           string  `json:"id"`
	LibraryID    string  `json:"library_id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	Genres       string  `json:"genres,omitempty"`
}

// SeriesFromModel converts a Series model to its API shape.
func SeriesFromModel(s *models.Series) SeriesResponse {
	return SeriesResponse{
		ID:           s.ID.String(),
		LibraryID:    s.LibraryID.String(),
		Title:        s.Title,
		Overview:     s.Overview,
		PosterPath:   s.PosterPath,
		FirstAirDate: s.FirstAirDate,
		VoteAverage:  s.VoteAverage,
		Genres:       s.Genres,
	}
}

// EpisodeResponse is the API shape of an episode.
type EpisodeResponse struct {
	ID              string  `json:"id"`
	SeriesID        string  `json:"series_id"`
	Season          int     `json:"season"`
	Episode         int     `json:"episode"`
	Title           string  `json:"title,omitempty"`
	Overview        string  `json:"overview,omitempty"`
	AirDate         string  `json:"air_date,omitempty"`
	StillPath       string  `json:"still_path,omitempty"`
	ExtraType       string  `json:"extra_type,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	DirectPlay      bool    `json:"direct_play"`
}

// EpisodeFromModel converts an Episode model to its API shape.
func EpisodeFromModel(e *models.Episode) EpisodeResponse {
	return EpisodeResponse{
		ID:              e.ID.String(),
		SeriesID:        e.SeriesID.String(),
		Season:          e.Season,
		Episode:         e.Episode,
		Title:           e.Title,
		Overview:        e.Overview,
		AirDate:         e.AirDate,
		StillPath:       e.StillPath,
		ExtraType:       e.ExtraType,
		DurationSeconds: e.DurationSeconds,
		DirectPlay:      e.DirectPlay,
	}
}

// SubtitleResponse is the API shape of a subtitle.
type SubtitleResponse struct {
	ID       string `json:"id"`
	ItemType string `json:"item_type"`
	ItemID   string `json:"item_id"`
	Lang     string `json:"lang,omitempty"`
	Provider string `json:"provider,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// SubtitleFromModel converts a Subtitle model to its API shape.
func SubtitleFromModel(s *models.Subtitle) SubtitleResponse {
	return SubtitleResponse{
		ID:       s.ID.String(),
		ItemType: string(s.ItemType),
		ItemID:   s.ItemID.String(),
		Lang:     s.Lang,
		Provider: s.Provider,
		FileName: s.FileName,
	}
}

// WatchHistoryResponse is the API shape of a watch-history entry.
type WatchHistoryResponse struct {
	ItemType        string  `json:"item_type"`
	ItemID          string  `json:"item_id"`
	PositionSeconds float64 `json:"position_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	UpdatedAt       string  `json:"updated_at"`
}

// WatchHistoryFromModel converts a WatchHistory model to its API shape.
func WatchHistoryFromModel(w *models.WatchHistory) WatchHistoryResponse {
	return WatchHistoryResponse{
		ItemType:        string(w.ItemType),
		ItemID:          w.ItemID.String(),
		PositionSeconds: w.PositionSeconds,
		DurationSeconds: w.DurationSeconds,
		UpdatedAt:       w.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
