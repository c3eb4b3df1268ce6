package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/henosis-us/lantern/internal/tmdb"
)

// MetadataHandler proxies TMDB lookups so clients never see the API key.
type MetadataHandler struct {
	tmdb *tmdb.Client
}

// NewMetadataHandler creates a new metadata handler.
func NewMetadataHandler(client *tmdb.Client) *MetadataHandler {
	return &MetadataHandler{tmdb: client}
}

// Register registers the metadata routes with the API.
func (h *MetadataHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "searchMovieMetadata",
		Method:      "GET",
		Path:        "/api/v1/metadata/movies",
		Summary:     "Search movie metadata",
		Tags:        []string{"Metadata"},
	}, h.SearchMovie)

	huma.Register(api, huma.Operation{
		OperationID: "searchSeriesMetadata",
		Method:      "GET",
		Path:        "/api/v1/metadata/series",
		Summary:     "Search series metadata",
		Tags:        []string{"Metadata"},
	}, h.SearchSeries)
}

// SearchMovieMetadataInput is the input for movie metadata search.
type SearchMovieMetadataInput struct {
	Query string `query:"query" minLength:"1" doc:"Title to search for"`
	Year  int    `query:"year" minimum:"0" doc:"Optional release year filter"`
}

// SearchMovieMetadataOutput is the output for movie metadata search.
type SearchMovieMetadataOutput struct {
	Body struct {
		Result *tmdb.Movie `json:"result"`
	}
}

// SearchMovie returns the best TMDB match for a movie title.
func (h *MetadataHandler) SearchMovie(ctx context.Context, input *SearchMovieMetadataInput) (*SearchMovieMetadataOutput, error) {
	match, err := h.tmdb.SearchMovie(ctx, input.Query, input.Year)
	if err != nil {
		return nil, metadataError(err)
	}
	resp := &SearchMovieMetadataOutput{}
	resp.Body.Result = match
	return resp, nil
}

// SearchSeriesMetadataInput is the input for series metadata search.
type SearchSeriesMetadataInput struct {
	Query string `query:"query" minLength:"1" doc:"Series name to search for"`
}

// SearchSeriesMetadataOutput is the output for series metadata search.
type SearchSeriesMetadataOutput struct {
	Body struct {
		Result *tmdb.Series `json:"result"`
	}
}

// SearchSeries returns the best TMDB match for a series name.
func (h *MetadataHandler) SearchSeries(ctx context.Context, input *SearchSeriesMetadataInput) (*SearchSeriesMetadataOutput, error) {
	match, err := h.tmdb.SearchSeries(ctx, input.Query)
	if err != nil {
		return nil, metadataError(err)
	}
	resp := &SearchSeriesMetadataOutput{}
	resp.Body.Result = match
	return resp, nil
}

func metadataError(err error) error {
	if errors.Is(err, tmdb.ErrNotConfigured) {
		return huma.Error503ServiceUnavailable("metadata lookups are not configured")
	}
	return huma.Error502BadGateway("metadata lookup failed", err)
}
