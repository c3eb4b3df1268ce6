package handlers

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
)

// SeriesHandler handles TV catalog endpoints.
type SeriesHandler struct {
	series   repository.SeriesRepository
	episodes repository.EpisodeRepository
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(series repository.SeriesRepository, episodes repository.EpisodeRepository) *SeriesHandler {
	return &SeriesHandler{series: series, episodes: episodes}
}

// Register registers the series routes with the API.
func (h *SeriesHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listSeries",
		Method:      "GET",
		Path:        "/api/v1/series",
		Summary:     "List series",
		Tags:        []string{"TV"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getSeries",
		Method:      "GET",
		Path:        "/api/v1/series/{id}",
		Summary:     "Get series",
		Tags:        []string{"TV"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "listEpisodes",
		Method:      "GET",
		Path:        "/api/v1/series/{id}/episodes",
		Summary:     "List episodes",
		Description: "Returns a series' episodes ordered by season and episode",
		Tags:        []string{"TV"},
	}, h.ListEpisodes)
}

// ListSeriesInput is the input for listing series.
type ListSeriesInput struct{}

// ListSeriesOutput is the output for listing series.
type ListSeriesOutput struct {
	Body struct {
		Series []SeriesResponse `json:"series"`
	}
}

// List returns all series.
func (h *SeriesHandler) List(ctx context.Context, _ *ListSeriesInput) (*ListSeriesOutput, error) {
	series, err := h.series.GetAll(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list series", err)
	}

	resp := &ListSeriesOutput{}
	resp.Body.Series = make([]SeriesResponse, 0, len(series))
	for _, s := range series {
		resp.Body.Series = append(resp.Body.Series, SeriesFromModel(s))
	}
	return resp, nil
}

// GetSeriesInput is the input for getting a series.
type GetSeriesInput struct {
	ID string `path:"id" doc:"Series ID (ULID)"`
}

// GetSeriesOutput is the output for getting a series.
type GetSeriesOutput struct {
	Body SeriesResponse
}

// GetByID returns a series by ID.
func (h *SeriesHandler) GetByID(ctx context.Context, input *GetSeriesInput) (*GetSeriesOutput, error) {
	series, err := h.fetch(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GetSeriesOutput{Body: SeriesFromModel(series)}, nil
}

// ListEpisodesInput is the input for listing episodes.
type ListEpisodesInput struct {
	ID string `path:"id" doc:"Series ID (ULID)"`
}

// ListEpisodesOutput is the output for listing episodes.
type ListEpisodesOutput struct {
	Body struct {
		Episodes []EpisodeResponse `json:"episodes"`
	}
}

// ListEpisodes returns a series' episodes.
func (h *SeriesHandler) ListEpisodes(ctx context.Context, input *ListEpisodesInput) (*ListEpisodesOutput, error) {
	series, err := h.fetch(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	episodes, err := h.episodes.GetBySeriesID(ctx, series.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list episodes", err)
	}

	resp := &ListEpisodesOutput{}
	resp.Body.Episodes = make([]EpisodeResponse, 0, len(episodes))
	for _, e := range episodes {
		resp.Body.Episodes = append(resp.Body.Episodes, EpisodeFromModel(e))
	}
	return resp, nil
}

func (h *SeriesHandler) fetch(ctx context.Context, rawID string) (*models.Series, error) {
	id, err := models.ParseULID(rawID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}
	series, err := h.series.GetByID(ctx, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get series", err)
	}
	if series == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("series %s not found", rawID))
	}
	return series, nil
}
