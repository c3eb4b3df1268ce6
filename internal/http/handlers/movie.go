package handlers

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
)

// MovieHandler handles movie catalog endpoints.
type MovieHandler struct {
	movies repository.MovieRepository
}

// NewMovieHandler creates a new movie handler.
func NewMovieHandler(movies repository.MovieRepository) *MovieHandler {
	return &MovieHandler{movies: movies}
}

// Register registers the movie routes with the API.
func (h *MovieHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listMovies",
		Method:      "GET",
		Path:        "/api/v1/movies",
		Summary:     "List movies",
		Description: "Returns all main-feature movies; extras are listed per movie",
		Tags:        []string{"Movies"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getMovie",
		Method:      "GET",
		Path:        "/api/v1/movies/{id}",
		Summary:     "Get movie",
		Description: "Returns a movie with its attached extras",
		Tags:        []string{"Movies"},
	}, h.GetByID)
}

// ListMoviesInput is the input for listing movies.
type ListMoviesInput struct{}

// ListMoviesOutput is the output for listing movies.
type ListMoviesOutput struct {
	Body struct {
		Movies []MovieResponse `json:"movies"`
	}
}

// List returns all main-feature movies.
func (h *MovieHandler) List(ctx context.Context, _ *ListMoviesInput) (*ListMoviesOutput, error) {
	movies, err := h.movies.GetAll(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list movies", err)
	}

	resp := &ListMoviesOutput{}
	resp.Body.Movies = make([]MovieResponse, 0, len(movies))
	for _, m := range movies {
		resp.Body.Movies = append(resp.Body.Movies, MovieFromModel(m))
	}
	return resp, nil
}

// GetMovieInput is the input for getting a movie.
type GetMovieInput struct {
	ID string `path:"id" doc:"Movie ID (ULID)"`
}

// GetMovieOutput is the output for getting a movie.
type GetMovieOutput struct {
	Body MovieDetailResponse
}

// MovieDetailResponse is a movie plus its bonus content.
type MovieDetailResponse struct {
	MovieResponse
	Extras []MovieResponse `json:"extras"`
}

// GetByID returns a movie with its extras.
func (h *MovieHandler) GetByID(ctx context.Context, input *GetMovieInput) (*GetMovieOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	movie, err := h.movies.GetByID(ctx, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get movie", err)
	}
	if movie == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("movie %s not found", input.ID))
	}

	extras, err := h.movies.GetExtras(ctx, movie.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list extras", err)
	}

	detail := MovieDetailResponse{MovieResponse: MovieFromModel(movie)}
	detail.Extras = make([]MovieResponse, 0, len(extras))
	for _, e := range extras {
		detail.Extras = append(detail.Extras, MovieFromModel(e))
	}
	return &GetMovieOutput{Body: detail}, nil
}
