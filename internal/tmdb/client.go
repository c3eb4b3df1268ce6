// Package tmdb is a minimal client for The Movie Database API, used by the
// scanner to enrich library items with titles, artwork, and air dates.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/henosis-us/lantern/internal/httpclient"
)

// ErrNotConfigured is returned when no API key is set. Enrichment is
// optional; the scanner degrades to filename-derived metadata.
var ErrNotConfigured = fmt.Errorf("tmdb api key not configured")

// Client talks to the TMDB v3 API.
type Client struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// New creates a TMDB client. An empty apiKey yields a client whose calls
// all return ErrNotConfigured.
func New(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := httpclient.DefaultConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.Logger = logger
	return &Client{
		http:    httpclient.New(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Movie is a TMDB movie record (search result or details).
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	Genres      []Genre `json:"genres,omitempty"`
}

// Series is a TMDB TV record.
type Series struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []Genre `json:"genres,omitempty"`
}

// Episode is a TMDB episode record.
type Episode struct {
	Name      string `json:"name"`
	Overview  string `json:"overview"`
	StillPath string `json:"still_path"`
	AirDate   string `json:"air_date"`
}

// Genre is a TMDB genre tag.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type movieSearchResponse struct {
	Results []Movie `json:"results"`
}

type seriesSearchResponse struct {
	Results []Series `json:"results"`
}

// SearchMovie returns the best match for a title, optionally filtered by
// release year (0 = any). A clean "no results" returns (nil, nil).
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (*Movie, error) {
	params := url.Values{"query": {title}}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var resp movieSearchResponse
	if err := c.get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// SearchSeries returns the best match for a show title, or (nil, nil).
func (c *Client) SearchSeries(ctx context.Context, name string) (*Series, error) {
	var resp seriesSearchResponse
	if err := c.get(ctx, "/search/tv", url.Values{"query": {name}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// MovieDetails fetches the full movie record, including genres.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*Movie, error) {
	var movie Movie
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// SeriesDetails fetches the full TV record, including genres.
func (c *Client) SeriesDetails(ctx context.Context, id int64) (*Series, error) {
	var series Series
	if err := c.get(ctx, "/tv/"+strconv.FormatInt(id, 10), nil, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// EpisodeDetails fetches metadata for one episode of a show.
func (c *Client) EpisodeDetails(ctx context.Context, seriesID int64, season, episode int) (*Episode, error) {
	path := fmt.Sprintf("/tv/%d/season/%d/episode/%d", seriesID, season, episode)
	var ep Episode
	if err := c.get(ctx, path, nil, &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	resp, err := c.http.Get(ctx, c.baseURL+path+"?"+params.Encode())
	if err != nil {
		return fmt.Errorf("tmdb request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("tmdb %s: not found", path)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tmdb %s: decoding response: %w", path, err)
	}
	return nil
}

// GenreNames flattens genres into a comma-separated string for storage.
func GenreNames(genres []Genre) string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}
