package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
	"github.com/henosis-us/lantern/internal/stream"
)

// StreamHandler drives playback: the start/stop control surface lives on
// the JSON API, while manifests, segments and direct-play bytes are raw
// chi routes that video elements can fetch with a token query parameter.
type StreamHandler struct {
	streams   *stream.Service
	movies    repository.MovieRepository
	episodes  repository.EpisodeRepository
	subtitles repository.SubtitleRepository
	logger    *slog.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(
	streams *stream.Service,
	movies repository.MovieRepository,
	episodes repository.EpisodeRepository,
	subtitles repository.SubtitleRepository,
	logger *slog.Logger,
) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		streams:   streams,
		movies:    movies,
		episodes:  episodes,
		subtitles: subtitles,
		logger:    logger,
	}
}

// Register registers the stream control routes with the API.
func (h *StreamHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "startStream",
		Method:      "POST",
		Path:        "/api/v1/stream/{itemType}/{id}/start",
		Summary:     "Start playback",
		Description: "Classifies the item and either returns a direct-play URL or starts a transcode session",
		Tags:        []string{"Streaming"},
	}, h.Start)

	huma.Register(api, huma.Operation{
		OperationID: "stopStream",
		Method:      "DELETE",
		Path:        "/api/v1/stream/{itemType}/{id}",
		Summary:     "Stop playback",
		Description: "Tears down the item's transcode session if one is running",
		Tags:        []string{"Streaming"},
	}, h.Stop)
}

// RegisterRoutes registers the raw playback routes.
func (h *StreamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/hls/{sessionID}/index.m3u8", h.ServeManifest)
	r.Get("/stream/hls/{sessionID}/{segment}", h.ServeSegment)
	r.Get("/stream/direct/{itemType}/{id}", h.ServeDirect)
}

// StartStreamInput is the input for starting playback.
type StartStreamInput struct {
	ItemType string `path:"itemType" enum:"movie,episode"`
	ID       string `path:"id" doc:"Item ID (ULID)"`
	Body     struct {
		SeekSeconds    float64 `json:"seek_seconds,omitempty" minimum:"0" doc:"Start position"`
		Quality        string  `json:"quality,omitempty" doc:"Transcode quality: low, medium (default) or high"`
		Resolution     string  `json:"resolution,omitempty" doc:"Output resolution: source (default), 1080p, 720p, 480p or 360p"`
		SubtitleID     string  `json:"subtitle_id,omitempty" doc:"Subtitle to show; must belong to the item"`
		Burn           bool    `json:"burn,omitempty" doc:"Burn the subtitle into the video; forces a transcode"`
		ForceTranscode bool    `json:"force_transcode,omitempty"`
		DisableDirect  bool    `json:"disable_direct,omitempty" doc:"Skip direct-play classification"`
	}
}

// StartStreamOutput is the output for starting playback.
type StartStreamOutput struct {
	Body StartStreamResponse
}

// StartStreamResponse tells the player how to fetch the media.
type StartStreamResponse struct {
	Mode            string  `json:"mode" enum:"direct,hls"`
	Reason          string  `json:"reason,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	// URL is the playback entry point: the file itself for direct mode,
	// the manifest for HLS. The caller appends its token query parameter.
	URL       string `json:"url"`
	SessionID string `json:"session_id,omitempty"`
	// SoftSubURL points at the subtitle file when one was selected
	// without burn-in; the player overlays it client-side.
	SoftSubURL string `json:"soft_sub_url,omitempty"`
}

// Start classifies the item and starts playback.
func (h *StreamHandler) Start(ctx context.Context, input *StartStreamInput) (*StartStreamOutput, error) {
	asset, err := h.resolveAsset(ctx, input.ItemType, input.ID)
	if err != nil {
		return nil, err
	}

	subtitleBurn := ""
	softSubURL := ""
	if input.Body.SubtitleID != "" {
		sub, err := h.resolveSubtitle(ctx, input.Body.SubtitleID, asset)
		if err != nil {
			return nil, err
		}
		if input.Body.Burn {
			subtitleBurn = sub.FilePath
		} else {
			softSubURL = fmt.Sprintf("/subtitles/%s/file", sub.ID)
		}
	}

	result, err := h.streams.Start(ctx, stream.StartRequest{
		Asset:          asset,
		SeekSeconds:    input.Body.SeekSeconds,
		Quality:        input.Body.Quality,
		Resolution:     input.Body.Resolution,
		SubtitleBurn:   subtitleBurn,
		ForceTranscode: input.Body.ForceTranscode,
		PreferDirect:   !input.Body.DisableDirect,
	})
	if err != nil {
		switch {
		case errors.Is(err, stream.ErrInvalidRequest):
			return nil, huma.Error400BadRequest("invalid stream request", err)
		case errors.Is(err, stream.ErrTooManySessions):
			return nil, huma.Error503ServiceUnavailable("transcoder is at capacity", err)
		case errors.Is(err, stream.ErrReadinessTimeout):
			return nil, huma.Error504GatewayTimeout("transcoder did not produce the initial buffer in time", err)
		default:
			return nil, huma.Error500InternalServerError("failed to start stream", err)
		}
	}

	resp := StartStreamResponse{
		Mode:            string(result.Mode),
		Reason:          result.Reason,
		DurationSeconds: result.DurationSeconds,
		SoftSubURL:      softSubURL,
	}
	switch result.Mode {
	case stream.ModeDirect:
		resp.URL = fmt.Sprintf("/stream/direct/%s/%s", input.ItemType, input.ID)
	case stream.ModeHLS:
		resp.SessionID = result.Session.ID
		resp.URL = fmt.Sprintf("/stream/hls/%s/index.m3u8", result.Session.ID)
	}
	return &StartStreamOutput{Body: resp}, nil
}

// StopStreamInput is the input for stopping playback.
type StopStreamInput struct {
	ItemType string `path:"itemType" enum:"movie,episode"`
	ID       string `path:"id" doc:"Item ID (ULID)"`
}

// StopStreamOutput is the output for stopping playback.
type StopStreamOutput struct{}

// Stop tears down the item's transcode session.
func (h *StreamHandler) Stop(ctx context.Context, input *StopStreamInput) (*StopStreamOutput, error) {
	asset, err := h.resolveAsset(ctx, input.ItemType, input.ID)
	if err != nil {
		return nil, err
	}
	h.streams.Stop(asset.Key())
	return &StopStreamOutput{}, nil
}

// ServeManifest renders the session's VOD playlist. The caller's token is
// threaded into segment URIs so video elements stay authenticated.
func (h *StreamHandler) ServeManifest(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	token := r.URL.Query().Get("token")

	manifest, err := h.streams.Manifest(sessionID, token)
	if err != nil {
		if errors.Is(err, stream.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to build manifest", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(manifest))
}

// ServeSegment holds the request at the readiness gate, then serves the
// transport segment. Timeouts map to 404 so the player retries.
func (h *StreamHandler) ServeSegment(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	segment := chi.URLParam(r, "segment")

	path, err := h.streams.SegmentPath(r.Context(), sessionID, segment)
	if err != nil {
		switch {
		case errors.Is(err, stream.ErrInvalidRequest):
			http.Error(w, "bad segment name", http.StatusBadRequest)
		case errors.Is(err, stream.ErrSessionNotFound):
			http.Error(w, "session not found", http.StatusNotFound)
		case errors.Is(err, stream.ErrReadinessTimeout):
			http.Error(w, "segment not ready", http.StatusNotFound)
		default:
			http.Error(w, "failed to resolve segment", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "video/mp2t")
	w.Header().Set("Cache-Control", "no-store")
	stream.ServeFileRange(w, r, path)
}

// ServeDirect serves the original file with range support for seeking.
func (h *StreamHandler) ServeDirect(w http.ResponseWriter, r *http.Request) {
	asset, err := h.lookupAsset(r.Context(), chi.URLParam(r, "itemType"), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	stream.ServeFileRange(w, r, asset.FilePath)
}

// resolveAsset loads an item for the JSON API, mapping failures to huma
// errors.
func (h *StreamHandler) resolveAsset(ctx context.Context, rawType, rawID string) (*stream.Asset, error) {
	asset, err := h.lookupAsset(ctx, rawType, rawID)
	if err != nil {
		if errors.Is(err, errAssetNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("%s %s not found", rawType, rawID))
		}
		return nil, huma.Error400BadRequest("invalid item reference", err)
	}
	return asset, nil
}

var errAssetNotFound = errors.New("asset not found")

// lookupAsset resolves an item type and ID to a playable asset.
func (h *StreamHandler) lookupAsset(ctx context.Context, rawType, rawID string) (*stream.Asset, error) {
	itemType, err := models.ParseItemType(rawType)
	if err != nil {
		return nil, err
	}
	id, err := models.ParseULID(rawID)
	if err != nil {
		return nil, err
	}

	switch itemType {
	case models.ItemTypeMovie:
		movie, err := h.movies.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if movie == nil {
			return nil, errAssetNotFound
		}
		return &stream.Asset{
			ID:              movie.ID,
			Type:            models.ItemTypeMovie,
			FilePath:        movie.FilePath,
			DurationSeconds: movie.DurationSeconds,
			VideoCodec:      movie.VideoCodec,
			AudioCodec:      movie.AudioCodec,
			AudioChannels:   movie.AudioChannels,
			DirectPlay:      movie.DirectPlay,
		}, nil
	default:
		episode, err := h.episodes.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if episode == nil {
			return nil, errAssetNotFound
		}
		return &stream.Asset{
			ID:              episode.ID,
			Type:            models.ItemTypeEpisode,
			FilePath:        episode.FilePath,
			DurationSeconds: episode.DurationSeconds,
			VideoCodec:      episode.VideoCodec,
			AudioCodec:      episode.AudioCodec,
			AudioChannels:   episode.AudioChannels,
			DirectPlay:      episode.DirectPlay,
		}, nil
	}
}

// resolveSubtitle loads a subtitle and verifies it belongs to the asset
// being played; a subtitle registered against another item is rejected.
func (h *StreamHandler) resolveSubtitle(ctx context.Context, rawID string, asset *stream.Asset) (*models.Subtitle, error) {
	id, err := models.ParseULID(rawID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid subtitle ID", err)
	}
	sub, err := h.subtitles.GetByID(ctx, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get subtitle", err)
	}
	if sub == nil || sub.FilePath == "" {
		return nil, huma.Error404NotFound(fmt.Sprintf("subtitle %s not found", rawID))
	}
	if sub.ItemType != asset.Type || sub.ItemID != asset.ID {
		return nil, huma.Error404NotFound(fmt.Sprintf("subtitle %s not found for this item", rawID))
	}
	return sub, nil
}
