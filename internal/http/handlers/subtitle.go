package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
)

// SubtitleHandler handles subtitle listing, per-user selection and file
// delivery.
type SubtitleHandler struct {
	subtitles repository.SubtitleRepository
}

// NewSubtitleHandler creates a new subtitle handler.
func NewSubtitleHandler(subtitles repository.SubtitleRepository) *SubtitleHandler {
	return &SubtitleHandler{subtitles: subtitles}
}

// Register registers the subtitle routes with the API.
func (h *SubtitleHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listSubtitles",
		Method:      "GET",
		Path:        "/api/v1/subtitles/{itemType}/{id}",
		Summary:     "List subtitles",
		Description: "Returns cached subtitles for a movie or episode",
		Tags:        []string{"Subtitles"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getSubtitlePreference",
		Method:      "GET",
		Path:        "/api/v1/subtitles/{itemType}/{id}/preference",
		Summary:     "Get subtitle preference",
		Tags:        []string{"Subtitles"},
	}, h.GetPreference)

	huma.Register(api, huma.Operation{
		OperationID: "setSubtitlePreference",
		Method:      "PUT",
		Path:        "/api/v1/subtitles/{itemType}/{id}/preference",
		Summary:     "Set subtitle preference",
		Description: "Selects a subtitle for the caller; omit subtitle_id to turn subtitles off",
		Tags:        []string{"Subtitles"},
	}, h.SetPreference)
}

// RegisterRoutes registers the raw subtitle file route. Served outside
// the JSON API because players fetch it as a plain file.
func (h *SubtitleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/subtitles/{id}/file", h.ServeFile)
}

// ListSubtitlesInput is the input for listing subtitles.
type ListSubtitlesInput struct {
	ItemType string `path:"itemType" enum:"movie,episode"`
	ID       string `path:"id" doc:"Item ID (ULID)"`
}

// ListSubtitlesOutput is the output for listing subtitles.
type ListSubtitlesOutput struct {
	Body struct {
		Subtitles []SubtitleResponse `json:"subtitles"`
	}
}

// List returns cached subtitles for an item.
func (h *SubtitleHandler) List(ctx context.Context, input *ListSubtitlesInput) (*ListSubtitlesOutput, error) {
	itemType, itemID, err := parseItemRef(input.ItemType, input.ID)
	if err != nil {
		return nil, err
	}

	subs, err := h.subtitles.GetByItem(ctx, itemType, itemID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list subtitles", err)
	}

	resp := &ListSubtitlesOutput{}
	resp.Body.Subtitles = make([]SubtitleResponse, 0, len(subs))
	for _, s := range subs {
		resp.Body.Subtitles = append(resp.Body.Subtitles, SubtitleFromModel(s))
	}
	return resp, nil
}

// GetPreferenceInput is the input for reading a subtitle preference.
type GetPreferenceInput struct {
	ItemType string `path:"itemType" enum:"movie,episode"`
	ID       string `path:"id" doc:"Item ID (ULID)"`
}

// GetPreferenceOutput is the output for reading a subtitle preference.
type GetPreferenceOutput struct {
	Body PreferenceResponse
}

// PreferenceResponse is the API shape of a subtitle preference.
type PreferenceResponse struct {
	SubtitleID string `json:"subtitle_id,omitempty"`
}

// GetPreference returns the caller's selected subtitle for an item.
func (h *SubtitleHandler) GetPreference(ctx context.Context, input *GetPreferenceInput) (*GetPreferenceOutput, error) {
	username, err := callerUsername(ctx)
	if err != nil {
		return nil, err
	}
	itemType, itemID, err := parseItemRef(input.ItemType, input.ID)
	if err != nil {
		return nil, err
	}

	pref, err := h.subtitles.GetPreference(ctx, username, itemType, itemID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get preference", err)
	}
	if pref == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("no preference for %s %s", input.ItemType, input.ID))
	}

	resp := &GetPreferenceOutput{}
	if pref.SubtitleID != nil {
		resp.Body.SubtitleID = pref.SubtitleID.String()
	}
	return resp, nil
}

// SetPreferenceInput is the input for setting a subtitle preference.
type SetPreferenceInput struct {
	ItemType string `path:"itemType" enum:"movie,episode"`
	ID       string `path:"id" doc:"Item ID (ULID)"`
	Body     struct {
		SubtitleID string `json:"subtitle_id,omitempty" doc:"Subtitle ULID; empty turns subtitles off"`
	}
}

// SetPreferenceOutput is the output for setting a subtitle preference.
type SetPreferenceOutput struct {
	Body PreferenceResponse
}

// SetPreference stores the caller's subtitle selection for an item.
func (h *SubtitleHandler) SetPreference(ctx context.Context, input *SetPreferenceInput) (*SetPreferenceOutput, error) {
	username, err := callerUsername(ctx)
	if err != nil {
		return nil, err
	}
	itemType, itemID, err := parseItemRef(input.ItemType, input.ID)
	if err != nil {
		return nil, err
	}

	pref := &models.SubtitlePreference{
		Username: username,
		ItemType: itemType,
		ItemID:   itemID,
	}
	if input.Body.SubtitleID != "" {
		subID, err := models.ParseULID(input.Body.SubtitleID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid subtitle ID", err)
		}
		sub, err := h.subtitles.GetByID(ctx, subID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get subtitle", err)
		}
		if sub == nil {
			return nil, huma.Error404NotFound(fmt.Sprintf("subtitle %s not found", input.Body.SubtitleID))
		}
		pref.SubtitleID = &sub.ID
	}

	if err := h.subtitles.SetPreference(ctx, pref); err != nil {
		return nil, huma.Error500InternalServerError("failed to set preference", err)
	}
	return &SetPreferenceOutput{Body: PreferenceResponse{SubtitleID: input.Body.SubtitleID}}, nil
}

// ServeFile streams the cached subtitle file to the player.
func (h *SubtitleHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseULID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid subtitle ID", http.StatusBadRequest)
		return
	}

	sub, err := h.subtitles.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to get subtitle", http.StatusInternalServerError)
		return
	}
	if sub == nil || sub.FilePath == "" {
		http.Error(w, "subtitle not found", http.StatusNotFound)
		return
	}
	if _, err := os.Stat(sub.FilePath); err != nil {
		http.Error(w, "subtitle file missing", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	http.ServeFile(w, r, sub.FilePath)
}
