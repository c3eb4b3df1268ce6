package handlers

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/henosis-us/lantern/internal/http/middleware"
	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
)

// HistoryHandler handles watch-progress endpoints. All operations are
// scoped to the authenticated user.
type HistoryHandler struct {
	history repository.WatchHistoryRepository
}

// NewHistoryHandler creates a new watch-history handler.
func NewHistoryHandler(history repository.WatchHistoryRepository) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// Register registers the watch-history routes with the API.
func (h *HistoryHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "saveWatchProgress",
		Method:      "PUT",
		Path:        "/api/v1/history/{itemType}/{id}",
		Summary:     "Save watch progress",
		Description: "Creates or updates the caller's playback position for an item",
		Tags:        []string{"History"},
	}, h.Save)

	huma.Register(api, huma.Operation{
		OperationID: "getWatchProgress",
		Method:      "GET",
		Path:        "/api/v1/history/{itemType}/{id}",
		Summary:     "Get watch progress",
		Tags:        []string{"History"},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "deleteWatchProgress",
		Method:      "DELETE",
		Path:        "/api/v1/history/{itemType}/{id}",
		Summary:     "Clear watch progress",
		Tags:        []string{"History"},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "getContinueWatching",
		Method:      "GET",
		Path:        "/api/v1/history/continue-watching",
		Summary:     "Continue watching",
		Description: "Returns the caller's partially watched items, most recent first",
		Tags:        []string{"History"},
	}, h.ContinueWatching)
}

// SaveProgressInput is the input for saving watch progress.
type SaveProgressInput struct {
	ItemType string `path:"itemType" enum:"movie,episode"`
	ID       string `path:"id" doc:"Item ID (ULID)"`
	Body     struct {
		PositionSeconds float64 `json:"position_seconds" minimum:"0"`
		DurationSeconds float64 `json:"duration_seconds" minimum:"0"`
	}
}

// SaveProgressOutput is the output for saving watch progress.
type SaveProgressOutput struct {
	Body WatchHistoryResponse
}

// Save creates or updates the caller's progress for an item.
func (h *HistoryHandler) Save(ctx context.Context, input *SaveProgressInput) (*SaveProgressOutput, error) {
	username, err := callerUsername(ctx)
	if err != nil {
		return nil, err
	}
	itemType, itemID, err := parseItemRef(input.ItemType, input.ID)
	if err != nil {
		return nil, err
	}

	entry := &models.WatchHistory{
		Username:        username,
		ItemType:        itemType,
		ItemID:          itemID,
		PositionSeconds: input.Body.PositionSeconds,
		DurationSeconds: input.Body.DurationSeconds,
	}
	if err := h.history.Save(ctx, entry); err != nil {
		return nil, huma.Error500InternalServerError("failed to save progress", err)
	}
	return &SaveProgressOutput{Body: WatchHistoryFromModel(entry)}, nil
}

// GetProgressInput is the input for reading watch progress.
type GetProgressInput struct {
	ItemType string `path:"itemType" enum:"movie,episode"`
	ID       string `path:"id" doc:"Item ID (ULID)"`
}

// GetProgressOutput is the output for reading watch progress.
type GetProgressOutput struct {
	Body WatchHistoryResponse
}

// Get returns the caller's progress for an item.
func (h *HistoryHandler) Get(ctx context.Context, input *GetProgressInput) (*GetProgressOutput, error) {
	username, err := callerUsername(ctx)
	if err != nil {
		return nil, err
	}
	itemType, itemID, err := parseItemRef(input.ItemType, input.ID)
	if err != nil {
		return nil, err
	}

	entry, err := h.history.Get(ctx, username, itemType, itemID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get progress", err)
	}
	if entry == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("no progress for %s %s", input.ItemType, input.ID))
	}
	return &GetProgressOutput{Body: WatchHistoryFromModel(entry)}, nil
}

// DeleteProgressInput is the input for clearing watch progress.
type DeleteProgressInput struct {
	ItemType string `path:"itemType" enum:"movie,episode"`
	ID       string `path:"id" doc:"Item ID (ULID)"`
}

// DeleteProgressOutput is the output for clearing watch progress.
type DeleteProgressOutput struct{}

// Delete removes the caller's progress for an item.
func (h *HistoryHandler) Delete(ctx context.Context, input *DeleteProgressInput) (*DeleteProgressOutput, error) {
	username, err := callerUsername(ctx)
	if err != nil {
		return nil, err
	}
	itemType, itemID, err := parseItemRef(input.ItemType, input.ID)
	if err != nil {
		return nil, err
	}

	if err := h.history.Delete(ctx, username, itemType, itemID); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete progress", err)
	}
	return &DeleteProgressOutput{}, nil
}

// ContinueWatchingInput is the input for the continue-watching list.
type ContinueWatchingInput struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"100"`
}

// ContinueWatchingOutput is the output for the continue-watching list.
type ContinueWatchingOutput struct {
	Body struct {
		Items []WatchHistoryResponse `json:"items"`
	}
}

// ContinueWatching returns the caller's partially watched items.
func (h *HistoryHandler) ContinueWatching(ctx context.Context, input *ContinueWatchingInput) (*ContinueWatchingOutput, error) {
	username, err := callerUsername(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := h.history.GetContinueWatching(ctx, username, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list continue watching", err)
	}

	resp := &ContinueWatchingOutput{}
	resp.Body.Items = make([]WatchHistoryResponse, 0, len(entries))
	for _, e := range entries {
		resp.Body.Items = append(resp.Body.Items, WatchHistoryFromModel(e))
	}
	return resp, nil
}

// callerUsername returns the authenticated username from the request
// context.
func callerUsername(ctx context.Context) (string, error) {
	user := middleware.GetUser(ctx)
	if user == nil || user.Username == "" {
		return "", huma.Error401Unauthorized("authentication required")
	}
	return user.Username, nil
}

// parseItemRef validates an item type and ULID pair from path params.
func parseItemRef(rawType, rawID string) (models.ItemType, models.ULID, error) {
	itemType, err := models.ParseItemType(rawType)
	if err != nil {
		return "", models.ULID{}, huma.Error400BadRequest("invalid item type", err)
	}
	id, err := models.ParseULID(rawID)
	if err != nil {
		return "", models.ULID{}, huma.Error400BadRequest("invalid ID format", err)
	}
	return itemType, id, nil
}
