package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2"

	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
	"github.com/henosis-us/lantern/internal/scanner"
)

// LibraryHandler handles library CRUD and scan triggers.
type LibraryHandler struct {
	libraries repository.LibraryRepository
	scanner   *scanner.Scanner
	logger    *slog.Logger
}

// NewLibraryHandler creates a new library handler.
func NewLibraryHandler(libraries repository.LibraryRepository, sc *scanner.Scanner, logger *slog.Logger) *LibraryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryHandler{
		libraries: libraries,
		scanner:   sc,
		logger:    logger,
	}
}

// Register registers the library routes with the API.
func (h *LibraryHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listLibraries",
		Method:      "GET",
		Path:        "/api/v1/libraries",
		Summary:     "List libraries",
		Tags:        []string{"Libraries"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getLibrary",
		Method:      "GET",
		Path:        "/api/v1/libraries/{id}",
		Summary:     "Get library",
		Tags:        []string{"Libraries"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "createLibrary",
		Method:      "POST",
		Path:        "/api/v1/libraries",
		Summary:     "Create library",
		Tags:        []string{"Libraries"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "updateLibrary",
		Method:      "PUT",
		Path:        "/api/v1/libraries/{id}",
		Summary:     "Update library",
		Tags:        []string{"Libraries"},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID: "deleteLibrary",
		Method:      "DELETE",
		Path:        "/api/v1/libraries/{id}",
		Summary:     "Delete library",
		Tags:        []string{"Libraries"},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "scanLibrary",
		Method:      "POST",
		Path:        "/api/v1/libraries/{id}/scan",
		Summary:     "Trigger library scan",
		Description: "Starts a scan of the library in the background",
		Tags:        []string{"Libraries"},
	}, h.Scan)
}

// ListLibrariesInput is the input for listing libraries.
type ListLibrariesInput struct{}

// ListLibrariesOutput is the output for listing libraries.
type ListLibrariesOutput struct {
	Body struct {
		Libraries []LibraryResponse `json:"libraries"`
	}
}

// List returns all libraries.
func (h *LibraryHandler) List(ctx context.Context, _ *ListLibrariesInput) (*ListLibrariesOutput, error) {
	libs, err := h.libraries.GetAll(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list libraries", err)
	}

	resp := &ListLibrariesOutput{}
	resp.Body.Libraries = make([]LibraryResponse, 0, len(libs))
	for _, l := range libs {
		resp.Body.Libraries = append(resp.Body.Libraries, LibraryFromModel(l))
	}
	return resp, nil
}

// GetLibraryInput is the input for getting a library.
type GetLibraryInput struct {
	ID string `path:"id" doc:"Library ID (ULID)"`
}

// GetLibraryOutput is the output for getting a library.
type GetLibraryOutput struct {
	Body LibraryResponse
}

// GetByID returns a library by ID.
func (h *LibraryHandler) GetByID(ctx context.Context, input *GetLibraryInput) (*GetLibraryOutput, error) {
	lib, err := h.fetch(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GetLibraryOutput{Body: LibraryFromModel(lib)}, nil
}

// CreateLibraryInput is the input for creating a library.
type CreateLibraryInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Display name"`
		Path string `json:"path" minLength:"1" doc:"Filesystem root to scan"`
		Type string `json:"type" enum:"movie,tv" doc:"Library type"`
	}
}

// CreateLibraryOutput is the output for creating a library.
type CreateLibraryOutput struct {
	Body LibraryResponse
}

// Create creates a new library.
func (h *LibraryHandler) Create(ctx context.Context, input *CreateLibraryInput) (*CreateLibraryOutput, error) {
	if _, err := os.Stat(input.Body.Path); err != nil {
		return nil, huma.Error400BadRequest(fmt.Sprintf("path %s is not accessible", input.Body.Path), err)
	}

	lib := &models.Library{
		Name: input.Body.Name,
		Path: input.Body.Path,
		Type: models.LibraryType(input.Body.Type),
	}
	if err := h.libraries.Create(ctx, lib); err != nil {
		return nil, huma.Error500InternalServerError("failed to create library", err)
	}
	return &CreateLibraryOutput{Body: LibraryFromModel(lib)}, nil
}

// UpdateLibraryInput is the input for updating a library.
type UpdateLibraryInput struct {
	ID   string `path:"id" doc:"Library ID (ULID)"`
	Body struct {
		Name string `json:"name" minLength:"1"`
		Path string `json:"path" minLength:"1"`
		Type string `json:"type" enum:"movie,tv"`
	}
}

// UpdateLibraryOutput is the output for updating a library.
type UpdateLibraryOutput struct {
	Body LibraryResponse
}

// Update updates an existing library.
func (h *LibraryHandler) Update(ctx context.Context, input *UpdateLibraryInput) (*UpdateLibraryOutput, error) {
	lib, err := h.fetch(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	lib.Name = input.Body.Name
	lib.Path = input.Body.Path
	lib.Type = models.LibraryType(input.Body.Type)
	if err := h.libraries.Update(ctx, lib); err != nil {
		return nil, huma.Error500InternalServerError("failed to update library", err)
	}
	return &UpdateLibraryOutput{Body: LibraryFromModel(lib)}, nil
}

// DeleteLibraryInput is the input for deleting a library.
type DeleteLibraryInput struct {
	ID string `path:"id" doc:"Library ID (ULID)"`
}

// DeleteLibraryOutput is the output for deleting a library.
type DeleteLibraryOutput struct{}

// Delete deletes a library.
func (h *LibraryHandler) Delete(ctx context.Context, input *DeleteLibraryInput) (*DeleteLibraryOutput, error) {
	lib, err := h.fetch(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := h.libraries.Delete(ctx, lib.ID); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete library", err)
	}
	return &DeleteLibraryOutput{}, nil
}

// ScanLibraryInput is the input for triggering a scan.
type ScanLibraryInput struct {
	ID string `path:"id" doc:"Library ID (ULID)"`
}

// ScanLibraryOutput is the output for triggering a scan.
type ScanLibraryOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Scan starts a background scan of one library.
func (h *LibraryHandler) Scan(ctx context.Context, input *ScanLibraryInput) (*ScanLibraryOutput, error) {
	lib, err := h.fetch(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	go func() {
		if _, err := h.scanner.ScanLibrary(context.Background(), lib); err != nil {
			h.logger.Error("triggered scan failed", "library", lib.Name, "error", err)
		}
	}()

	resp := &ScanLibraryOutput{}
	resp.Body.Status = "scan started"
	return resp, nil
}

func (h *LibraryHandler) fetch(ctx context.Context, rawID string) (*models.Library, error) {
	id, err := models.ParseULID(rawID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}
	lib, err := h.libraries.GetByID(ctx, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get library", err)
	}
	if lib == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("library %s not found", rawID))
	}
	return lib, nil
}
