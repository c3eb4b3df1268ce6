package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/henosis-us/lantern/internal/http/middleware"
	"github.com/henosis-us/lantern/internal/identity"
)

// IdentityHandler handles claim state and share management. Status and
// claim are reachable without a token so a fresh server can be set up;
// share management requires the owner.
type IdentityHandler struct {
	identity *identity.Service
}

// NewIdentityHandler creates a new identity handler.
func NewIdentityHandler(svc *identity.Service) *IdentityHandler {
	return &IdentityHandler{identity: svc}
}

// Register registers the identity routes with the API.
func (h *IdentityHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getIdentityStatus",
		Method:      "GET",
		Path:        "/api/v1/identity/status",
		Summary:     "Server identity status",
		Tags:        []string{"Identity"},
	}, h.Status)

	huma.Register(api, huma.Operation{
		OperationID: "claimServer",
		Method:      "POST",
		Path:        "/api/v1/identity/claim",
		Summary:     "Claim server",
		Description: "Pairs this server with an owner account",
		Tags:        []string{"Identity"},
	}, h.Claim)

	huma.Register(api, huma.Operation{
		OperationID: "listShares",
		Method:      "GET",
		Path:        "/api/v1/identity/shares",
		Summary:     "List shares",
		Tags:        []string{"Identity"},
	}, h.ListShares)

	huma.Register(api, huma.Operation{
		OperationID: "addShare",
		Method:      "POST",
		Path:        "/api/v1/identity/shares",
		Summary:     "Share server with a user",
		Tags:        []string{"Identity"},
	}, h.AddShare)

	huma.Register(api, huma.Operation{
		OperationID: "removeShare",
		Method:      "DELETE",
		Path:        "/api/v1/identity/shares/{username}",
		Summary:     "Revoke a user's access",
		Tags:        []string{"Identity"},
	}, h.RemoveShare)
}

// IdentityStatusInput is the input for the status endpoint.
type IdentityStatusInput struct{}

// IdentityStatusOutput is the output for the status endpoint.
type IdentityStatusOutput struct {
	Body struct {
		Claimed        bool   `json:"claimed"`
		ServerUniqueID string `json:"server_unique_id"`
		ServerName     string `json:"server_name,omitempty"`
	}
}

// Status reports claim state and the server's stable identifier.
func (h *IdentityHandler) Status(ctx context.Context, _ *IdentityStatusInput) (*IdentityStatusOutput, error) {
	claimed, err := h.identity.Claimed(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read claim state", err)
	}
	serverID, err := h.identity.ServerUniqueID(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read server id", err)
	}
	name, err := h.identity.ServerName(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read server name", err)
	}

	resp := &IdentityStatusOutput{}
	resp.Body.Claimed = claimed
	resp.Body.ServerUniqueID = serverID
	resp.Body.ServerName = name
	return resp, nil
}

// ClaimServerInput is the input for claiming the server.
type ClaimServerInput struct {
	Body struct {
		ClaimToken string `json:"claim_token" minLength:"1"`
		ServerName string `json:"server_name,omitempty"`
	}
}

// ClaimServerOutput is the output for claiming the server.
type ClaimServerOutput struct {
	Body struct {
		Claimed bool `json:"claimed"`
	}
}

// Claim pairs the server with the owner holding the claim token.
func (h *IdentityHandler) Claim(ctx context.Context, input *ClaimServerInput) (*ClaimServerOutput, error) {
	claimed, err := h.identity.Claimed(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read claim state", err)
	}
	if claimed {
		return nil, huma.Error409Conflict("server is already claimed")
	}

	if err := h.identity.Claim(ctx, input.Body.ClaimToken, input.Body.ServerName); err != nil {
		return nil, huma.Error502BadGateway("claim failed", err)
	}

	resp := &ClaimServerOutput{}
	resp.Body.Claimed = true
	return resp, nil
}

// ListSharesInput is the input for listing shares.
type ListSharesInput struct{}

// ListSharesOutput is the output for listing shares.
type ListSharesOutput struct {
	Body struct {
		Usernames []string `json:"usernames"`
	}
}

// ListShares returns the users this server is shared with.
func (h *IdentityHandler) ListShares(ctx context.Context, _ *ListSharesInput) (*ListSharesOutput, error) {
	if err := requireOwner(ctx); err != nil {
		return nil, err
	}

	users, err := h.identity.ListShares(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to list shares", err)
	}

	resp := &ListSharesOutput{}
	resp.Body.Usernames = users
	return resp, nil
}

// AddShareInput is the input for adding a share.
type AddShareInput struct {
	Body struct {
		Username string `json:"username" minLength:"1"`
	}
}

// AddShareOutput is the output for adding a share.
type AddShareOutput struct {
	Body struct {
		Usernames []string `json:"usernames"`
	}
}

// AddShare grants a user access to this server.
func (h *IdentityHandler) AddShare(ctx context.Context, input *AddShareInput) (*AddShareOutput, error) {
	if err := requireOwner(ctx); err != nil {
		return nil, err
	}

	if err := h.identity.AddShare(ctx, input.Body.Username); err != nil {
		return nil, huma.Error502BadGateway("failed to add share", err)
	}
	users, err := h.identity.ListShares(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to list shares", err)
	}

	resp := &AddShareOutput{}
	resp.Body.Usernames = users
	return resp, nil
}

// RemoveShareInput is the input for removing a share.
type RemoveShareInput struct {
	Username string `path:"username" minLength:"1"`
}

// RemoveShareOutput is the output for removing a share.
type RemoveShareOutput struct{}

// RemoveShare revokes a user's access to this server.
func (h *IdentityHandler) RemoveShare(ctx context.Context, input *RemoveShareInput) (*RemoveShareOutput, error) {
	if err := requireOwner(ctx); err != nil {
		return nil, err
	}

	if err := h.identity.RemoveShare(ctx, input.Username); err != nil {
		return nil, huma.Error502BadGateway("failed to remove share", err)
	}
	return &RemoveShareOutput{}, nil
}

// requireOwner ensures the caller is the owner account.
func requireOwner(ctx context.Context) error {
	user := middleware.GetUser(ctx)
	if user == nil {
		return huma.Error401Unauthorized("authentication required")
	}
	if !user.IsOwner {
		return huma.Error403Forbidden("owner access required")
	}
	return nil
}
