// Package identity integrates with the companion identity/gateway service:
// server claiming, liveness heartbeats, token verification for incoming
// requests, and sharing management proxied on behalf of the owner.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/henosis-us/lantern/internal/httpclient"
)

// Client talks to the identity service's server-facing API.
type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an identity client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
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
		logger:  logger,
	}
}

// VerifyResult is the identity service's verdict on a presented token.
type VerifyResult struct {
	Valid    bool   `json:"is_valid"`
	Username string `json:"username"`
	IsOwner  bool   `json:"is_owner"`
}

// VerifyToken asks the identity service whether token grants access to this
// server. An invalid token is not an error; check Valid.
func (c *Client) VerifyToken(ctx context.Context, token, serverUniqueID string) (*VerifyResult, error) {
	var result VerifyResult
	err := c.post(ctx, "/api/server/verify-token", map[string]string{
		"token":            token,
		"server_unique_id": serverUniqueID,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Claim pairs this server with the owner account holding claimToken.
func (c *Client) Claim(ctx context.Context, claimToken, serverUniqueID, serverName string) error {
	return c.post(ctx, "/api/server/claim", map[string]string{
		"claim_token":      claimToken,
		"server_unique_id": serverUniqueID,
		"server_name":      serverName,
	}, nil)
}

// Heartbeat reports this server as alive and reachable.
func (c *Client) Heartbeat(ctx context.Context, serverUniqueID string) error {
	return c.post(ctx, "/api/server/heartbeat", map[string]string{
		"server_unique_id": serverUniqueID,
	}, nil)
}

// ListShares returns the usernames the owner has shared this server with.
func (c *Client) ListShares(ctx context.Context, serverUniqueID string) ([]string, error) {
	var result struct {
		Usernames []string `json:"usernames"`
	}
	err := c.post(ctx, "/api/server/shares/list", map[string]string{
		"server_unique_id": serverUniqueID,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Usernames, nil
}

// AddShare grants username access to this server.
func (c *Client) AddShare(ctx context.Context, serverUniqueID, username string) error {
	return c.post(ctx, "/api/server/shares/add", map[string]string{
		"server_unique_id": serverUniqueID,
		"username":         username,
	}, nil)
}

// RemoveShare revokes username's access to this server.
func (c *Client) RemoveShare(ctx context.Context, serverUniqueID, username string) error {
	return c.post(ctx, "/api/server/shares/remove", map[string]string{
		"server_unique_id": serverUniqueID,
		"username":         username,
	}, nil)
}

func (c *Client) post(ctx context.Context, path string, body map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("identity %s: unexpected status %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("identity %s: decoding response: %w", path, err)
		}
	}
	return nil
}
