package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/henosis-us/lantern/internal/models"
	"github.com/henosis-us/lantern/internal/repository"
)

// verifyCacheTTL bounds how long a token verdict is reused before the
// identity service is consulted again. Keeps per-segment requests from
// hammering the remote service.
const verifyCacheTTL = 60 * time.Second

type cachedVerdict struct {
	result  VerifyResult
	expires time.Time
}

// verifier is the remote surface the service needs; narrowed for tests.
type verifier interface {
	VerifyToken(ctx context.Context, token, serverUniqueID string) (*VerifyResult, error)
	Claim(ctx context.Context, claimToken, serverUniqueID, serverName string) error
	Heartbeat(ctx context.Context, serverUniqueID string) error
	ListShares(ctx context.Context, serverUniqueID string) ([]string, error)
	AddShare(ctx context.Context, serverUniqueID, username string) error
	RemoveShare(ctx context.Context, serverUniqueID, username string) error
}

// Service owns this server's identity: its stable unique ID, its claim
// state, and cached token verification.
type Service struct {
	client   verifier
	settings repository.ServerSettingRepository
	logger   *slog.Logger

	mu       sync.Mutex
	serverID string
	cache    map[string]cachedVerdict
	now      func() time.Time
}

// NewService creates the identity service.
func NewService(client *Client, settings repository.ServerSettingRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		settings: settings,
		logger:   logger,
		cache:    make(map[string]cachedVerdict),
		now:      time.Now,
	}
}

// ServerUniqueID returns this server's stable identifier, generating and
// persisting one on first use.
func (s *Service) ServerUniqueID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.serverID != "" {
		return s.serverID, nil
	}

	stored, err := s.settings.Get(ctx, models.SettingServerUniqueID)
	if err != nil {
		return "", fmt.Errorf("loading server id: %w", err)
	}
	if stored != "" {
		s.serverID = stored
		return s.serverID, nil
	}

	id := uuid.NewString()
	if err := s.settings.Set(ctx, models.SettingServerUniqueID, id); err != nil {
		return "", fmt.Errorf("persisting server id: %w", err)
	}
	s.serverID = id
	s.logger.Info("generated server unique id", slog.String("server_id", id))
	return id, nil
}

// ServerName returns the display name recorded at claim time.
func (s *Service) ServerName(ctx context.Context) (string, error) {
	return s.settings.Get(ctx, models.SettingServerName)
}

// ListShares returns the usernames this server is shared with.
func (s *Service) ListShares(ctx context.Context) ([]string, error) {
	serverID, err := s.ServerUniqueID(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.ListShares(ctx, serverID)
}

// AddShare grants a user access to this server.
func (s *Service) AddShare(ctx context.Context, username string) error {
	serverID, err := s.ServerUniqueID(ctx)
	if err != nil {
		return err
	}
	return s.client.AddShare(ctx, serverID, username)
}

// RemoveShare revokes a user's access to this server.
func (s *Service) RemoveShare(ctx context.Context, username string) error {
	serverID, err := s.ServerUniqueID(ctx)
	if err != nil {
		return err
	}
	return s.client.RemoveShare(ctx, serverID, username)
}

// Claimed reports whether this server has been paired to an owner account.
func (s *Service) Claimed(ctx context.Context) (bool, error) {
	token, err := s.settings.Get(ctx, models.SettingClaimToken)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// Claim pairs this server with an owner account and records the claim.
func (s *Service) Claim(ctx context.Context, claimToken, serverName string) error {
	serverID, err := s.ServerUniqueID(ctx)
	if err != nil {
		return err
	}
	if err := s.client.Claim(ctx, claimToken, serverID, serverName); err != nil {
		return fmt.Errorf("claiming server: %w", err)
	}
	if err := s.settings.Set(ctx, models.SettingClaimToken, claimToken); err != nil {
		return fmt.Errorf("persisting claim: %w", err)
	}
	if serverName != "" {
		if err := s.settings.Set(ctx, models.SettingServerName, serverName); err != nil {
			return fmt.Errorf("persisting server name: %w", err)
		}
	}
	s.logger.Info("server claimed", slog.String("server_name", serverName))
	return nil
}

// Verify checks a caller token, consulting the cache first. Invalid tokens
// are also cached so a misbehaving client cannot turn every request into a
// remote round trip.
func (s *Service) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	if token == "" {
		return &VerifyResult{}, nil
	}

	s.mu.Lock()
	if v, ok := s.cache[token]; ok && s.now().Before(v.expires) {
		result := v.result
		s.mu.Unlock()
		return &result, nil
	}
	s.mu.Unlock()

	serverID, err := s.ServerUniqueID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.client.VerifyToken(ctx, token, serverID)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}

	s.mu.Lock()
	s.cache[token] = cachedVerdict{result: *result, expires: s.now().Add(verifyCacheTTL)}
	s.mu.Unlock()

	return result, nil
}

// Heartbeat reports liveness to the identity service. Wired to a cron
// schedule at startup; failures are logged, never fatal.
func (s *Service) Heartbeat(ctx context.Context) {
	claimed, err := s.Claimed(ctx)
	if err != nil || !claimed {
		return
	}
	serverID, err := s.ServerUniqueID(ctx)
	if err != nil {
		return
	}
	if err := s.client.Heartbeat(ctx, serverID); err != nil {
		s.logger.Warn("heartbeat failed", slog.String("error", err.Error()))
	}
}
