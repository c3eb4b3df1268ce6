package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu          sync.Mutex
	verifyCalls int
	verifyErr   error
	result      VerifyResult
	claims      []string
	heartbeats  int
	shares      []string
}

func (f *fakeRemote) VerifyToken(_ context.Context, token, serverID string) (*VerifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	r := f.result
	return &r, nil
}

func (f *fakeRemote) Claim(_ context.Context, claimToken, serverID, serverName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = append(f.claims, claimToken)
	return nil
}

func (f *fakeRemote) Heartbeat(_ context.Context, serverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeats++
	return nil
}

func (f *fakeRemote) ListShares(_ context.Context, serverID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.shares...), nil
}

func (f *fakeRemote) AddShare(_ context.Context, serverID, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shares = append(f.shares, username)
	return nil
}

func (f *fakeRemote) RemoveShare(_ context.Context, serverID, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.shares {
		if u == username {
			f.shares = append(f.shares[:i], f.shares[i+1:]...)
			break
		}
	}
	return nil
}

type memSettings struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{data: make(map[string]string)}
}

func (m *memSettings) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memSettings) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func testIdentityService(remote *fakeRemote) (*Service, *memSettings) {
	settings := newMemSettings()
	svc := &Service{
		client:   remote,
		settings: settings,
		logger:   slog.Default(),
		cache:    make(map[string]cachedVerdict),
		now:      time.Now,
	}
	return svc, settings
}

func TestServerUniqueID_GeneratedOnceAndPersisted(t *testing.T) {
	svc, settings := testIdentityService(&fakeRemote{})

	id1, err := svc.ServerUniqueID(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id1)

	id2, err := svc.ServerUniqueID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	stored, _ := settings.Get(context.Background(), "server_unique_id")
	assert.Equal(t, id1, stored)
}

func TestVerify_CachesVerdicts(t *testing.T) {
	remote := &fakeRemote{result: VerifyResult{Valid: true, Username: "alice", IsOwner: true}}
	svc, _ := testIdentityService(remote)

	for i := 0; i < 5; i++ {
		result, err := svc.Verify(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, "alice", result.Username)
	}

	assert.Equal(t, 1, remote.verifyCalls)
}

func TestVerify_CacheExpires(t *testing.T) {
	remote := &fakeRemote{result: VerifyResult{Valid: true, Username: "alice"}}
	svc, _ := testIdentityService(remote)

	current := time.Now()
	svc.now = func() time.Time { return current }

	_, err := svc.Verify(context.Background(), "tok-1")
	require.NoError(t, err)

	current = current.Add(verifyCacheTTL + time.Second)
	_, err = svc.Verify(context.Background(), "tok-1")
	require.NoError(t, err)

	assert.Equal(t, 2, remote.verifyCalls)
}

func TestVerify_EmptyTokenInvalidWithoutRemoteCall(t *testing.T) {
	remote := &fakeRemote{}
	svc, _ := testIdentityService(remote)

	result, err := svc.Verify(context.Background(), "")
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, 0, remote.verifyCalls)
}

func TestVerify_RemoteError(t *testing.T) {
	remote := &fakeRemote{verifyErr: errors.New("identity unreachable")}
	svc, _ := testIdentityService(remote)

	_, err := svc.Verify(context.Background(), "tok-1")
	assert.Error(t, err)
}

func TestClaim_PersistsState(t *testing.T) {
	remote := &fakeRemote{}
	svc, settings := testIdentityService(remote)

	claimed, err := svc.Claimed(context.Background())
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, svc.Claim(context.Background(), "claim-abc", "living room"))

	claimed, err = svc.Claimed(context.Background())
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, []string{"claim-abc"}, remote.claims)

	name, _ := settings.Get(context.Background(), "server_name")
	assert.Equal(t, "living room", name)
}

func TestHeartbeat_SkippedWhenUnclaimed(t *testing.T) {
	remote := &fakeRemote{}
	svc, _ := testIdentityService(remote)

	svc.Heartbeat(context.Background())
	assert.Equal(t, 0, remote.heartbeats)

	require.NoError(t, svc.Claim(context.Background(), "claim-abc", ""))
	svc.Heartbeat(context.Background())
	assert.Equal(t, 1, remote.heartbeats)
}
