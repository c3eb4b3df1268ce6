package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/henosis-us/lantern/internal/identity"
)

type fakeVerifier struct {
	result *identity.VerifyResult
	err    error
	tokens []string
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*identity.VerifyResult, error) {
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func runAuth(t *testing.T, verifier TokenVerifier, req *http.Request) (*httptest.ResponseRecorder, *identity.VerifyResult) {
	t.Helper()
	var seen *identity.VerifyResult
	handler := TokenAuth(verifier, []string{"/health", "/api/v1/identity/claim"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetUser(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestTokenAuthBearerHeader(t *testing.T) {
	v := &fakeVerifier{result: &identity.VerifyResult{Valid: true, Username: "alice"}}
	req := httptest.NewRequest("GET", "/api/v1/movies", nil)
	req.Header.Set("Authorization", "Bearer tok-123")

	rec, user := runAuth(t, v, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"tok-123"}, v.tokens)
	assert.Equal(t, "alice", user.Username)
}

func TestTokenAuthQueryParam(t *testing.T) {
	// Video elements cannot set headers; the token rides the query string.
	v := &fakeVerifier{result: &identity.VerifyResult{Valid: true, Username: "bob"}}
	req := httptest.NewRequest("GET", "/stream/hls/abc/stream0.ts?token=tok-456", nil)

	rec, user := runAuth(t, v, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", user.Username)
}

func TestTokenAuthMissingToken(t *testing.T) {
	rec, _ := runAuth(t, &fakeVerifier{}, httptest.NewRequest("GET", "/api/v1/movies", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenAuthInvalidToken(t *testing.T) {
	v := &fakeVerifier{result: &identity.VerifyResult{Valid: false}}
	req := httptest.NewRequest("GET", "/api/v1/movies", nil)
	req.Header.Set("Authorization", "Bearer nope")

	rec, _ := runAuth(t, v, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenAuthVerifierUnavailable(t *testing.T) {
	v := &fakeVerifier{err: errors.New("identity service down")}
	req := httptest.NewRequest("GET", "/api/v1/movies", nil)
	req.Header.Set("Authorization", "Bearer tok")

	rec, _ := runAuth(t, v, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTokenAuthExemptPaths(t *testing.T) {
	v := &fakeVerifier{}
	for _, path := range []string{"/health", "/api/v1/identity/claim"} {
		rec, _ := runAuth(t, v, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Empty(t, v.tokens, "exempt paths should not hit the verifier")
}
