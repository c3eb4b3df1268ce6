package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/henosis-us/lantern/internal/config"
	"github.com/henosis-us/lantern/internal/observability"
)

func runLogged(t *testing.T, status int) string {
	t.Helper()
	var buf bytes.Buffer
	logger := observability.NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/movies", nil))
	return buf.String()
}

func TestLoggingMiddleware_LogsRequests(t *testing.T) {
	out := runLogged(t, http.StatusOK)

	assert.Contains(t, out, "http request")
	assert.Contains(t, out, "/api/v1/movies")
}

func TestLoggingMiddleware_DisabledSkipsSuccesses(t *testing.T) {
	observability.SetRequestLoggingEnabled(false)
	t.Cleanup(func() { observability.SetRequestLoggingEnabled(true) })

	assert.Empty(t, runLogged(t, http.StatusOK))

	// Errors are logged regardless of the toggle.
	out := runLogged(t, http.StatusInternalServerError)
	assert.Contains(t, out, "http request")
}
