package handlers

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHealth(t *testing.T) {
	f := setupHandlers(t)
	h := NewHealthHandler("1.2.3", f.db)

	resp, err := h.GetHealth(context.Background(), &HealthInput{})
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Body.Status)
	assert.Equal(t, "1.2.3", resp.Body.Version)
	assert.Equal(t, "ok", resp.Body.Checks["database"])
	assert.Equal(t, runtime.NumCPU(), resp.Body.CPU.Cores)
	assert.GreaterOrEqual(t, resp.Body.UptimeSeconds, 0.0)
}

func TestGetHealthWithoutDatabase(t *testing.T) {
	h := NewHealthHandler("dev", nil)

	resp, err := h.GetHealth(context.Background(), &HealthInput{})
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Body.Status)
}
