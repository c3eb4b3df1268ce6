package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuality(t *testing.T) {
	tests := []struct {
		input   string
		quality Quality
		crf     int
		wantErr bool
	}{
		{"", QualityMedium, 23, false},
		{"low", QualityLow, 28, false},
		{"medium", QualityMedium, 23, false},
		{"high", QualityHigh, 18, false},
		{"ultra", "", 0, true},
		{"LOW", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := ParseQuality(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.quality, q)
			assert.Equal(t, tt.crf, q.CRF())
		})
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		input      string
		resolution Resolution
		filter     string
		wantErr    bool
	}{
		{"", ResolutionSource, "", false},
		{"source", ResolutionSource, "", false},
		{"1080p", Resolution1080p, "scale=-2:1080", false},
		{"720p", Resolution720p, "scale=-2:720", false},
		{"480p", Resolution480p, "scale=-2:480", false},
		{"360p", Resolution360p, "scale=-2:360", false},
		{"4k", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := ParseResolution(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.resolution, r)
			assert.Equal(t, tt.filter, r.ScaleFilter())
		})
	}
}

func TestResolution_IsSource(t *testing.T) {
	assert.True(t, ResolutionSource.IsSource())
	assert.True(t, Resolution("").IsSource())
	assert.False(t, Resolution720p.IsSource())
}
