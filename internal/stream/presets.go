package stream

import (
	"fmt"
	"strconv"
)

// Quality selects the software encoder's constant rate factor.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// qualityCRF maps quality names to libx264 CRF values.
var qualityCRF = map[Quality]int{
	QualityLow:    28,
	QualityMedium: 23,
	QualityHigh:   18,
}

// CRF returns the constant rate factor for this quality.
func (q Quality) CRF() int {
	return qualityCRF[q]
}

// ParseQuality validates a quality token. Empty input selects medium.
func ParseQuality(s string) (Quality, error) {
	if s == "" {
		return QualityMedium, nil
	}
	q := Quality(s)
	if _, ok := qualityCRF[q]; !ok {
		return "", fmt.Errorf("%w: unknown quality %q", ErrInvalidRequest, s)
	}
	return q, nil
}

// Resolution selects the output height. ResolutionSource keeps the source
// dimensions; anything else forces a transcode with a scale filter.
type Resolution string

const (
	ResolutionSource Resolution = "source"
	Resolution1080p  Resolution = "1080p"
	Resolution720p   Resolution = "720p"
	Resolution480p   Resolution = "480p"
	Resolution360p   Resolution = "360p"
)

// resolutionHeight maps resolution names to output heights in pixels.
var resolutionHeight = map[Resolution]int{
	ResolutionSource: 0,
	Resolution1080p:  1080,
	Resolution720p:   720,
	Resolution480p:   480,
	Resolution360p:   360,
}

// Height returns the target height, or 0 for source resolution.
func (r Resolution) Height() int {
	return resolutionHeight[r]
}

// IsSource returns true when no scaling is requested.
func (r Resolution) IsSource() bool {
	return r == ResolutionSource || r == ""
}

// ScaleFilter returns the FFmpeg scale filter expression, or "" for source
// resolution. Width is derived to preserve aspect ratio and stay even.
func (r Resolution) ScaleFilter() string {
	h := r.Height()
	if h == 0 {
		return ""
	}
	return "scale=-2:" + strconv.Itoa(h)
}

// ParseResolution validates a resolution token. Empty input selects source.
func ParseResolution(s string) (Resolution, error) {
	if s == "" {
		return ResolutionSource, nil
	}
	r := Resolution(s)
	if _, ok := resolutionHeight[r]; !ok {
		return "", fmt.Errorf("%w: unknown resolution %q", ErrInvalidRequest, s)
	}
	return r, nil
}
