package stream

import (
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
)

// BuildManifest renders the VOD playlist for the full media duration as
// consecutive fixed-length segments, with the final segment clamped to the
// remainder. The manifest always describes the whole timeline even though
// only a prefix exists on disk when it is served; fetches for segments that
// do not exist yet are held at the readiness gate instead.
//
// Segment URIs are relative to the playlist and carry the caller's token as
// a query parameter, because players fetch segments without custom headers.
func BuildManifest(durationSeconds float64, segmentDuration time.Duration, token string) (string, error) {
	if durationSeconds <= 0 {
		return "", fmt.Errorf("%w: non-positive duration", ErrInvalidRequest)
	}

	segSeconds := segmentDuration.Seconds()
	count := int(math.Ceil(durationSeconds / segSeconds))

	vod := playlist.MediaPlaylistTypeVOD
	media := &playlist.Media{
		Version:        3,
		TargetDuration: int(math.Round(segSeconds)),
		PlaylistType:   &vod,
		Endlist:        true,
	}

	query := ""
	if token != "" {
		query = "?token=" + url.QueryEscape(token)
	}

	for i := 0; i < count; i++ {
		segDur := segSeconds
		if i == count-1 {
			segDur = durationSeconds - float64(count-1)*segSeconds
		}
		media.Segments = append(media.Segments, &playlist.MediaSegment{
			Duration: time.Duration(segDur * float64(time.Second)),
			URI:      SegmentName(i) + query,
		})
	}

	out, err := media.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshaling playlist: %w", err)
	}
	return string(out), nil
}

// SegmentCount returns how many fixed-length segments cover the duration.
func SegmentCount(durationSeconds float64, segmentDuration time.Duration) int {
	if durationSeconds <= 0 {
		return 0
	}
	return int(math.Ceil(durationSeconds / segmentDuration.Seconds()))
}
