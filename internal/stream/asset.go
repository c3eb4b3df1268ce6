// Package stream implements the transcode and adaptive-streaming engine:
// playability classification, transcode session lifecycle, FFmpeg segment
// encoding, segment readiness gating, VOD manifest generation, and
// byte-range serving of direct-play files.
package stream

import (
	"github.com/henosis-us/lantern/internal/models"
)

// Asset is the streaming view of a playable library item. Movies and
// episodes share this contract; the item type is resolved once at lookup
// and never branched on again inside the engine.
type Asset struct {
	ID              models.ULID
	Type            models.ItemType
	FilePath        string
	DurationSeconds float64

	// Cached probe results from the last library scan. Fresh stream starts
	// re-probe; these serve listings and hints only.
	VideoCodec    string
	AudioCodec    string
	AudioChannels int
	DirectPlay    bool
}

// Key uniquely identifies the asset across item types. It doubles as the
// per-asset directory name under the HLS output root.
func (a *Asset) Key() string {
	return string(a.Type) + "-" + a.ID.String()
}
