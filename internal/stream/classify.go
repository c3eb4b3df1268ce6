package stream

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/henosis-us/lantern/internal/ffmpeg"
)

// Containers whose bytes browsers can consume unmodified. Matroska is
// deliberately absent: even with compatible codecs, mkv never direct-plays.
var directPlayExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".webm": true,
}

var directPlayVideoCodecs = map[string]bool{
	"h264": true,
}

var directPlayAudioCodecs = map[string]bool{
	"aac":  true,
	"mp3":  true,
	"opus": true,
}

// assumedChannels stands in when the probe could not determine a channel
// count. Six forces the surround path, which always transcodes.
const assumedChannels = 6

// maxDirectChannels is the stereo ceiling for direct play.
const maxDirectChannels = 2

// Options are the caller-supplied knobs for a stream start.
type Options struct {
	Quality        Quality
	Resolution     Resolution
	SubtitleBurn   string // path of a subtitle file to burn in, "" for none
	ForceTranscode bool
	PreferDirect   bool
}

// Decision is the outcome of playability classification.
type Decision struct {
	Direct bool
	Reason string
}

// Classify decides between direct play and transcoding. It is deterministic
// and side-effect-free; any failing rule forces a transcode. A nil or empty
// probe is treated as "could not verify", which always transcodes.
func Classify(path string, probe *ffmpeg.MediaInfo, opts Options) Decision {
	if opts.ForceTranscode {
		return Decision{Reason: "transcode forced by request"}
	}
	if !opts.PreferDirect {
		return Decision{Reason: "direct play not requested"}
	}
	if !opts.Resolution.IsSource() {
		return Decision{Reason: fmt.Sprintf("scaling to %s requested", opts.Resolution)}
	}
	if opts.SubtitleBurn != "" {
		return Decision{Reason: "subtitle burn-in requested"}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !directPlayExtensions[ext] {
		return Decision{Reason: fmt.Sprintf("container %s is not direct-playable", ext)}
	}

	if probe == nil || !probe.HasVideo() {
		return Decision{Reason: "probe unavailable, assuming transcode"}
	}
	if !directPlayVideoCodecs[probe.VideoCodec] {
		return Decision{Reason: fmt.Sprintf("video codec %s is not browser-safe", probe.VideoCodec)}
	}
	if !directPlayAudioCodecs[probe.AudioCodec] {
		return Decision{Reason: fmt.Sprintf("audio codec %s is not browser-safe", probe.AudioCodec)}
	}

	channels := probe.AudioChannels
	if channels <= 0 {
		channels = assumedChannels
	}
	if channels > maxDirectChannels {
		return Decision{Reason: fmt.Sprintf("%d audio channels exceed stereo ceiling", channels)}
	}

	return Decision{Direct: true, Reason: "container and codecs are browser-safe"}
}
