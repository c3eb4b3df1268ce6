package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// MediaInfo is the simplified view of a probed media file. It carries just
// what the scanner and the playback classifier need.
type MediaInfo struct {
	// FormatName is ffprobe's comma-separated demuxer list, e.g.
	// "mov,mp4,m4a,3gp,3g2,mj2" or "matroska,webm".
	FormatName      string          `json:"format_name"`
	DurationSeconds float64         `json:"duration_seconds"`
	BitRate         int64           `json:"bit_rate,omitempty"`
	VideoCodec      string          `json:"video_codec,omitempty"`
	Width           int             `json:"width,omitempty"`
	Height          int             `json:"height,omitempty"`
	AudioCodec      string          `json:"audio_codec,omitempty"`
	AudioChannels   int             `json:"audio_channels,omitempty"`
	SubtitleTracks  []SubtitleTrack `json:"subtitle_tracks,omitempty"`
}

// SubtitleTrack describes an embedded subtitle stream.
type SubtitleTrack struct {
	Index    int    `json:"index"`
	Codec    string `json:"codec"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title,omitempty"`
}

// HasVideo returns true if a video stream was found.
func (m *MediaInfo) HasVideo() bool { return m.VideoCodec != "" }

// HasAudio returns true if an audio stream was found.
func (m *MediaInfo) HasAudio() bool { return m.AudioCodec != "" }

// HasFormat reports whether name is one of the probed demuxer names.
func (m *MediaInfo) HasFormat(name string) bool {
	for _, f := range strings.Split(m.FormatName, ",") {
		if strings.TrimSpace(f) == name {
			return true
		}
	}
	return false
}

// Prober runs ffprobe against local media files.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
}

// NewProber creates a new media prober.
func NewProber(ffprobePath string) *Prober {
	return &Prober{
		ffprobePath: ffprobePath,
		timeout:     30 * time.Second,
	}
}

// WithTimeout sets the per-probe timeout.
func (p *Prober) WithTimeout(timeout time.Duration) *Prober {
	p.timeout = timeout
	return p
}

// Probe inspects the file at path and returns its stream metadata.
func (p *Prober) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("probing %s: timeout after %s", path, p.timeout)
		}
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	info, err := parseProbeOutput(output)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}
	return info, nil
}

// probeOutput mirrors the ffprobe JSON document.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

type probeStream struct {
	Index     int               `json:"index"`
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Channels  int               `json:"channels"`
	Tags      map[string]string `json:"tags"`
}

func parseProbeOutput(data []byte) (*MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	info := &MediaInfo{
		FormatName: out.Format.FormatName,
	}
	if out.Format.Duration != "" {
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			info.DurationSeconds = d
		}
	}
	if out.Format.BitRate != "" {
		if br, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
			info.BitRate = br
		}
	}

	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			// Cover art in audio containers shows up as an attached-pic
			// mjpeg/png stream; the first real video stream wins.
			if info.VideoCodec == "" && stream.CodecName != "mjpeg" && stream.CodecName != "png" {
				info.VideoCodec = stream.CodecName
				info.Width = stream.Width
				info.Height = stream.Height
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = stream.CodecName
				info.AudioChannels = stream.Channels
			}
		case "subtitle":
			track := SubtitleTrack{
				Index: stream.Index,
				Codec: stream.CodecName,
			}
			if stream.Tags != nil {
				track.Language = stream.Tags["language"]
				track.Title = stream.Tags["title"]
			}
			info.SubtitleTracks = append(info.SubtitleTracks, track)
		}
	}

	return info, nil
}
