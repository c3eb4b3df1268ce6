package stream

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/henosis-us/lantern/internal/ffmpeg"
)

// EncodeJob describes one segment-encoding run for a session.
type EncodeJob struct {
	Session    *Session
	SourcePath string

	// SeekSeconds is where encoding starts; segment numbering begins at
	// floor(SeekSeconds / segment_duration).
	SeekSeconds     float64
	DurationSeconds float64

	Quality      Quality
	Resolution   Resolution
	SubtitleBurn string // subtitle file to burn in, "" for none

	// Source audio as probed, used to pick copy vs re-encode.
	AudioCodec    string
	AudioChannels int
}

// AccelSource yields the encoder backend for the next encode. The driver
// consults it on every build, so a manual hardware re-probe takes effect
// for subsequent sessions without a restart.
type AccelSource interface {
	Best(ctx context.Context) ffmpeg.AccelInfo
}

// StaticAccel is an AccelSource pinned to a fixed backend, used when
// hardware detection is disabled.
type StaticAccel ffmpeg.AccelInfo

func (s StaticAccel) Best(context.Context) ffmpeg.AccelInfo {
	return ffmpeg.AccelInfo(s)
}

// Driver builds FFmpeg argument sets for segment encoding and supervises
// the resulting child processes.
type Driver struct {
	ffmpegPath      string
	accel           AccelSource
	logDir          string
	segmentDuration time.Duration
	// encodeWindow bounds how far past the seek point one process encodes.
	// Seeks beyond the window start a fresh session, so encoding the whole
	// file up front would be wasted work.
	encodeWindow time.Duration
	logger       *slog.Logger
}

// NewDriver creates a segment encoder driver.
func NewDriver(ffmpegPath string, accel AccelSource, logDir string, segmentDuration, encodeWindow time.Duration, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		ffmpegPath:      ffmpegPath,
		accel:           accel,
		logDir:          logDir,
		segmentDuration: segmentDuration,
		encodeWindow:    encodeWindow,
		logger:          logger,
	}
}

// maxEncodeChannels caps the output channel count.
const maxEncodeChannels = 6

// audioArgs decides the audio strategy: copy when the source is already
// stereo-or-less AAC, otherwise re-encode to AAC at a bitrate scaled to the
// (capped) channel count.
func (d *Driver) audioArgs(b *ffmpeg.CommandBuilder, codec string, channels int) {
	if codec == "aac" && channels > 0 && channels <= 2 {
		b.AudioCodec("copy")
		return
	}
	if channels <= 0 {
		channels = 2
	}
	if channels > maxEncodeChannels {
		channels = maxEncodeChannels
	}
	b.AudioCodec("aac")
	b.AudioBitrate(fmt.Sprintf("%dk", 128*channels/2))
	b.AudioChannels(channels)
}

// videoArgs picks the encoder path: the detected hardware encoder when one
// is available, else libx264 with the quality preset's CRF.
func (d *Driver) videoArgs(b *ffmpeg.CommandBuilder, accel ffmpeg.AccelInfo, quality Quality) {
	b.PixelFormat("yuv420p")
	if accel.Hardware() {
		b.VideoCodec(accel.Encoder)
		return
	}
	b.VideoCodec("libx264")
	b.VideoPreset("veryfast")
	b.CRF(quality.CRF())
}

// BuildCommand assembles the full encoder invocation for a job.
func (d *Driver) BuildCommand(job EncodeJob) *ffmpeg.Command {
	accel := d.accel.Best(context.Background())
	segSeconds := d.segmentDuration.Seconds()
	startSegment := job.Session.StartSegment

	// Encode from the seek point up to the window bound or end of media,
	// whichever comes first.
	end := job.SeekSeconds + d.encodeWindow.Seconds()
	if end > job.DurationSeconds {
		end = job.DurationSeconds
	}

	b := ffmpeg.NewCommandBuilder(d.ffmpegPath).
		HideBanner().
		LogLevel("error").
		Overwrite().
		SeekTo(job.SeekSeconds)

	if accel.Accel == ffmpeg.AccelVAAPI && accel.Device != "" {
		b.InputArgs("-vaapi_device", accel.Device)
	}

	b.Input(job.SourcePath).
		StopAt(end)

	if filter := job.Resolution.ScaleFilter(); filter != "" {
		b.VideoFilter(filter)
	}
	if job.SubtitleBurn != "" {
		b.VideoFilter("subtitles=" + escapeFilterPath(job.SubtitleBurn))
	}
	if accel.Accel == ffmpeg.AccelVAAPI {
		b.VideoFilter("format=nv12,hwupload")
	}

	d.videoArgs(b, accel, job.Quality)
	d.audioArgs(b, job.AudioCodec, job.AudioChannels)

	segInt := int(math.Round(segSeconds))
	b.OutputArgs(
		// Keyframes pinned to segment boundaries so every segment decodes
		// independently; the GOP ceiling stops the encoder inserting its
		// own mid-segment cut points.
		"-force_key_frames", fmt.Sprintf("expr:gte(t,n_forced*%d)", segInt),
		"-g", "240",
		"-keyint_min", "240",
		"-sn",
		"-f", "segment",
		"-segment_time", strconv.Itoa(segInt),
		"-segment_format", "mpegts",
		"-segment_start_number", strconv.Itoa(startSegment),
	)

	b.Output(filepath.Join(job.Session.Dir, "stream%d.ts"))
	b.StderrLogPath(filepath.Join(d.logDir, "ffmpeg-"+job.Session.AssetKey+".log"))

	return b.Command()
}

// Launch starts the encoder and supervises it from a dedicated goroutine.
// The call returns as soon as the process is running; onExit fires exactly
// once when it stops, with nil for a clean exit.
func (d *Driver) Launch(job EncodeJob, onExit func(error)) error {
	cmd := d.BuildCommand(job)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching encoder: %w", err)
	}
	job.Session.AttachProcess(cmd)

	d.logger.Info("encoder started",
		slog.String("asset", job.Session.AssetKey),
		slog.String("session_id", job.Session.ID),
		slog.Int("pid", cmd.PID()),
		slog.Float64("seek", job.SeekSeconds),
		slog.Int("start_segment", job.Session.StartSegment))

	go func() {
		err := cmd.Wait()
		if err != nil {
			d.logger.Error("encoder exited with error",
				slog.String("asset", job.Session.AssetKey),
				slog.String("session_id", job.Session.ID),
				slog.String("error", err.Error()),
				slog.Any("stderr_tail", tail(cmd.GetStderrLines(), 5)))
		} else {
			d.logger.Debug("encoder finished",
				slog.String("asset", job.Session.AssetKey),
				slog.String("session_id", job.Session.ID),
				slog.Duration("runtime", cmd.Duration()))
		}
		if onExit != nil {
			onExit(err)
		}
	}()

	return nil
}

// escapeFilterPath escapes characters that the filter graph parser treats
// specially in file paths (':' separates filter options).
func escapeFilterPath(path string) string {
	out := make([]rune, 0, len(path))
	for _, r := range path {
		switch r {
		case ':', '\'', '[', ']', ',', ';':
			out = append(out, '\\', r)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
