package stream

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henosis-us/lantern/internal/ffmpeg"
)

func testDriver(accel ffmpeg.AccelInfo) *Driver {
	return NewDriver("/usr/bin/ffmpeg", StaticAccel(accel), "/tmp/logs", 10*time.Second, 15*time.Minute, nil)
}

func softwareAccel() ffmpeg.AccelInfo {
	return ffmpeg.AccelInfo{Accel: ffmpeg.AccelSoftware, Encoder: "libx264"}
}

func testJob(t *testing.T) EncodeJob {
	t.Helper()
	session := newSession("movie-01ABC", t.TempDir(), 0, 5400)
	return EncodeJob{
		Session:         session,
		SourcePath:      "/media/movie.mkv",
		DurationSeconds: 5400,
		Quality:         QualityMedium,
		Resolution:      ResolutionSource,
		AudioCodec:      "ac3",
		AudioChannels:   6,
	}
}

func argString(cmd *ffmpeg.Command) string {
	return strings.Join(cmd.Args(), " ")
}

func TestBuildCommand_SoftwareDefaults(t *testing.T) {
	job := testJob(t)
	args := argString(testDriver(softwareAccel()).BuildCommand(job))

	assert.Contains(t, args, "-i /media/movie.mkv")
	assert.Contains(t, args, "-c:v libx264")
	assert.Contains(t, args, "-preset veryfast")
	assert.Contains(t, args, "-crf 23")
	assert.Contains(t, args, "-pix_fmt yuv420p")
	assert.Contains(t, args, "-force_key_frames expr:gte(t,n_forced*10)")
	assert.Contains(t, args, "-g 240")
	assert.Contains(t, args, "-keyint_min 240")
	assert.Contains(t, args, "-sn")
	assert.Contains(t, args, "-f segment")
	assert.Contains(t, args, "-segment_time 10")
	assert.Contains(t, args, "-segment_format mpegts")
	assert.Contains(t, args, "-segment_start_number 0")
	assert.Contains(t, args, "stream%d.ts")
	// No seek requested.
	assert.NotContains(t, args, "-ss")
}

func TestBuildCommand_QualityCRF(t *testing.T) {
	for quality, crf := range map[Quality]string{
		QualityLow:    "-crf 28",
		QualityMedium: "-crf 23",
		QualityHigh:   "-crf 18",
	} {
		job := testJob(t)
		job.Quality = quality
		args := argString(testDriver(softwareAccel()).BuildCommand(job))
		assert.Contains(t, args, crf)
	}
}

func TestBuildCommand_SeekNumbersSegmentsFromOffset(t *testing.T) {
	job := testJob(t)
	job.SeekSeconds = 125
	job.Session = newSession("movie-01ABC", job.Session.Dir, 12, 5400)

	args := argString(testDriver(softwareAccel()).BuildCommand(job))

	assert.Contains(t, args, "-ss 125.000")
	assert.Contains(t, args, "-avoid_negative_ts make_zero")
	assert.Contains(t, args, "-segment_start_number 12")
	// Encode window: 125s + 15min.
	assert.Contains(t, args, "-to 1025.000")
}

func TestBuildCommand_EncodeWindowClampedToDuration(t *testing.T) {
	job := testJob(t)
	job.DurationSeconds = 300

	args := argString(testDriver(softwareAccel()).BuildCommand(job))

	assert.Contains(t, args, "-to 300.000")
}

func TestBuildCommand_AudioCopyWhenStereoAAC(t *testing.T) {
	job := testJob(t)
	job.AudioCodec = "aac"
	job.AudioChannels = 2

	args := argString(testDriver(softwareAccel()).BuildCommand(job))

	assert.Contains(t, args, "-c:a copy")
	assert.NotContains(t, args, "-b:a")
}

func TestBuildCommand_AudioTranscodeBitrateScalesWithChannels(t *testing.T) {
	tests := []struct {
		codec    string
		channels int
		bitrate  string
		outCh    string
	}{
		{"ac3", 6, "-b:a 384k", "-ac 6"},
		{"aac", 6, "-b:a 384k", "-ac 6"}, // surround AAC still re-encodes
		{"dts", 8, "-b:a 384k", "-ac 6"}, // capped at 6 channels
		{"mp3", 2, "-b:a 128k", "-ac 2"},
		{"ac3", 0, "-b:a 128k", "-ac 2"}, // unknown channels assume stereo
	}

	for _, tt := range tests {
		job := testJob(t)
		job.AudioCodec = tt.codec
		job.AudioChannels = tt.channels

		args := argString(testDriver(softwareAccel()).BuildCommand(job))

		assert.Contains(t, args, "-c:a aac", tt)
		assert.Contains(t, args, tt.bitrate, tt)
		assert.Contains(t, args, tt.outCh, tt)
	}
}

func TestBuildCommand_ScaleFilter(t *testing.T) {
	job := testJob(t)
	job.Resolution = Resolution720p

	args := argString(testDriver(softwareAccel()).BuildCommand(job))

	assert.Contains(t, args, "-vf scale=-2:720")
}

func TestBuildCommand_SubtitleBurn(t *testing.T) {
	job := testJob(t)
	job.SubtitleBurn = "/subs/movie.en.srt"

	args := argString(testDriver(softwareAccel()).BuildCommand(job))

	assert.Contains(t, args, "subtitles=/subs/movie.en.srt")
}

func TestBuildCommand_HardwareEncoder(t *testing.T) {
	accel := ffmpeg.AccelInfo{Accel: ffmpeg.AccelNVENC, Encoder: "h264_nvenc", Device: "NVIDIA RTX"}

	args := argString(testDriver(accel).BuildCommand(testJob(t)))

	assert.Contains(t, args, "-c:v h264_nvenc")
	assert.NotContains(t, args, "-crf")
	assert.NotContains(t, args, "-preset")
}

func TestBuildCommand_VAAPIWiresDeviceAndUpload(t *testing.T) {
	accel := ffmpeg.AccelInfo{Accel: ffmpeg.AccelVAAPI, Encoder: "h264_vaapi", Device: "/dev/dri/renderD128"}

	args := argString(testDriver(accel).BuildCommand(testJob(t)))

	assert.Contains(t, args, "-vaapi_device /dev/dri/renderD128")
	assert.Contains(t, args, "format=nv12,hwupload")
	assert.Contains(t, args, "-c:v h264_vaapi")
}

// switchingAccel flips backends between calls, standing in for a detector
// whose cache was refreshed between two encodes.
type switchingAccel struct {
	infos []ffmpeg.AccelInfo
	calls int
}

func (s *switchingAccel) Best(context.Context) ffmpeg.AccelInfo {
	info := s.infos[s.calls]
	if s.calls < len(s.infos)-1 {
		s.calls++
	}
	return info
}

func TestBuildCommand_ConsultsAccelSourcePerBuild(t *testing.T) {
	source := &switchingAccel{infos: []ffmpeg.AccelInfo{
		softwareAccel(),
		{Accel: ffmpeg.AccelNVENC, Encoder: "h264_nvenc", Device: "NVIDIA RTX"},
	}}
	driver := NewDriver("/usr/bin/ffmpeg", source, "/tmp/logs", 10*time.Second, 15*time.Minute, nil)

	first := argString(driver.BuildCommand(testJob(t)))
	second := argString(driver.BuildCommand(testJob(t)))

	assert.Contains(t, first, "-c:v libx264")
	assert.Contains(t, second, "-c:v h264_nvenc")
	assert.NotContains(t, second, "-crf")
}

func TestLaunch_MissingBinaryFails(t *testing.T) {
	driver := NewDriver("/nonexistent/ffmpeg", StaticAccel(softwareAccel()), t.TempDir(), 10*time.Second, 15*time.Minute, nil)

	err := driver.Launch(testJob(t), nil)

	require.Error(t, err)
}

func TestEscapeFilterPath(t *testing.T) {
	assert.Equal(t, `/subs/movie.srt`, escapeFilterPath("/subs/movie.srt"))
	assert.Equal(t, `C\:/subs/it\'s.srt`, escapeFilterPath("C:/subs/it's.srt"))
}
