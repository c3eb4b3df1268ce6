package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/henosis-us/lantern/internal/ffmpeg"
)

func browserSafeProbe() *ffmpeg.MediaInfo {
	return &ffmpeg.MediaInfo{
		FormatName:    "mov,mp4,m4a,3gp,3g2,mj2",
		VideoCodec:    "h264",
		AudioCodec:    "aac",
		AudioChannels: 2,
	}
}

func directOptions() Options {
	return Options{
		Quality:      QualityMedium,
		Resolution:   ResolutionSource,
		PreferDirect: true,
	}
}

func TestClassify_DirectPlay(t *testing.T) {
	d := Classify("/media/movie.mp4", browserSafeProbe(), directOptions())

	assert.True(t, d.Direct)
}

func TestClassify_ContainerRules(t *testing.T) {
	tests := []struct {
		path   string
		direct bool
	}{
		{"/media/a.mp4", true},
		{"/media/a.m4v", true},
		{"/media/a.webm", true},
		{"/media/a.MKV", false},
		{"/media/a.mkv", false},
		{"/media/a.avi", false},
		{"/media/a.ts", false},
		{"/media/noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := Classify(tt.path, browserSafeProbe(), directOptions())
			assert.Equal(t, tt.direct, d.Direct, d.Reason)
		})
	}
}

func TestClassify_MKVNeverDirectEvenWithSafeCodecs(t *testing.T) {
	d := Classify("/media/movie.mkv", browserSafeProbe(), directOptions())

	assert.False(t, d.Direct)
}

func TestClassify_VideoCodec(t *testing.T) {
	probe := browserSafeProbe()
	probe.VideoCodec = "hevc"

	d := Classify("/media/movie.mp4", probe, directOptions())

	assert.False(t, d.Direct)
}

func TestClassify_AudioCodec(t *testing.T) {
	for _, codec := range []string{"aac", "mp3", "opus"} {
		probe := browserSafeProbe()
		probe.AudioCodec = codec
		d := Classify("/media/movie.mp4", probe, directOptions())
		assert.True(t, d.Direct, codec)
	}

	for _, codec := range []string{"ac3", "eac3", "dts", "truehd", "flac", ""} {
		probe := browserSafeProbe()
		probe.AudioCodec = codec
		d := Classify("/media/movie.mp4", probe, directOptions())
		assert.False(t, d.Direct, codec)
	}
}

func TestClassify_SurroundNeverDirect(t *testing.T) {
	probe := browserSafeProbe()
	probe.AudioChannels = 6

	d := Classify("/media/movie.mp4", probe, directOptions())

	assert.False(t, d.Direct)
}

func TestClassify_UnknownChannelsAssumedSurround(t *testing.T) {
	probe := browserSafeProbe()
	probe.AudioChannels = 0

	d := Classify("/media/movie.mp4", probe, directOptions())

	assert.False(t, d.Direct)
}

func TestClassify_ScalingForcesTranscode(t *testing.T) {
	opts := directOptions()
	opts.Resolution = Resolution720p

	d := Classify("/media/movie.mp4", browserSafeProbe(), opts)

	assert.False(t, d.Direct)
}

func TestClassify_BurnInForcesTranscode(t *testing.T) {
	opts := directOptions()
	opts.SubtitleBurn = "/subs/en.srt"

	d := Classify("/media/movie.mp4", browserSafeProbe(), opts)

	assert.False(t, d.Direct)
}

func TestClassify_ForceTranscode(t *testing.T) {
	opts := directOptions()
	opts.ForceTranscode = true

	d := Classify("/media/movie.mp4", browserSafeProbe(), opts)

	assert.False(t, d.Direct)
}

func TestClassify_DirectNotRequested(t *testing.T) {
	opts := directOptions()
	opts.PreferDirect = false

	d := Classify("/media/movie.mp4", browserSafeProbe(), opts)

	assert.False(t, d.Direct)
}

func TestClassify_NilProbe(t *testing.T) {
	d := Classify("/media/movie.mp4", nil, directOptions())

	assert.False(t, d.Direct)
}
