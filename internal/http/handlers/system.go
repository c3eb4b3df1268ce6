package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/henosis-us/lantern/internal/ffmpeg"
	"github.com/henosis-us/lantern/internal/stream"
)

// SystemHandler exposes transcoder capability and session diagnostics.
type SystemHandler struct {
	binaries *ffmpeg.BinaryDetector
	accel    *ffmpeg.AccelDetector
	registry *stream.Registry
}

// NewSystemHandler creates a new system handler.
func NewSystemHandler(binaries *ffmpeg.BinaryDetector, accel *ffmpeg.AccelDetector, registry *stream.Registry) *SystemHandler {
	return &SystemHandler{
		binaries: binaries,
		accel:    accel,
		registry: registry,
	}
}

// Register registers the system routes with the API.
func (h *SystemHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getFFmpegInfo",
		Method:      "GET",
		Path:        "/api/v1/system/ffmpeg",
		Summary:     "FFmpeg binary info",
		Description: "Returns the detected ffmpeg/ffprobe paths, version and encoders",
		Tags:        []string{"System"},
	}, h.GetFFmpeg)

	huma.Register(api, huma.Operation{
		OperationID: "getHardwareAccel",
		Method:      "GET",
		Path:        "/api/v1/system/hwaccel",
		Summary:     "Hardware acceleration status",
		Description: "Returns the encoder selected at startup",
		Tags:        []string{"System"},
	}, h.GetHWAccel)

	huma.Register(api, huma.Operation{
		OperationID: "refreshHardwareAccel",
		Method:      "POST",
		Path:        "/api/v1/system/hwaccel/refresh",
		Summary:     "Re-probe hardware acceleration",
		Description: "Re-runs encoder detection, e.g. after driver changes",
		Tags:        []string{"System"},
	}, h.RefreshHWAccel)

	huma.Register(api, huma.Operation{
		OperationID: "listTranscodeSessions",
		Method:      "GET",
		Path:        "/api/v1/system/sessions",
		Summary:     "List transcode sessions",
		Description: "Returns all live transcode sessions",
		Tags:        []string{"System"},
	}, h.ListSessions)
}

// FFmpegInfoInput is the input for the ffmpeg info endpoint.
type FFmpegInfoInput struct{}

// FFmpegInfoOutput is the output for the ffmpeg info endpoint.
type FFmpegInfoOutput struct {
	Body ffmpeg.BinaryInfo
}

// GetFFmpeg returns detected binary capabilities.
func (h *SystemHandler) GetFFmpeg(ctx context.Context, _ *FFmpegInfoInput) (*FFmpegInfoOutput, error) {
	info, err := h.binaries.Detect(ctx)
	if err != nil {
		return nil, huma.Error503ServiceUnavailable("ffmpeg not available", err)
	}
	return &FFmpegInfoOutput{Body: *info}, nil
}

// HWAccelInput is the input for the hwaccel endpoints.
type HWAccelInput struct{}

// HWAccelOutput is the output for the hwaccel endpoints.
type HWAccelOutput struct {
	Body HWAccelResponse
}

// HWAccelResponse describes the selected encoder.
type HWAccelResponse struct {
	Accel    string `json:"accel"`
	Encoder  string `json:"encoder"`
	Device   string `json:"device,omitempty"`
	Hardware bool   `json:"hardware"`
}

// GetHWAccel returns the cached detection result.
func (h *SystemHandler) GetHWAccel(ctx context.Context, _ *HWAccelInput) (*HWAccelOutput, error) {
	return hwAccelOutput(h.accel.Best(ctx)), nil
}

// RefreshHWAccel discards the cached result and re-probes.
func (h *SystemHandler) RefreshHWAccel(ctx context.Context, _ *HWAccelInput) (*HWAccelOutput, error) {
	return hwAccelOutput(h.accel.Refresh(ctx)), nil
}

func hwAccelOutput(info ffmpeg.AccelInfo) *HWAccelOutput {
	return &HWAccelOutput{
		Body: HWAccelResponse{
			Accel:    string(info.Accel),
			Encoder:  info.Encoder,
			Device:   info.Device,
			Hardware: info.Hardware(),
		},
	}
}

// ListSessionsInput is the input for the session listing endpoint.
type ListSessionsInput struct{}

// ListSessionsOutput is the output for the session listing endpoint.
type ListSessionsOutput struct {
	Body struct {
		Sessions []SessionResponse `json:"sessions"`
	}
}

// SessionResponse is the API shape of a transcode session.
type SessionResponse struct {
	ID           string `json:"id"`
	AssetKey     string `json:"asset_key"`
	StartSegment int    `json:"start_segment"`
	CreatedAt    string `json:"created_at"`
}

// ListSessions returns all live transcode sessions.
func (h *SystemHandler) ListSessions(ctx context.Context, _ *ListSessionsInput) (*ListSessionsOutput, error) {
	sessions := h.registry.Sessions()

	resp := &ListSessionsOutput{}
	resp.Body.Sessions = make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp.Body.Sessions = append(resp.Body.Sessions, SessionResponse{
			ID:           s.ID,
			AssetKey:     s.AssetKey,
			StartSegment: s.StartSegment,
			CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}
