package ffmpeg

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Accel identifies a hardware acceleration backend for H.264 encoding.
type Accel string

const (
	AccelNVENC        Accel = "nvenc"
	AccelQSV          Accel = "qsv"
	AccelVAAPI        Accel = "vaapi"
	AccelVideoToolbox Accel = "videotoolbox"
	AccelSoftware     Accel = "software"
)

// Encoder returns the FFmpeg H.264 encoder name for this backend.
func (a Accel) Encoder() string {
	switch a {
	case AccelNVENC:
		return "h264_nvenc"
	case AccelQSV:
		return "h264_qsv"
	case AccelVAAPI:
		return "h264_vaapi"
	case AccelVideoToolbox:
		return "h264_videotoolbox"
	default:
		return "libx264"
	}
}

// AccelInfo is the outcome of hardware acceleration detection.
type AccelInfo struct {
	Accel   Accel  `json:"accel"`
	Encoder string `json:"encoder"`
	Device  string `json:"device,omitempty"`
}

// Hardware returns true if a hardware encoder was selected.
func (i AccelInfo) Hardware() bool {
	return i.Accel != AccelSoftware && i.Accel != ""
}

// accelPriority is the probe order. The first backend whose test encode
// succeeds wins; libx264 is the unconditional fallback.
var accelPriority = []Accel{AccelNVENC, AccelQSV, AccelVAAPI, AccelVideoToolbox}

// AccelDetector probes for a working hardware H.264 encoder. Detection runs
// a tiny real encode per candidate, so the result reflects what the driver
// stack can actually do, not just what ffmpeg was compiled with. The result
// is cached for the process lifetime; Refresh re-runs detection on demand
// (for example after a GPU driver install).
type AccelDetector struct {
	ffmpegPath string
	logger     *slog.Logger

	mu   sync.RWMutex
	info *AccelInfo
}

// NewAccelDetector creates a detector bound to the given ffmpeg binary.
func NewAccelDetector(ffmpegPath string, logger *slog.Logger) *AccelDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccelDetector{
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// Best returns the best available backend, running detection on first use.
func (d *AccelDetector) Best(ctx context.Context) AccelInfo {
	d.mu.RLock()
	if d.info != nil {
		info := *d.info
		d.mu.RUnlock()
		return info
	}
	d.mu.RUnlock()
	return d.Refresh(ctx)
}

// Refresh discards any cached result and re-runs detection.
func (d *AccelDetector) Refresh(ctx context.Context) AccelInfo {
	info := d.detect(ctx)

	d.mu.Lock()
	d.info = &info
	d.mu.Unlock()

	if info.Hardware() {
		d.logger.Info("hardware encoder selected",
			slog.String("accel", string(info.Accel)),
			slog.String("encoder", info.Encoder),
			slog.String("device", info.Device))
	} else {
		d.logger.Info("no hardware encoder available, using libx264")
	}
	return info
}

func (d *AccelDetector) detect(ctx context.Context) AccelInfo {
	for _, accel := range accelPriority {
		if device, ok := d.test(ctx, accel); ok {
			return AccelInfo{Accel: accel, Encoder: accel.Encoder(), Device: device}
		}
	}
	return AccelInfo{Accel: AccelSoftware, Encoder: AccelSoftware.Encoder()}
}

// test checks one backend with a short synthetic encode.
func (d *AccelDetector) test(ctx context.Context, accel Accel) (string, bool) {
	switch accel {
	case AccelNVENC:
		device := nvidiaDeviceName(ctx)
		if device == "" {
			return "", false
		}
		if !d.testEncode(ctx, nil, accel.Encoder()) {
			return "", false
		}
		return device, true

	case AccelQSV:
		if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
			return "", false
		}
		args := []string{
			"-init_hw_device", "qsv=hw",
			"-filter_hw_device", "hw",
		}
		if !d.testEncodeFiltered(ctx, args, "hwupload=extra_hw_frames=64,format=qsv", accel.Encoder()) {
			return "", false
		}
		return "Intel Quick Sync", true

	case AccelVAAPI:
		if runtime.GOOS != "linux" {
			return "", false
		}
		for _, device := range renderDevices() {
			args := []string{"-vaapi_device", device}
			if d.testEncodeFiltered(ctx, args, "format=nv12,hwupload", accel.Encoder()) {
				return device, true
			}
		}
		return "", false

	case AccelVideoToolbox:
		if runtime.GOOS != "darwin" {
			return "", false
		}
		if !d.testEncode(ctx, nil, accel.Encoder()) {
			return "", false
		}
		return "Apple VideoToolbox", true
	}
	return "", false
}

// testEncode runs a 0.01s encode of a synthetic source through encoder.
func (d *AccelDetector) testEncode(ctx context.Context, preArgs []string, encoder string) bool {
	return d.testEncodeFiltered(ctx, preArgs, "", encoder)
}

// encodeTestTimeout bounds each probe encode. A wedged driver stack would
// otherwise hang detection, and with it server startup.
const encodeTestTimeout = 10 * time.Second

func (d *AccelDetector) testEncodeFiltered(ctx context.Context, preArgs []string, filter, encoder string) bool {
	ctx, cancel := context.WithTimeout(ctx, encodeTestTimeout)
	defer cancel()

	args := []string{"-hide_banner"}
	args = append(args, preArgs...)
	args = append(args, "-f", "lavfi", "-i", "nullsrc=s=320x240:d=0.1")
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, "-c:v", encoder, "-t", "0.01", "-f", "null", "-")

	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	if err := cmd.Run(); err != nil {
		d.logger.Debug("encoder test failed",
			slog.String("encoder", encoder),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// nvidiaDeviceName returns the first GPU name reported by nvidia-smi, or ""
// when no NVIDIA GPU is visible.
func nvidiaDeviceName(ctx context.Context) string {
	cmd := exec.CommandContext(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Split(string(output), "\n")[0])
}

// renderDevices lists candidate DRM render nodes for VA-API.
func renderDevices() []string {
	candidates := []string{"/dev/dri/renderD128", "/dev/dri/renderD129"}
	var present []string
	for _, device := range candidates {
		if _, err := os.Stat(device); err == nil {
			present = append(present, device)
		}
	}
	return present
}
