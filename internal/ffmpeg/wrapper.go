package ffmpeg

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"
)

// CommandBuilder assembles FFmpeg command-line arguments. Argument order
// matters to FFmpeg: global flags, then per-input flags, then the input,
// then filters and output options, then the output target.
type CommandBuilder struct {
	ffmpegPath    string
	globalArgs    []string
	inputArgs     []string
	input         string
	filters       []string
	outputArgs    []string
	output        string
	stderrLogPath string
}

// NewCommandBuilder creates a builder for the given ffmpeg binary.
func NewCommandBuilder(ffmpegPath string) *CommandBuilder {
	return &CommandBuilder{
		ffmpegPath: ffmpegPath,
	}
}

// HideBanner suppresses the FFmpeg startup banner.
func (b *CommandBuilder) HideBanner() *CommandBuilder {
	b.globalArgs = append(b.globalArgs, "-hide_banner")
	return b
}

// LogLevel sets the FFmpeg log level (e.g. "error", "warning", "info").
func (b *CommandBuilder) LogLevel(level string) *CommandBuilder {
	b.globalArgs = append(b.globalArgs, "-loglevel", level)
	return b
}

// Overwrite allows FFmpeg to overwrite existing output files.
func (b *CommandBuilder) Overwrite() *CommandBuilder {
	b.globalArgs = append(b.globalArgs, "-y")
	return b
}

// InputArgs appends arguments that must precede -i (seek, demuxer options).
func (b *CommandBuilder) InputArgs(args ...string) *CommandBuilder {
	b.inputArgs = append(b.inputArgs, args...)
	return b
}

// SeekTo seeks the input to the given offset before decoding.
func (b *CommandBuilder) SeekTo(seconds float64) *CommandBuilder {
	if seconds > 0 {
		b.inputArgs = append(b.inputArgs,
			"-ss", strconv.FormatFloat(seconds, 'f', 3, 64),
			"-avoid_negative_ts", "make_zero",
		)
	}
	return b
}

// Input sets the input file.
func (b *CommandBuilder) Input(path string) *CommandBuilder {
	b.input = path
	return b
}

// StopAt bounds decoding at the given absolute input timestamp. The flag
// must precede -i: as an output option after an input seek it would be
// compared against output timestamps, which restart at zero.
func (b *CommandBuilder) StopAt(seconds float64) *CommandBuilder {
	b.inputArgs = append(b.inputArgs, "-to", strconv.FormatFloat(seconds, 'f', 3, 64))
	return b
}

// VideoFilter appends a video filter; multiple filters are joined with
// commas in the order added.
func (b *CommandBuilder) VideoFilter(filter string) *CommandBuilder {
	if filter != "" {
		b.filters = append(b.filters, filter)
	}
	return b
}

// VideoCodec sets the video encoder.
func (b *CommandBuilder) VideoCodec(codec string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-c:v", codec)
	return b
}

// VideoPreset sets the encoder preset.
func (b *CommandBuilder) VideoPreset(preset string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-preset", preset)
	return b
}

// CRF sets the constant rate factor.
func (b *CommandBuilder) CRF(crf int) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-crf", strconv.Itoa(crf))
	return b
}

// PixelFormat sets the output pixel format.
func (b *CommandBuilder) PixelFormat(format string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-pix_fmt", format)
	return b
}

// AudioCodec sets the audio encoder ("copy" to passthrough).
func (b *CommandBuilder) AudioCodec(codec string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-c:a", codec)
	return b
}

// AudioBitrate sets the audio bitrate (e.g. "128k").
func (b *CommandBuilder) AudioBitrate(bitrate string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-b:a", bitrate)
	return b
}

// AudioChannels sets the output channel count.
func (b *CommandBuilder) AudioChannels(channels int) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-ac", strconv.Itoa(channels))
	return b
}

// OutputArgs appends raw output arguments.
func (b *CommandBuilder) OutputArgs(args ...string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, args...)
	return b
}

// Output sets the output target (file path or pattern).
func (b *CommandBuilder) Output(target string) *CommandBuilder {
	b.output = target
	return b
}

// StderrLogPath enables capturing FFmpeg's stderr to a log file.
func (b *CommandBuilder) StderrLogPath(path string) *CommandBuilder {
	b.stderrLogPath = path
	return b
}

// Build assembles the final argument list.
func (b *CommandBuilder) Build() []string {
	args := make([]string, 0, len(b.globalArgs)+len(b.inputArgs)+len(b.outputArgs)+8)
	args = append(args, b.globalArgs...)
	args = append(args, b.inputArgs...)
	if b.input != "" {
		args = append(args, "-i", b.input)
	}
	if len(b.filters) > 0 {
		joined := b.filters[0]
		for _, f := range b.filters[1:] {
			joined += "," + f
		}
		args = append(args, "-vf", joined)
	}
	args = append(args, b.outputArgs...)
	if b.output != "" {
		args = append(args, b.output)
	}
	return args
}

// Command creates a runnable Command from the built arguments.
func (b *CommandBuilder) Command() *Command {
	return &Command{
		ffmpegPath:    b.ffmpegPath,
		args:          b.Build(),
		stderrLogPath: b.stderrLogPath,
	}
}

// stderrRingSize is how many recent stderr lines are kept in memory for
// error reporting when a process dies.
const stderrRingSize = 100

// Command is a running (or runnable) FFmpeg process.
type Command struct {
	ffmpegPath    string
	args          []string
	stderrLogPath string

	mu        sync.Mutex
	cmd       *exec.Cmd
	startedAt time.Time
	waitOnce  sync.Once
	waitErr   error
	stderrWG  sync.WaitGroup

	stderrMu    sync.Mutex
	stderrLines []string
}

// Args returns the argument list the process was (or will be) started with.
func (c *Command) Args() []string {
	return c.args
}

// Start launches the FFmpeg process without waiting for it.
func (c *Command) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return fmt.Errorf("command already started")
	}

	cmd := exec.Command(c.ffmpegPath, c.args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	c.cmd = cmd
	c.startedAt = time.Now()

	c.stderrWG.Add(1)
	go c.captureStderr(stderr)

	return nil
}

// Wait blocks until the process exits. Safe to call from multiple
// goroutines; all callers observe the same result.
func (c *Command) Wait() error {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()

	if cmd == nil {
		return fmt.Errorf("command not started")
	}

	c.waitOnce.Do(func() {
		c.stderrWG.Wait()
		c.waitErr = cmd.Wait()
	})
	return c.waitErr
}

// Run starts the process and waits for completion.
func (c *Command) Run() error {
	if err := c.Start(); err != nil {
		return err
	}
	return c.Wait()
}

// Signal sends sig to the running process.
func (c *Command) Signal(sig syscall.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil || c.cmd.Process == nil {
		return fmt.Errorf("command not started")
	}
	return c.cmd.Process.Signal(sig)
}

// Terminate asks the process to exit cleanly (SIGTERM).
func (c *Command) Terminate() error {
	return c.Signal(syscall.SIGTERM)
}

// Kill force-kills the process.
func (c *Command) Kill() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil || c.cmd.Process == nil {
		return fmt.Errorf("command not started")
	}
	return c.cmd.Process.Kill()
}

// IsRunning returns true while the process is alive.
func (c *Command) IsRunning() bool {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return cmd.Process.Signal(syscall.Signal(0)) == nil
}

// PID returns the process ID, or 0 if not started.
func (c *Command) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Duration returns how long the process has been running.
func (c *Command) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.startedAt.IsZero() {
		return 0
	}
	return time.Since(c.startedAt)
}

// GetStderrLines returns the most recent stderr lines.
func (c *Command) GetStderrLines() []string {
	c.stderrMu.Lock()
	defer c.stderrMu.Unlock()

	lines := make([]string, len(c.stderrLines))
	copy(lines, c.stderrLines)
	return lines
}

// captureStderr drains the stderr pipe into the ring buffer and, when
// configured, appends every line to the session log file.
func (c *Command) captureStderr(r interface{ Read([]byte) (int, error) }) {
	defer c.stderrWG.Done()

	var logFile *os.File
	if c.stderrLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.stderrLogPath), 0o755); err == nil {
			f, err := os.OpenFile(c.stderrLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				logFile = f
				fmt.Fprintf(logFile, "=== FFmpeg session started %s ===\n", time.Now().Format(time.RFC3339))
			}
		}
	}
	if logFile != nil {
		defer func() {
			fmt.Fprintf(logFile, "=== FFmpeg session ended %s ===\n", time.Now().Format(time.RFC3339))
			logFile.Close()
		}()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		c.stderrMu.Lock()
		c.stderrLines = append(c.stderrLines, line)
		if len(c.stderrLines) > stderrRingSize {
			c.stderrLines = c.stderrLines[len(c.stderrLines)-stderrRingSize:]
		}
		c.stderrMu.Unlock()

		if logFile != nil {
			fmt.Fprintln(logFile, line)
		}
	}
}
