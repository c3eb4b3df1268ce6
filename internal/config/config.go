// Package config provides configuration management for lantern using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute

	defaultSegmentDuration    = 10 * time.Second
	defaultInitialBuffer      = 30 * time.Second
	defaultEncodeWindow       = 15 * time.Minute
	defaultSessionGracePeriod = 5 * time.Second
	defaultSegmentTimeout     = 60 * time.Second
	defaultSeekBufferTimeout  = 20 * time.Second
	defaultPollInterval       = 250 * time.Millisecond
	defaultMinSegmentSize     = 32 * 1024

	defaultHTTPTimeout       = 60 * time.Second
	defaultHeartbeatInterval = 5 * time.Minute
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	FFmpeg    FFmpegConfig    `mapstructure:"ffmpeg"`
	Streaming StreamingConfig `mapstructure:"streaming"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	BaseDir     string `mapstructure:"base_dir"`
	HLSDir      string `mapstructure:"hls_dir"`
	SubtitleDir string `mapstructure:"subtitle_dir"`
	LogDir      string `mapstructure:"log_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`  // debug, info, warn, error
	Format         string `mapstructure:"format"` // json, text
	AddSource      bool   `mapstructure:"add_source"`
	TimeFormat     string `mapstructure:"time_format"`
	RequestLogging bool   `mapstructure:"request_logging"` // Log successful HTTP requests, not just errors
}

// FFmpegConfig holds FFmpeg binary configuration.
type FFmpegConfig struct {
	BinaryPath string `mapstructure:"binary_path"` // Path to ffmpeg binary (empty = auto-detect)
	ProbePath  string `mapstructure:"probe_path"`  // Path to ffprobe binary (empty = auto-detect)
	HWAccel    bool   `mapstructure:"hwaccel"`     // Detect and use hardware encoders
}

// StreamingConfig holds transcode and segment delivery configuration.
type StreamingConfig struct {
	SegmentDuration time.Duration `mapstructure:"segment_duration"`
	InitialBuffer   time.Duration `mapstructure:"initial_buffer"`
	EncodeWindow    time.Duration `mapstructure:"encode_window"`
	// MaxConcurrentSessions caps live transcode sessions (0 = unlimited).
	MaxConcurrentSessions int           `mapstructure:"max_concurrent_sessions"`
	SessionGracePeriod    time.Duration `mapstructure:"session_grace_period"`
	SegmentTimeout        time.Duration `mapstructure:"segment_timeout"`
	SeekBufferTimeout     time.Duration `mapstructure:"seek_buffer_timeout"`
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	// MinSegmentSize is the smallest segment size considered playable.
	// Supports human-readable values like "32KB" or raw byte counts.
	MinSegmentSize ByteSize `mapstructure:"min_segment_size"`
}

// ScannerConfig holds library scan configuration.
type ScannerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"` // 6-field cron expression
}

// IdentityConfig holds identity service configuration.
type IdentityConfig struct {
	URL               string        `mapstructure:"url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with LANTERN_ and use underscores for nesting.
// Example: LANTERN_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lantern")
		v.AddConfigPath("$HOME/.lantern")
	}

	// Environment variable settings
	v.SetEnvPrefix("LANTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "lantern.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Storage defaults
	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.hls_dir", "hls")
	v.SetDefault("storage.subtitle_dir", "subtitles")
	v.SetDefault("storage.log_dir", "logs")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)
	v.SetDefault("logging.request_logging", true)

	// FFmpeg defaults
	v.SetDefault("ffmpeg.binary_path", "")
	v.SetDefault("ffmpeg.probe_path", "")
	v.SetDefault("ffmpeg.hwaccel", true)

	// Streaming defaults
	v.SetDefault("streaming.segment_duration", defaultSegmentDuration)
	v.SetDefault("streaming.initial_buffer", defaultInitialBuffer)
	v.SetDefault("streaming.encode_window", defaultEncodeWindow)
	v.SetDefault("streaming.max_concurrent_sessions", 0)
	v.SetDefault("streaming.session_grace_period", defaultSessionGracePeriod)
	v.SetDefault("streaming.segment_timeout", defaultSegmentTimeout)
	v.SetDefault("streaming.seek_buffer_timeout", defaultSeekBufferTimeout)
	v.SetDefault("streaming.poll_interval", defaultPollInterval)
	v.SetDefault("streaming.min_segment_size", defaultMinSegmentSize)

	// Scanner defaults
	v.SetDefault("scanner.enabled", true)
	v.SetDefault("scanner.cron", "0 0 3 * * *") // Daily at 3 AM (6-field cron)

	// Identity defaults
	v.SetDefault("identity.url", "https://identity.henosis.us")
	v.SetDefault("identity.timeout", defaultHTTPTimeout)
	v.SetDefault("identity.heartbeat_interval", defaultHeartbeatInterval)

	// TMDB defaults
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.timeout", defaultHTTPTimeout)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	// Database validation
	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	// Storage validation
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	// Streaming validation
	if c.Streaming.SegmentDuration < time.Second {
		return fmt.Errorf("streaming.segment_duration must be at least 1s")
	}
	if c.Streaming.MaxConcurrentSessions < 0 {
		return fmt.Errorf("streaming.max_concurrent_sessions must not be negative")
	}
	if c.Streaming.PollInterval <= 0 {
		return fmt.Errorf("streaming.poll_interval must be positive")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HLSPath returns the full path to the HLS output directory.
func (c *StorageConfig) HLSPath() string {
	return filepath.Join(c.BaseDir, c.HLSDir)
}

// SubtitlePath returns the full path to the subtitle cache directory.
func (c *StorageConfig) SubtitlePath() string {
	return filepath.Join(c.BaseDir, c.SubtitleDir)
}

// LogPath returns the full path to the ffmpeg log directory.
func (c *StorageConfig) LogPath() string {
	return filepath.Join(c.BaseDir, c.LogDir)
}
