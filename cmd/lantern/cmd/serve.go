package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/henosis-us/lantern/internal/config"
	"github.com/henosis-us/lantern/internal/database"
	"github.com/henosis-us/lantern/internal/ffmpeg"
	internalhttp "github.com/henosis-us/lantern/internal/http"
	"github.com/henosis-us/lantern/internal/http/handlers"
	"github.com/henosis-us/lantern/internal/identity"
	"github.com/henosis-us/lantern/internal/observability"
	"github.com/henosis-us/lantern/internal/repository"
	"github.com/henosis-us/lantern/internal/scanner"
	"github.com/henosis-us/lantern/internal/scheduler"
	"github.com/henosis-us/lantern/internal/startup"
	"github.com/henosis-us/lantern/internal/stream"
	"github.com/henosis-us/lantern/internal/tmdb"
	"github.com/henosis-us/lantern/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lantern server",
	Long: `Start the lantern HTTP server.

The server provides:
- REST API for libraries, movies, series, playback and watch history
- Direct-play and HLS transcode streaming endpoints
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Host to bind to")
	serveCmd.Flags().Int("port", 0, "Port to listen on")
	serveCmd.Flags().String("data-dir", "", "Base directory for HLS segments, subtitles and logs")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyServeFlags(cmd, cfg)

	// Rebuild the logger now that file and env settings are known.
	logger := observability.NewLoggerWithWriter(cfg.Logging, os.Stderr)
	observability.SetDefault(logger)
	observability.SetRequestLoggingEnabled(cfg.Logging.RequestLogging)

	hlsDir := filepath.Join(cfg.Storage.BaseDir, cfg.Storage.HLSDir)
	subtitleDir := filepath.Join(cfg.Storage.BaseDir, cfg.Storage.SubtitleDir)
	logDir := filepath.Join(cfg.Storage.BaseDir, cfg.Storage.LogDir)
	for _, dir := range []string{hlsDir, subtitleDir, logDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating storage directory %s: %w", dir, err)
		}
	}

	if removed, err := startup.CleanupStaleSessionDirs(logger, hlsDir); err != nil {
		logger.Warn("failed to clean stale session directories", slog.String("error", err.Error()))
	} else if removed > 0 {
		logger.Info("cleaned stale session directories on startup", slog.Int("removed", removed))
	}

	db, err := database.New(cfg.Database, logger, nil)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	libraryRepo := repository.NewLibraryRepository(db.DB)
	movieRepo := repository.NewMovieRepository(db.DB)
	seriesRepo := repository.NewSeriesRepository(db.DB)
	episodeRepo := repository.NewEpisodeRepository(db.DB)
	subtitleRepo := repository.NewSubtitleRepository(db.DB)
	historyRepo := repository.NewWatchHistoryRepository(db.DB)
	settingRepo := repository.NewServerSettingRepository(db.DB)

	startupCtx, cancelStartup := context.WithCancel(context.Background())
	defer cancelStartup()

	// FFmpeg discovery honors explicit paths from config.
	if cfg.FFmpeg.BinaryPath != "" {
		os.Setenv("LANTERN_FFMPEG_BINARY", cfg.FFmpeg.BinaryPath)
	}
	if cfg.FFmpeg.ProbePath != "" {
		os.Setenv("LANTERN_FFPROBE_BINARY", cfg.FFmpeg.ProbePath)
	}
	binaries := ffmpeg.NewBinaryDetector()
	binaryInfo, err := binaries.Detect(startupCtx)
	if err != nil {
		return fmt.Errorf("locating ffmpeg: %w", err)
	}
	logger.Info("ffmpeg detected",
		slog.String("path", binaryInfo.FFmpegPath),
		slog.String("version", binaryInfo.Version),
	)

	accelDetector := ffmpeg.NewAccelDetector(binaryInfo.FFmpegPath, logger)
	accelInfo := ffmpeg.AccelInfo{Accel: ffmpeg.AccelSoftware, Encoder: ffmpeg.AccelSoftware.Encoder()}
	// The driver re-reads its accel source per encode, so a manual
	// re-probe via the system API applies to later sessions.
	var accelSource stream.AccelSource = stream.StaticAccel(accelInfo)
	if cfg.FFmpeg.HWAccel {
		accelInfo = accelDetector.Best(startupCtx)
		accelSource = accelDetector
	}
	logger.Info("encoder selected",
		slog.String("accel", string(accelInfo.Accel)),
		slog.String("encoder", accelInfo.Encoder),
	)

	prober := ffmpeg.NewProber(binaryInfo.FFprobePath)

	registry := stream.NewRegistry(hlsDir, cfg.Streaming.SessionGracePeriod, cfg.Streaming.MaxConcurrentSessions, logger)
	driver := stream.NewDriver(binaryInfo.FFmpegPath, accelSource, logDir, cfg.Streaming.SegmentDuration, cfg.Streaming.EncodeWindow, logger)
	streamService := stream.NewService(cfg.Streaming, prober, driver, registry, logger)

	identityClient := identity.NewClient(cfg.Identity.URL, cfg.Identity.Timeout, logger)
	identityService := identity.NewService(identityClient, settingRepo, logger)

	metadataClient := tmdb.New(cfg.TMDB.BaseURL, cfg.TMDB.APIKey, cfg.TMDB.Timeout, logger)
	libraryScanner := scanner.New(libraryRepo, movieRepo, seriesRepo, episodeRepo, prober, metadataClient, logger)

	sched := scheduler.New(logger)
	if cfg.Scanner.Enabled {
		if err := sched.AddJob("library-scan", cfg.Scanner.Cron, func() {
			if err := libraryScanner.ScanAll(context.Background()); err != nil {
				logger.Error("scheduled scan failed", slog.String("error", err.Error()))
			}
		}); err != nil {
			return fmt.Errorf("scheduling library scan: %w", err)
		}
	}
	heartbeatSpec := fmt.Sprintf("@every %s", cfg.Identity.HeartbeatInterval)
	if err := sched.AddJob("identity-heartbeat", heartbeatSpec, func() {
		identityService.Heartbeat(context.Background())
	}); err != nil {
		return fmt.Errorf("scheduling heartbeat: %w", err)
	}

	serverConfig := internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
	}
	server := internalhttp.NewServer(serverConfig, identityService, logger, version.Version)

	healthHandler := handlers.NewHealthHandler(version.Version, db.DB)
	healthHandler.Register(server.API())

	systemHandler := handlers.NewSystemHandler(binaries, accelDetector, registry)
	systemHandler.Register(server.API())

	libraryHandler := handlers.NewLibraryHandler(libraryRepo, libraryScanner, logger)
	libraryHandler.Register(server.API())

	movieHandler := handlers.NewMovieHandler(movieRepo)
	movieHandler.Register(server.API())

	seriesHandler := handlers.NewSeriesHandler(seriesRepo, episodeRepo)
	seriesHandler.Register(server.API())

	historyHandler := handlers.NewHistoryHandler(historyRepo)
	historyHandler.Register(server.API())

	subtitleHandler := handlers.NewSubtitleHandler(subtitleRepo)
	subtitleHandler.Register(server.API())
	subtitleHandler.RegisterRoutes(server.Router())

	identityHandler := handlers.NewIdentityHandler(identityService)
	identityHandler.Register(server.API())

	metadataHandler := handlers.NewMetadataHandler(metadataClient)
	metadataHandler.Register(server.API())

	streamHandler := handlers.NewStreamHandler(streamService, movieRepo, episodeRepo, subtitleRepo, logger)
	streamHandler.Register(server.API())
	streamHandler.RegisterRoutes(server.Router())

	sched.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting lantern server",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.String("version", version.Version),
	)

	err = server.ListenAndServe(ctx)

	sched.Stop()
	streamService.Shutdown()

	return err
}

// applyServeFlags overlays explicitly-set CLI flags onto the loaded config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Storage.BaseDir, _ = cmd.Flags().GetString("data-dir")
	}
}
