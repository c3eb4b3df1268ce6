// Package cmd implements the CLI commands for lantern.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/henosis-us/lantern/internal/config"
	"github.com/henosis-us/lantern/internal/observability"
	"github.com/henosis-us/lantern/internal/version"
)

// cfgFile holds the config file path from the --config flag.
var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "lantern",
	Short:   "Self-hosted media server with on-demand transcoding",
	Version: version.Short(),
	Long: `lantern scans your movie and TV libraries, matches them against TMDB,
and streams them to any browser. Files the client can play natively are
served directly with range support; everything else is transcoded to
HLS on the fly, starting at the requested seek point.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initLogging(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	// These flags are read directly rather than bound to viper so that
	// the priority stays flag > env > config file > default.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., ./configs, /etc/lantern, $HOME/.lantern)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
}

// initLogging configures the default slog logger before any command runs.
func initLogging(cmd *cobra.Command) error {
	logCfg := config.LoggingConfig{Level: "info", Format: "json"}

	if env := os.Getenv("LANTERN_LOGGING_LEVEL"); env != "" {
		logCfg.Level = env
	}
	if env := os.Getenv("LANTERN_LOGGING_FORMAT"); env != "" {
		logCfg.Format = env
	}
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("log-level") {
		logCfg.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		logCfg.Format, _ = flags.GetString("log-format")
	}

	logCfg.Level = strings.ToLower(logCfg.Level)
	if logCfg.Level == "warning" {
		logCfg.Level = "warn"
	}

	logger := observability.NewLoggerWithWriter(logCfg, os.Stderr)
	observability.SetDefault(logger)
	return nil
}
