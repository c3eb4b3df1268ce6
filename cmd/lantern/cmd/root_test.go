package cmd

import (
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggingTestCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "lantern"}
	cmd.PersistentFlags().String("log-level", "", "")
	cmd.PersistentFlags().String("log-format", "", "")
	return cmd
}

func TestInitLogging_Defaults(t *testing.T) {
	require.NoError(t, initLogging(loggingTestCmd(t)))

	ctx := context.Background()
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelInfo))
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelDebug))
}

func TestInitLogging_FlagOverridesLevel(t *testing.T) {
	cmd := loggingTestCmd(t)
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "WARNING"))

	require.NoError(t, initLogging(cmd))

	ctx := context.Background()
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelWarn))
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelInfo))
}

// The root command's pre-run must run end to end; it resolves flags off
// the command it receives rather than the package-level variable.
func TestRootCommand_PreRun(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentPreRunE)
	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
}
