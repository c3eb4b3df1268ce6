// Package startup provides utilities for application startup tasks.
package startup

import (
	"log/slog"
	"os"
	"path/filepath"
)

// CleanupStaleSessionDirs removes leftover HLS session directories under
// hlsDir. Transcode sessions do not survive a restart, so anything found
// here was orphaned by a crash or unclean shutdown.
//
// Returns the number of directories removed.
func CleanupStaleSessionDirs(logger *slog.Logger, hlsDir string) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(hlsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var removed int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(hlsDir, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove stale session directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}
	return removed, nil
}
