package obs

import (
	"log/slog"
	"os"
)

// SetupLogging installs the process-wide slog handler. Verbose enables
// debug-level output. The handler writes to stderr so command output on
// stdout stays machine-readable.
func SetupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
