package logging

import (
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	slog.SetDefault(slog.New(stdoutHandler()))
}

// AttachDB fans ERROR+ records out to the system_logs table as well as
// stdout. pg must be stopped on shutdown.
func AttachDB(pg *PGHandler) {
	slog.SetDefault(slog.New(NewMultiHandler(stdoutHandler(), pg)))
}

func stdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
