package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the process-wide slog logger. Records always go to stdout as
// JSON; when logFile is set they are also written to a size-rotated file.
// The returned handler is the base that later sinks get fanned out from.
func Setup(logFile string) slog.Handler {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	if logFile != "" {
		handler = NewMultiHandler(handler, slog.NewJSONHandler(RotatingWriter(logFile), &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	slog.SetDefault(slog.New(handler))
	return handler
}

// RotatingWriter returns a writer that rotates the file at 50MB and keeps a
// week of compressed backups.
func RotatingWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   true,
	}
}
