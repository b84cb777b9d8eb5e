package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

const levelClose = slog.Level(64)

var (
	level   = new(slog.LevelVar)
	current atomic.Pointer[slog.Logger]
)

func init() {
	level.Set(slog.LevelWarn)
	SetOutput(os.Stderr)
}

// SetOutput redirects log records to w.
func SetOutput(w io.Writer) {
	current.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// SetLevel accepts debug, info, warn, error or close.
func SetLevel(lv string) {
	switch strings.ToLower(strings.TrimSpace(lv)) {
	case "all", "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	case "close", "off":
		level.Set(levelClose)
	default:
		current.Load().Warn("unknown log level, keeping warn", "level", lv)
		level.Set(slog.LevelWarn)
	}
}

func Enabled(lv slog.Level) bool { return level.Level() <= lv }

func Debug(msg string, args ...any) { current.Load().Debug(msg, args...) }

func Info(msg string, args ...any) { current.Load().Info(msg, args...) }

func Warn(msg string, args ...any) { current.Load().Warn(msg, args...) }

func Error(msg string, args ...any) { current.Load().Error(msg, args...) }
