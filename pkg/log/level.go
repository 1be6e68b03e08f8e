package log

import (
	"fmt"
	"log/slog"

	"github.com/levenlabs/go-llog"
)

// SyncLevel copies the level lflag set on llog into the default logger and
// installs it as the slog default. It must run after lflag.Configure.
func SyncLevel() slog.Level {
	var level slog.Level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
	SetDefaultLogLevel(level)
	slog.SetDefault(defaultLogger)
	return level
}
