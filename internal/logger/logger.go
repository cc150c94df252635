// Package logger provides the process-wide zerolog logger and component children.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the logger.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// FromEnv reads LINESIEVE_LOG_LEVEL and LINESIEVE_LOG_FORMAT.
func FromEnv() Options {
	return Options{
		Level:  envOr("LINESIEVE_LOG_LEVEL", "info"),
		Format: envOr("LINESIEVE_LOG_FORMAT", "console"),
	}
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Logger is the project-wide logging type.
type Logger = zerolog.Logger

// Init configures zerolog and builds the root logger, safe to call once.
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stderr
		if opt.Writer != nil {
			w = opt.Writer
		}
		if strings.ToLower(opt.Format) == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		log := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp().Str("app", "line-sieve").Logger()
		root.Store(&log)
	})
}

// Get returns the root logger, initializing from env on first use.
func Get() *Logger {
	if root.Load() == nil {
		Init(FromEnv())
	}
	return root.Load()
}

// Named returns a child logger with a component field.
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}

// Nop returns a disabled logger for tests and optional wiring.
func Nop() *Logger {
	l := zerolog.Nop()
	return &l
}

// parseLevel supports string-only levels
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
