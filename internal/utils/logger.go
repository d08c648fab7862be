// internal/utils/logger.go

package utils

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging throughout the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogConfig controls the process-wide logger.
type LogConfig struct {
	Level  string    `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string    `yaml:"format" validate:"omitempty,oneof=console json"`
	Output io.Writer `yaml:"-"`
}

var (
	baseMu     sync.RWMutex
	baseLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
)

// InitLogging replaces the process-wide logger used by NewLogger and
// NewComponentLogger. Unknown levels fall back to info.
func InitLogging(cfg LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	baseMu.Lock()
	baseLogger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	baseMu.Unlock()
}

// ZeroLogger adapts zerolog to the Logger interface. Unless pinned to a
// fixed zerolog instance it resolves the process-wide logger on every call,
// so loggers created before InitLogging still follow the configured level,
// format and output.
type ZeroLogger struct {
	pinned *zerolog.Logger
	fields map[string]interface{}
}

// NewLogger returns a logger writing through the process-wide zerolog instance.
func NewLogger() Logger {
	return &ZeroLogger{}
}

// NewComponentLogger returns a logger tagged with a component name.
func NewComponentLogger(name string) Logger {
	return &ZeroLogger{fields: map[string]interface{}{"component": name}}
}

// NewNopLogger discards everything. Used by tests and library callers that
// do not care about output.
func NewNopLogger() Logger {
	nop := zerolog.Nop()
	return &ZeroLogger{pinned: &nop}
}

func (l *ZeroLogger) zl() zerolog.Logger {
	var base zerolog.Logger
	if l.pinned != nil {
		base = *l.pinned
	} else {
		baseMu.RLock()
		base = baseLogger
		baseMu.RUnlock()
	}
	if len(l.fields) == 0 {
		return base
	}
	return base.With().Fields(l.fields).Logger()
}

func (l *ZeroLogger) Debug(msg string) { l.Debugf("%s", msg) }

func (l *ZeroLogger) Debugf(format string, args ...interface{}) {
	zl := l.zl()
	zl.Debug().Msgf(format, args...)
}

func (l *ZeroLogger) Info(msg string) { l.Infof("%s", msg) }

func (l *ZeroLogger) Infof(format string, args ...interface{}) {
	zl := l.zl()
	zl.Info().Msgf(format, args...)
}

func (l *ZeroLogger) Warn(msg string) { l.Warnf("%s", msg) }

func (l *ZeroLogger) Warnf(format string, args ...interface{}) {
	zl := l.zl()
	zl.Warn().Msgf(format, args...)
}

func (l *ZeroLogger) Error(msg string) { l.Errorf("%s", msg) }

func (l *ZeroLogger) Errorf(format string, args ...interface{}) {
	zl := l.zl()
	zl.Error().Msgf(format, args...)
}

func (l *ZeroLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *ZeroLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ZeroLogger{pinned: l.pinned, fields: merged}
}
