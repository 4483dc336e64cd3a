// Package logger holds the process-wide zap logger. Until Configure runs it
// discards everything, so packages may log from init paths and tests.
package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Options tunes the global logger.
type Options struct {
	Level    string // debug, info, warn, error; anything else means info
	Encoding string // json (default) or console
}

// ParseLevel maps a level name onto zap, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Init configures JSON logging at level.
func Init(level string) error {
	return Configure(Options{Level: level})
}

// Configure installs a logger writing to stderr. Errors and above carry a
// stack trace.
func Configure(opts Options) error {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(strings.TrimSpace(opts.Encoding), "console") {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(ParseLevel(opts.Level)))
	Replace(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))
	return nil
}

// Replace swaps the global logger; nil installs a no-op logger.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

// Logger returns the global logger.
func Logger() *zap.Logger {
	return global.Load()
}

// Sync flushes buffered entries.
func Sync() error {
	return Logger().Sync()
}

// WithModule tags entries with the emitting subsystem.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// WithTeam tags entries with the subsystem and the team they concern.
func WithTeam(module, teamID string) *zap.Logger {
	return WithModule(module).With(zap.String("team_id", teamID))
}
