package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards everything until Init is called.
var Log = zap.NewNop()

var level = zap.NewAtomicLevelAt(zap.InfoLevel)

func Init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		fmt.Printf("Could not build logger, falling back to production defaults: %v\n", err)
		l, _ = zap.NewProduction()
	}
	Log = l
}

// SetLevel changes the minimum level of the process-wide logger.
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("logger: unknown level %q: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

// Named returns a child of Log scoped to a component.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

func Sync() {
	_ = Log.Sync()
}
