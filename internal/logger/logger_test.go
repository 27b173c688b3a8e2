package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	defer level.SetLevel(zapcore.InfoLevel)

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel returned error: %v", err)
	}
	if level.Level() != zapcore.DebugLevel {
		t.Errorf("Expected debug level, got %v", level.Level())
	}
}

func TestSetLevelUnknown(t *testing.T) {
	if err := SetLevel("chatty"); err == nil {
		t.Error("SetLevel should reject unknown level names")
	}
}

func TestInitReplacesNop(t *testing.T) {
	Init()
	if Log == nil {
		t.Fatal("Log should not be nil after Init")
	}
	if !Log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Info level should be enabled after Init")
	}
}
