package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(LevelEnvVar, "")
	if got := LevelFromEnv(); got != "error" {
		t.Errorf("LevelFromEnv() = %q, want error", got)
	}

	t.Setenv(LevelEnvVar, "debug")
	if got := LevelFromEnv(); got != "debug" {
		t.Errorf("LevelFromEnv() = %q, want debug", got)
	}
}

func TestL_WithoutInit(t *testing.T) {
	if L() == nil {
		t.Fatal("L() must never return nil")
	}
	if S() == nil {
		t.Fatal("S() must never return nil")
	}
	if err := Sync(); err != nil {
		t.Errorf("Sync() without Init error = %v", err)
	}
}

func TestInit(t *testing.T) {
	// Init is process-wide; exercise it once and verify level handling.
	if err := Init("trace", "console"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := GetLevel(); got != zapcore.DebugLevel {
		t.Errorf("GetLevel() = %v, want debug (trace alias)", got)
	}

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if got := GetLevel(); got != zapcore.WarnLevel {
		t.Errorf("GetLevel() = %v, want warn", got)
	}
}
