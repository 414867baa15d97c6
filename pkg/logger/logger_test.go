package logger

import (
	"io"
	"os"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	// Isolate HOME so Initialize never touches the real one
	tmp := t.TempDir()
	oldHome := os.Getenv("HOME")
	_ = os.Setenv("HOME", tmp)
	defer os.Setenv("HOME", oldHome)

	Initialize(true, false)

	r, w, _ := os.Pipe()
	oldOut := defaultLogger.output
	defaultLogger.output = w
	Info("info message")
	Verbosef("verbose %s", "message")
	Debug("debug message - should be suppressed")
	Warn("warn message")
	Errorf("error %d", 42)
	_ = w.Close()
	var b strings.Builder
	_, _ = io.Copy(&b, r)
	defaultLogger.output = oldOut
	out := b.String()

	for _, want := range []string{"INFO", "VERBOSE", "WARN", "ERROR", "error 42"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
	if strings.Contains(out, "DEBUG") {
		t.Errorf("did not expect DEBUG logs at verbose level")
	}

	Close()
}

func TestLogger_NoopBeforeInitialize(t *testing.T) {
	// Package-level funcs must be safe when Initialize was never called.
	// defaultLogger may already exist from another test; only check no panic.
	Info("safe")
	Debug("safe")
}
