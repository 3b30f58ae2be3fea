package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewInstallsGlobal(t *testing.T) {
	orig := zap.L()
	defer zap.ReplaceGlobals(orig)

	log, err := New("warn", false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if zap.L() != log {
		t.Fatalf("logger should be installed globally")
	}
	if log.Core().Enabled(zapcore.InfoLevel) || !log.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("level not applied")
	}
}

func TestMaskAuthorization(t *testing.T) {
	if got := MaskAuthorization("Bearer abcdefgh"); got != "Bearer ****efgh" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskAuthorization("abc"); got != "***" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskAuthorization(""); got != "" {
		t.Fatalf("unexpected mask %q", got)
	}
}
