package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.WarnLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"ERROR", zapcore.ErrorLevel},
	}
	for _, tc := range tests {
		l, err := New(tc.level, FormatJSON)
		if err != nil {
			t.Fatalf("New(%q): %v", tc.level, err)
		}
		if !l.Core().Enabled(tc.want) {
			t.Errorf("level %q: expected %v enabled", tc.level, tc.want)
		}
		if tc.want > zapcore.DebugLevel && l.Core().Enabled(tc.want-1) {
			t.Errorf("level %q: expected %v disabled", tc.level, tc.want-1)
		}
	}
}

func TestNew_RejectsBadInput(t *testing.T) {
	if _, err := New("loud", FormatJSON); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestMust_FallsBackToNop(t *testing.T) {
	l := Must("loud", "")
	if l == nil {
		t.Fatal("expected logger")
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger")
	}
}
