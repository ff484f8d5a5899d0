package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		want          zapcore.Level
	}{
		{"debug", "console", zapcore.DebugLevel},
		{"warn", "json", zapcore.WarnLevel},
		{"loud", "json", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		l, err := New(tt.level, tt.format, "account-service")
		if err != nil {
			t.Fatalf("New(%q, %q): %v", tt.level, tt.format, err)
		}
		if !l.Core().Enabled(tt.want) {
			t.Errorf("level %q: expected %s enabled", tt.level, tt.want)
		}
		if tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1) {
			t.Errorf("level %q: expected %s disabled", tt.level, tt.want-1)
		}
	}
}
