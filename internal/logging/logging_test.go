package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		dev     bool
		want    zapcore.Level
		wantErr bool
	}{
		{"info", false, zapcore.InfoLevel, false},
		{"DEBUG", true, zapcore.DebugLevel, false},
		{" warn ", false, zapcore.WarnLevel, false},
		{"loud", false, 0, true},
	}
	for _, tt := range tests {
		logger, err := New(tt.level, tt.dev)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q) should fail", tt.level)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q): %v", tt.level, err)
		}
		if !logger.Core().Enabled(tt.want) {
			t.Errorf("New(%q) should enable %s", tt.level, tt.want)
		}
		if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
			t.Errorf("New(%q) should not enable %s", tt.level, tt.want-1)
		}
	}
}

func TestMatch(t *testing.T) {
	logger, err := New("info", false)
	if err != nil {
		t.Fatal(err)
	}
	if Match(logger, "abc") == logger {
		t.Fatalf("Match should return a child logger")
	}
}
