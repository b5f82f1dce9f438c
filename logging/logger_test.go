package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if got := NewLogger().GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", got)
	}

	t.Setenv("LOG_LEVEL", "")
	if got := NewLogger().GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected info level by default, got %s", got)
	}
}
