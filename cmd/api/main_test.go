package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	dsn := "postgres://night:s3cret@db:5432/nightapi"
	err := errors.New("dial " + dsn + ": refused; password=hunter2")

	got := sanitizeError(err, dsn, "")
	if strings.Contains(got, "s3cret") || strings.Contains(got, "hunter2") {
		t.Errorf("secrets leaked: %s", got)
	}
	if !strings.Contains(got, "password=redacted") {
		t.Errorf("password parameter not redacted: %s", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}

func TestInitTracingRegistersShutdown(t *testing.T) {
	tracer, err := initTracing(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("initTracing: %v", err)
	}
	if tracer.name != "tracer" {
		t.Errorf("name = %q", tracer.name)
	}
	if err := tracer.fn(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
