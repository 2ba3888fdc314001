package telemetry

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracer_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	shutdown, err := InitTracer("nightapi-test", "test", &buf, logger)
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}

	_, span := otel.Tracer("telemetry_test").Start(context.Background(), "resolve-short-url")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "resolve-short-url") {
		t.Errorf("span not exported, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "nightapi-test") {
		t.Error("service name missing from exported resource")
	}
}
