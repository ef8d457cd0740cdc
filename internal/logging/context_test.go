package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"audiofeeder/internal/services"
)

func requestContext() context.Context {
	ctx := services.WithEntryID(context.Background(), "book-1")
	ctx = services.WithRenderMode(ctx, "SEGMENTED")
	return services.WithRequestID(ctx, "req-42")
}

func TestConsoleHandlerCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(withContextFields(newConsoleHandler(&buf, new(slog.LevelVar), false)))

	logger.InfoContext(requestContext(), "render complete")

	line := buf.String()
	for _, want := range []string{
		"entry_id=book-1",
		"render_mode=SEGMENTED",
		"correlation_id=req-42",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %q", want, line)
		}
	}
}

func TestJSONHandlerCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(withContextFields(newJSONHandler(&buf, new(slog.LevelVar))))

	logger.InfoContext(requestContext(), "render complete")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry[FieldCorrelationID] != "req-42" {
		t.Errorf("correlation_id = %v, want req-42", entry[FieldCorrelationID])
	}
	if entry[FieldEntryID] != "book-1" {
		t.Errorf("entry_id = %v, want book-1", entry[FieldEntryID])
	}
}

func TestExplicitAttrsWinOverContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(withContextFields(newConsoleHandler(&buf, new(slog.LevelVar), false)))

	ctx := services.WithEntryID(context.Background(), "from-context")
	logger.InfoContext(ctx, "render start", slog.String(FieldEntryID, "explicit"))

	line := buf.String()
	if !strings.Contains(line, "entry_id=explicit") {
		t.Errorf("explicit attr missing: %q", line)
	}
	if strings.Contains(line, "from-context") {
		t.Errorf("context value should not shadow an explicit attr: %q", line)
	}
}

func TestBareContextAddsNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(withContextFields(newConsoleHandler(&buf, new(slog.LevelVar), false)))

	logger.InfoContext(context.Background(), "startup")

	line := buf.String()
	for _, field := range []string{FieldEntryID, FieldRenderMode, FieldCorrelationID} {
		if strings.Contains(line, field) {
			t.Errorf("unexpected %s on a request-free line: %q", field, line)
		}
	}
}
