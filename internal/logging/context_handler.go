package logging

import (
	"context"
	"log/slog"
)

// contextHandler copies the standardized request fields carried by the
// context onto every record, so one request's log lines share the same
// entry_id, render_mode, and correlation_id without each call site
// repeating them. Attrs set explicitly on a record win over the context.
type contextHandler struct {
	inner slog.Handler
}

func withContextFields(inner slog.Handler) slog.Handler {
	return &contextHandler{inner: inner}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := ContextFields(ctx)
	if len(fields) > 0 {
		present := make(map[string]struct{}, record.NumAttrs())
		record.Attrs(func(attr slog.Attr) bool {
			present[attr.Key] = struct{}{}
			return true
		})
		for _, attr := range fields {
			if _, dup := present[attr.Key]; dup {
				continue
			}
			record.AddAttrs(attr)
		}
	}
	return h.inner.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
