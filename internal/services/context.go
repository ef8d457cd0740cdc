package services

import "context"

type contextKey string

const (
	entryIDKey    contextKey = "entry_id"
	renderModeKey contextKey = "render_mode"
	requestIDKey  contextKey = "request_id"
)

// WithEntryID annotates context with the catalog entry identifier.
func WithEntryID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, entryIDKey, id)
}

// EntryIDFromContext extracts the catalog entry identifier if present.
func EntryIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(entryIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRenderMode annotates context with the requested render mode.
func WithRenderMode(ctx context.Context, mode string) context.Context {
	if mode == "" {
		return ctx
	}
	return context.WithValue(ctx, renderModeKey, mode)
}

// RenderModeFromContext returns the render mode if present.
func RenderModeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(renderModeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// Detach returns a context that preserves the values of ctx but drops its
// cancellation. Builds shared between waiters run on a detached context so a
// client disconnect never tears down work other requests depend on.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
