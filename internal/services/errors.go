package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrEmptyEntry marks entries with no source files at all. Fatal, never retried.
	ErrEmptyEntry = errors.New("empty entry")
	// ErrModeUnavailable marks render modes that are not meaningful for an
	// entry's layout. Reported to the caller, not an exceptional path.
	ErrModeUnavailable = errors.New("render mode unavailable")
	// ErrRenderFailed marks external tool failures. Retryable by a future
	// request because failed builds are never cached.
	ErrRenderFailed = errors.New("render failed")
	// ErrExternalTool marks failures launching or resolving external binaries.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks invalid input from callers or configuration.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing entries or artifacts.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker is usually
// one of the exported sentinel errors above; context errors also pass through
// so errors.Is keeps working on them.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrRenderFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps an engine error to the response code the feed endpoint
// should serve. RenderFailed maps to 503 so feeds read "temporarily
// unavailable" rather than returning a broken document.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmptyEntry):
		return http.StatusNotFound
	case errors.Is(err, ErrModeUnavailable), errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRenderFailed), errors.Is(err, ErrExternalTool):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// nginx's 499: the client went away before a response existed.
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

const statusClientClosedRequest = 499

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
