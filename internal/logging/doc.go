// Package logging wraps log/slog with the conventions used across
// audiofeeder: typed attribute constructors, component loggers, and
// context-derived correlation fields.
//
// Construction goes through New or NewFromConfig, which select between a
// colorized console handler and a JSON handler. Tests use NewNop.
package logging
