// Package daemon runs the long-lived feed engine service: it enforces
// single-instance execution through a file lock and serves the HTTP API
// that presentation code renders feeds from.
package daemon
