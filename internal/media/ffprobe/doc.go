// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no audiofeeder-specific dependencies and could be
// extracted as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams, format, and chapters
//   - Stream: individual audio stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//   - Chapter: embedded chapter marker with start/end offsets and title
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns a parsed Result
package ffprobe
