// Package inventory reads the source media backing a library entry.
//
// A Reader produces an immutable per-call snapshot: the ordered audio files
// of one entry with durations, modification times, and native chapter
// markers, normalized into a layout.Layout. Snapshots are re-read on every
// planning pass; staleness detection happens downstream via the render
// fingerprint, never by caching here.
package inventory
