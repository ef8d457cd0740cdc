// Package renderer materializes segment plans into output files by driving
// the external ffmpeg binary.
//
// Each segment becomes at most one ffmpeg invocation: source spans are fed
// through the concat demuxer with inpoint/outpoint trimming and stream copy,
// and chapter markers are injected from a generated FFMETADATA document with
// offsets re-based onto the output's own timeline. A segment consisting of
// exactly one whole, untrimmed source file short-circuits to a direct
// reference; no transcoding runs at all.
//
// A failed segment aborts the whole build. Partial output is removed on
// every exit path and the error carries the tool's diagnostic output
// verbatim.
package renderer
