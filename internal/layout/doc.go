// Package layout defines the normalized chapter/file structure of a library
// entry and the segment types produced by planning.
//
// A Layout is an immutable per-request snapshot: the ordered source files of
// one entry, each carrying its chapter marks. Normalization guarantees every
// file contributes at least one chapter (a synthesized whole-file chapter
// when the container has none), so planning never special-cases chapterless
// files.
package layout
