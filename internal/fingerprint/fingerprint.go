package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"audiofeeder/internal/layout"
)

// Compute digests the identity of a planned render. Files must be passed in
// entry order; two calls with identical inputs always produce identical keys.
// The digest covers each file's modification time, so touching a source file
// invalidates every artifact derived from it.
func Compute(entryID string, mode layout.Mode, files []layout.SourceFile) string {
	h := sha256.New()
	fmt.Fprintf(h, "entry\x00%s\x00mode\x00%s\x00", entryID, mode)
	for _, f := range files {
		fmt.Fprintf(h, "file\x00%s\x00%.3f\x00%d\x00", f.Path, f.Duration, f.ModTime.UTC().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FromLayout digests a normalized layout.
func FromLayout(l layout.Layout, mode layout.Mode) string {
	files := make([]layout.SourceFile, 0, len(l.Files))
	for _, fc := range l.Files {
		files = append(files, fc.File)
	}
	return Compute(l.EntryID, mode, files)
}
