package testsupport

import (
	"testing"
	"time"

	"audiofeeder/internal/layout"
)

// ChapteredFile builds a FileChapters fixture: durations are chapter
// lengths laid back to back from zero.
func ChapteredFile(path string, chapterSeconds ...float64) layout.FileChapters {
	total := 0.0
	chapters := make([]layout.ChapterMark, 0, len(chapterSeconds))
	for i, d := range chapterSeconds {
		chapters = append(chapters, layout.ChapterMark{Start: total, Title: chapterTitle(i)})
		total += d
	}
	return layout.FileChapters{
		File:     layout.SourceFile{Path: path, Duration: total, ModTime: time.Unix(1, 0)},
		Chapters: chapters,
	}
}

// PlainFile builds a chapterless FileChapters fixture of the given duration.
func PlainFile(path string, seconds float64) layout.FileChapters {
	return layout.FileChapters{
		File: layout.SourceFile{Path: path, Duration: seconds, ModTime: time.Unix(1, 0)},
	}
}

// NormalizedLayout builds and normalizes a layout fixture, failing the test
// on invalid input.
func NormalizedLayout(t testing.TB, entryID string, files ...layout.FileChapters) layout.Layout {
	t.Helper()
	l, err := layout.Normalize(entryID, files)
	if err != nil {
		t.Fatalf("normalize fixture layout: %v", err)
	}
	return l
}

func chapterTitle(index int) string {
	titles := []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight"}
	if index < len(titles) {
		return titles[index]
	}
	return ""
}
