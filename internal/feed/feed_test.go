package feed

import (
	"testing"

	"audiofeeder/internal/layout"
	"audiofeeder/internal/rendercache"
	"audiofeeder/internal/renderer"
)

func TestItemsPreserveSegmentOrder(t *testing.T) {
	artifact := &rendercache.Artifact{
		Fingerprint: "fp",
		EntryID:     "book-1",
		Mode:        layout.ModeSegmented,
		Dir:         "/cache/fp",
		Files: []renderer.OutputFile{
			{Path: "Part01.m4b", Duration: 3600, Chapters: []renderer.OutputChapter{
				{Start: 0, End: 1800, Title: "One"},
				{Start: 1800, End: 3600, Title: "Two"},
			}},
			{Path: "Part02.m4b", Duration: 1200, Chapters: []renderer.OutputChapter{
				{Start: 0, End: 1200, Title: "Three"},
			}},
		},
	}

	items := Items(artifact)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Position != 1 || items[1].Position != 2 {
		t.Errorf("positions = %d, %d", items[0].Position, items[1].Position)
	}
	if items[0].Title != "Part01" {
		t.Errorf("merged output should title from file stem, got %q", items[0].Title)
	}
	if items[1].Title != "Three" {
		t.Errorf("single-chapter output should carry its chapter title, got %q", items[1].Title)
	}
	if items[0].MediaPath != "/cache/fp/Part01.m4b" {
		t.Errorf("media path = %q", items[0].MediaPath)
	}
	if len(items[0].Chapters) != 2 || items[0].Chapters[1].Start != 1800 {
		t.Errorf("chapter offsets must stay output-relative: %+v", items[0].Chapters)
	}
}

func TestItemsResolveReferenceOutputs(t *testing.T) {
	artifact := &rendercache.Artifact{
		Fingerprint: "fp",
		EntryID:     "book-1",
		Mode:        layout.ModeSingleFile,
		Dir:         "/cache/fp",
		Files: []renderer.OutputFile{
			{Path: "/library/book-1/only.mp3", Duration: 900, Reference: true, Chapters: []renderer.OutputChapter{
				{Start: 0, End: 900, Title: "Only"},
			}},
		},
	}

	items := Items(artifact)
	if items[0].MediaPath != "/library/book-1/only.mp3" {
		t.Errorf("reference output should keep its library path, got %q", items[0].MediaPath)
	}
	if items[0].Title != "Only" {
		t.Errorf("title = %q", items[0].Title)
	}
}
