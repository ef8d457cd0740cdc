package fingerprint

import (
	"testing"
	"time"

	"audiofeeder/internal/layout"
)

func sample(mod time.Time) []layout.SourceFile {
	return []layout.SourceFile{
		{Path: "a.mp3", Duration: 600.5, ModTime: mod},
		{Path: "b.mp3", Duration: 1200, ModTime: mod},
	}
}

func TestComputeDeterministic(t *testing.T) {
	mod := time.Unix(1700000000, 0)
	first := Compute("entry-1", layout.ModeSegmented, sample(mod))
	second := Compute("entry-1", layout.ModeSegmented, sample(mod))
	if first != second {
		t.Fatalf("identical inputs produced different fingerprints: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(first))
	}
}

func TestComputeSensitivity(t *testing.T) {
	mod := time.Unix(1700000000, 0)
	base := Compute("entry-1", layout.ModeSegmented, sample(mod))

	if got := Compute("entry-2", layout.ModeSegmented, sample(mod)); got == base {
		t.Error("entry id change should alter fingerprint")
	}
	if got := Compute("entry-1", layout.ModeChapters, sample(mod)); got == base {
		t.Error("mode change should alter fingerprint")
	}
	if got := Compute("entry-1", layout.ModeSegmented, sample(mod.Add(time.Second))); got == base {
		t.Error("mtime change should alter fingerprint")
	}

	longer := sample(mod)
	longer[1].Duration++
	if got := Compute("entry-1", layout.ModeSegmented, longer); got == base {
		t.Error("duration change should alter fingerprint")
	}
}

func TestFromLayoutMatchesCompute(t *testing.T) {
	mod := time.Unix(1700000000, 0)
	l := layout.Layout{
		EntryID: "entry-1",
		Files: []layout.FileChapters{
			{File: layout.SourceFile{Path: "a.mp3", Duration: 600.5, ModTime: mod}},
			{File: layout.SourceFile{Path: "b.mp3", Duration: 1200, ModTime: mod}},
		},
	}
	if FromLayout(l, layout.ModeSegmented) != Compute("entry-1", layout.ModeSegmented, sample(mod)) {
		t.Fatal("FromLayout should digest the same identity as Compute")
	}
}
