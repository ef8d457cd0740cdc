package layout

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"audiofeeder/internal/services"
)

var titleCaser = cases.Title(language.English)

// Normalize validates the raw file/chapter snapshot and returns the layout
// used as planning input. Rules:
//
//   - an entry with no source files fails with the EmptyEntry marker
//   - chapter offsets must be unique within a file and inside [0, duration)
//   - chapter ends are clamped to the file duration; a leading gap before the
//     first chapter is absorbed into that chapter so chapters always
//     partition their file exactly
//   - a file without native chapters gets one synthesized whole-file chapter
//     titled from the file name, so downstream planning never sees a
//     chapterless file
func Normalize(entryID string, files []FileChapters) (Layout, error) {
	if len(files) == 0 {
		return Layout{}, services.Wrap(services.ErrEmptyEntry, "layout", "normalize", "entry "+entryID+" has no source files", nil)
	}

	normalized := make([]FileChapters, 0, len(files))
	for i, fc := range files {
		file := fc.File
		file.Ordinal = i
		if file.Duration <= 0 {
			return Layout{}, services.Wrap(services.ErrValidation, "layout", "normalize",
				fmt.Sprintf("file %s has non-positive duration %.3f", file.Path, file.Duration), nil)
		}

		chapters, err := normalizeChapters(file, fc.Chapters, i)
		if err != nil {
			return Layout{}, err
		}
		normalized = append(normalized, FileChapters{File: file, Chapters: chapters})
	}

	return Layout{EntryID: entryID, Files: normalized}, nil
}

func normalizeChapters(file SourceFile, raw []ChapterMark, ordinal int) ([]ChapterMark, error) {
	kept := make([]ChapterMark, 0, len(raw))
	for _, ch := range raw {
		if ch.Start < 0 || ch.Start >= file.Duration {
			return nil, services.Wrap(services.ErrValidation, "layout", "normalize",
				fmt.Sprintf("file %s chapter offset %.3f outside [0, %.3f)", file.Path, ch.Start, file.Duration), nil)
		}
		kept = append(kept, ch)
	}

	if len(kept) == 0 {
		return []ChapterMark{{
			Start:       0,
			End:         file.Duration,
			Title:       synthesizedTitle(file, ordinal),
			Synthesized: true,
		}}, nil
	}

	sortChapters(kept)
	for i := 1; i < len(kept); i++ {
		if kept[i].Start == kept[i-1].Start {
			return nil, services.Wrap(services.ErrValidation, "layout", "normalize",
				fmt.Sprintf("file %s has duplicate chapter offset %.3f", file.Path, kept[i].Start), nil)
		}
	}

	// Absorb any leading gap and rewrite ends so chapters partition the file.
	kept[0].Start = 0
	for i := range kept {
		if i+1 < len(kept) {
			kept[i].End = kept[i+1].Start
		} else {
			kept[i].End = file.Duration
		}
		if kept[i].Title == "" {
			kept[i].Title = fmt.Sprintf("%s (%d)", synthesizedTitle(file, ordinal), i+1)
		}
	}
	return kept, nil
}

func sortChapters(chapters []ChapterMark) {
	for i := 1; i < len(chapters); i++ {
		for j := i; j > 0 && chapters[j].Start < chapters[j-1].Start; j-- {
			chapters[j], chapters[j-1] = chapters[j-1], chapters[j]
		}
	}
}

// synthesizedTitle derives a human-readable chapter title from the file name,
// falling back to the ordinal position when the name is unusable.
func synthesizedTitle(file SourceFile, ordinal int) string {
	base := filepath.Base(strings.TrimSpace(file.Path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return fmt.Sprintf("Part %02d", ordinal+1)
	}
	return titleCaser.String(base)
}
