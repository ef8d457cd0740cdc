package layout

import "time"

// SourceFile is one physical input backing an entry. Path is an opaque
// identifier owned by the source inventory; the engine never mutates the
// underlying file.
type SourceFile struct {
	Path     string
	Duration float64
	Ordinal  int
	ModTime  time.Time
}

// ChapterMark is one chapter inside a source file. Offsets are seconds
// relative to the owning file's own timeline.
type ChapterMark struct {
	Start       float64
	End         float64
	Title       string
	Synthesized bool
}

// Duration returns the chapter length in seconds.
func (c ChapterMark) Duration() float64 { return c.End - c.Start }

// FileChapters pairs a source file with its ordered chapter marks.
type FileChapters struct {
	File     SourceFile
	Chapters []ChapterMark
}

// Layout is the full ordered file/chapter structure of one entry.
type Layout struct {
	EntryID string
	Files   []FileChapters
}

// PlacedChapter locates a chapter within the layout's file sequence.
type PlacedChapter struct {
	FileIndex int
	Chapter   ChapterMark
}

// Duration returns the chapter length in seconds.
func (p PlacedChapter) Duration() float64 { return p.Chapter.Duration() }

// Chapters flattens the layout into its ordered chapter sequence.
func (l Layout) Chapters() []PlacedChapter {
	out := make([]PlacedChapter, 0, l.ChapterCount())
	for i, fc := range l.Files {
		for _, ch := range fc.Chapters {
			out = append(out, PlacedChapter{FileIndex: i, Chapter: ch})
		}
	}
	return out
}

// ChapterCount returns the total number of chapters across all files.
func (l Layout) ChapterCount() int {
	count := 0
	for _, fc := range l.Files {
		count += len(fc.Chapters)
	}
	return count
}

// TotalDuration returns the summed duration of all source files in seconds.
func (l Layout) TotalDuration() float64 {
	total := 0.0
	for _, fc := range l.Files {
		total += fc.File.Duration
	}
	return total
}

// maxNativeChapters returns the largest count of non-synthesized chapters
// carried by any single file.
func (l Layout) maxNativeChapters() int {
	most := 0
	for _, fc := range l.Files {
		native := 0
		for _, ch := range fc.Chapters {
			if !ch.Synthesized {
				native++
			}
		}
		if native > most {
			most = native
		}
	}
	return most
}

// Available reports whether a render mode is meaningful for this layout.
// SINGLEFILE is always available for a non-empty entry. CHAPTERS and
// SEGMENTED require real structure to expose: more than one file, or a file
// carrying at least two native chapter markers. This is the cheap check the
// presentation layer uses to decide which feed links to advertise.
func (l Layout) Available(mode Mode) bool {
	if len(l.Files) == 0 {
		return false
	}
	switch mode {
	case ModeSingleFile:
		return true
	case ModeChapters, ModeSegmented:
		return len(l.Files) > 1 || l.maxNativeChapters() >= 2
	default:
		return false
	}
}

// Span is a contiguous slice of one source file, bounded by chapter or file
// boundaries. End is always greater than Start.
type Span struct {
	FileIndex int
	Path      string
	Start     float64
	End       float64
}

// Duration returns the span length in seconds.
func (s Span) Duration() float64 { return s.End - s.Start }

// WholeFile reports whether the span covers its source file unmodified,
// which lets the executor reference the source directly instead of
// transcoding.
func (s Span) WholeFile(file SourceFile) bool {
	return s.Start == 0 && s.End >= file.Duration
}

// Segment is one contiguous output unit: ordered spans plus the chapters
// they cover, still in source-file-relative offsets. The render executor
// re-bases chapter offsets onto the output timeline.
type Segment struct {
	Spans    []Span
	Chapters []PlacedChapter
}

// Duration returns the summed duration of the segment's spans.
func (s Segment) Duration() float64 {
	total := 0.0
	for _, span := range s.Spans {
		total += span.Duration()
	}
	return total
}
