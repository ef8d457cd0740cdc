package planner

import (
	"audiofeeder/internal/layout"
	"audiofeeder/internal/services"
)

// DefaultTargetDuration is the SEGMENTED mode target in seconds.
const DefaultTargetDuration = 3600

// Options tunes SEGMENTED planning. Zero values select defaults.
type Options struct {
	// TargetDuration is the preferred output segment duration in seconds.
	TargetDuration float64
	// MinTail is the smallest acceptable segment duration. Partitions that
	// would strand a shorter segment are penalized. Defaults to a quarter of
	// TargetDuration.
	MinTail float64
}

func (o Options) withDefaults() Options {
	if o.TargetDuration <= 0 {
		o.TargetDuration = DefaultTargetDuration
	}
	if o.MinTail <= 0 {
		o.MinTail = o.TargetDuration / 4
	}
	return o
}

// Plan partitions the layout into output segments for the requested mode.
// Every chapter of every file lands in exactly one span of exactly one
// segment, in source order.
func Plan(l layout.Layout, mode layout.Mode, opts Options) ([]layout.Segment, error) {
	if len(l.Files) == 0 {
		return nil, services.Wrap(services.ErrEmptyEntry, "planner", "plan", "entry "+l.EntryID+" has no source files", nil)
	}

	switch mode {
	case layout.ModeSingleFile:
		return []layout.Segment{singleSegment(l)}, nil
	case layout.ModeChapters:
		if !l.Available(mode) {
			return nil, services.Wrap(services.ErrModeUnavailable, "planner", "plan",
				"entry "+l.EntryID+" has no chapter structure to expose", nil)
		}
		return chapterSegments(l), nil
	case layout.ModeSegmented:
		if !l.Available(mode) {
			return nil, services.Wrap(services.ErrModeUnavailable, "planner", "plan",
				"entry "+l.EntryID+" would collapse to a single segment", nil)
		}
		return segmentedSegments(l, opts.withDefaults()), nil
	default:
		return nil, services.Wrap(services.ErrValidation, "planner", "plan", "unknown render mode "+mode.String(), nil)
	}
}

// singleSegment covers the whole layout with one segment, one span per file.
func singleSegment(l layout.Layout) layout.Segment {
	spans := make([]layout.Span, 0, len(l.Files))
	for i, fc := range l.Files {
		spans = append(spans, layout.Span{
			FileIndex: i,
			Path:      fc.File.Path,
			Start:     0,
			End:       fc.File.Duration,
		})
	}
	return layout.Segment{Spans: spans, Chapters: l.Chapters()}
}

// chapterSegments emits one single-span segment per chapter, in order.
func chapterSegments(l layout.Layout) []layout.Segment {
	chapters := l.Chapters()
	segments := make([]layout.Segment, 0, len(chapters))
	for _, placed := range chapters {
		segments = append(segments, layout.Segment{
			Spans: []layout.Span{{
				FileIndex: placed.FileIndex,
				Path:      l.Files[placed.FileIndex].File.Path,
				Start:     placed.Chapter.Start,
				End:       placed.Chapter.End,
			}},
			Chapters: []layout.PlacedChapter{placed},
		})
	}
	return segments
}

// segmentedSegments partitions the chapter sequence into runs near the target
// duration and converts each run into spans.
func segmentedSegments(l layout.Layout, opts Options) []layout.Segment {
	chapters := l.Chapters()
	runs := partition(chapters, opts.TargetDuration, opts.MinTail)
	segments := make([]layout.Segment, 0, len(runs))
	for _, run := range runs {
		segments = append(segments, layout.Segment{
			Spans:    spansForRun(l, run),
			Chapters: run,
		})
	}
	return segments
}

// spansForRun collapses consecutive chapters of the same file into one span.
// Chapters within a run are contiguous in layout order, so merging adjacent
// same-file chapters preserves exact coverage.
func spansForRun(l layout.Layout, run []layout.PlacedChapter) []layout.Span {
	spans := make([]layout.Span, 0, 1)
	for _, placed := range run {
		if n := len(spans); n > 0 && spans[n-1].FileIndex == placed.FileIndex {
			spans[n-1].End = placed.Chapter.End
			continue
		}
		spans = append(spans, layout.Span{
			FileIndex: placed.FileIndex,
			Path:      l.Files[placed.FileIndex].File.Path,
			Start:     placed.Chapter.Start,
			End:       placed.Chapter.End,
		})
	}
	return spans
}
