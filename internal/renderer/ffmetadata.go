package renderer

import (
	"fmt"
	"strings"

	"audiofeeder/internal/layout"
)

// rebaseChapters moves a segment's chapters onto the output timeline.
// File-relative offsets are meaningless in merged output, so chapters are
// laid end to end starting at zero, in plan order.
func rebaseChapters(segment layout.Segment) []OutputChapter {
	out := make([]OutputChapter, 0, len(segment.Chapters))
	base := 0.0
	for _, placed := range segment.Chapters {
		duration := placed.Duration()
		out = append(out, OutputChapter{
			Start: base,
			End:   base + duration,
			Title: placed.Chapter.Title,
		})
		base += duration
	}
	return out
}

// ffmetadataDocument renders chapters as an FFMETADATA1 file suitable for
// ffmpeg's metadata muxer, using a millisecond timebase.
func ffmetadataDocument(title string, chapters []OutputChapter) string {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	if title != "" {
		fmt.Fprintf(&b, "title=%s\n", escapeMetadataValue(title))
	}
	for _, ch := range chapters {
		b.WriteString("[CHAPTER]\n")
		b.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\n", int64(ch.Start*1000))
		fmt.Fprintf(&b, "END=%d\n", int64(ch.End*1000))
		if ch.Title != "" {
			fmt.Fprintf(&b, "title=%s\n", escapeMetadataValue(ch.Title))
		}
	}
	return b.String()
}

// escapeMetadataValue escapes the characters the ffmetadata format treats
// specially.
func escapeMetadataValue(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"=", `\=`,
		";", `\;`,
		"#", `\#`,
		"\n", `\`+"\n",
	)
	return replacer.Replace(value)
}

// concatFileList renders the ffmpeg concat demuxer input list for a
// segment's spans. Trim points are omitted when a span covers its file
// edge-to-edge so ffmpeg can skip seeking entirely.
func concatFileList(l layout.Layout, segment layout.Segment) string {
	var b strings.Builder
	for _, span := range segment.Spans {
		file := l.Files[span.FileIndex].File
		path := strings.ReplaceAll(span.Path, `'`, `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", path)
		if span.Start > 0 {
			fmt.Fprintf(&b, "inpoint %.3f\n", span.Start)
		}
		if span.End < file.Duration {
			fmt.Fprintf(&b, "outpoint %.3f\n", span.End)
			fmt.Fprintf(&b, "duration %.3f\n", span.Duration())
		}
	}
	return b.String()
}
