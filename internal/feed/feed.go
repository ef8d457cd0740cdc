package feed

import (
	"fmt"
	"path/filepath"
	"strings"

	"audiofeeder/internal/rendercache"
	"audiofeeder/internal/renderer"
)

// Chapter is one chapter entry of a feed item, offsets relative to the
// item's own media file.
type Chapter struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title,omitempty"`
}

// Item is one downloadable element of a rendered feed.
type Item struct {
	Position  int       `json:"position"`
	Title     string    `json:"title"`
	MediaPath string    `json:"media_path"`
	Duration  float64   `json:"duration"`
	Chapters  []Chapter `json:"chapters,omitempty"`
}

// Items flattens an artifact into feed items in segment order.
func Items(artifact *rendercache.Artifact) []Item {
	items := make([]Item, 0, len(artifact.Files))
	for i, file := range artifact.Files {
		chapters := make([]Chapter, 0, len(file.Chapters))
		for _, ch := range file.Chapters {
			chapters = append(chapters, Chapter{Start: ch.Start, End: ch.End, Title: ch.Title})
		}
		items = append(items, Item{
			Position:  i + 1,
			Title:     itemTitle(file, i),
			MediaPath: artifact.FilePath(file),
			Duration:  file.Duration,
			Chapters:  chapters,
		})
	}
	return items
}

// itemTitle names a feed item. A single-chapter output carries its chapter
// title; merged outputs fall back to their file name stem, and as a last
// resort the position number.
func itemTitle(file renderer.OutputFile, index int) string {
	if len(file.Chapters) == 1 && strings.TrimSpace(file.Chapters[0].Title) != "" {
		return file.Chapters[0].Title
	}
	base := filepath.Base(file.Path)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); strings.TrimSpace(stem) != "" {
		return stem
	}
	return fmt.Sprintf("Part %02d", index+1)
}
