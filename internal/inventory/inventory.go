package inventory

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"audiofeeder/internal/layout"
	"audiofeeder/internal/logging"
	"audiofeeder/internal/media/ffprobe"
	"audiofeeder/internal/services"
)

// Reader produces per-entry source snapshots.
type Reader interface {
	// Snapshot returns the normalized layout of one entry.
	Snapshot(ctx context.Context, entryID string) (layout.Layout, error)
	// Entries lists the entry identifiers currently present in the library.
	Entries(ctx context.Context) ([]string, error)
}

var audioExtensions = map[string]struct{}{
	".aac":  {},
	".flac": {},
	".m4a":  {},
	".m4b":  {},
	".mp3":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
}

// probeFunc matches ffprobe.Inspect; tests substitute a stub.
type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// FSReader reads entries from a library directory, one subdirectory per
// entry, probing each audio file with ffprobe.
type FSReader struct {
	root         string
	binary       string
	probeTimeout time.Duration
	probe        probeFunc
	logger       *slog.Logger
}

// NewFSReader builds a reader rooted at the library directory.
func NewFSReader(root, ffprobeBinary string, probeTimeout time.Duration, logger *slog.Logger) *FSReader {
	return &FSReader{
		root:         root,
		binary:       ffprobeBinary,
		probeTimeout: probeTimeout,
		probe:        ffprobe.Inspect,
		logger:       logging.NewComponentLogger(logger, "inventory"),
	}
}

// Entries lists library subdirectories in lexical order.
func (r *FSReader) Entries(ctx context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrNotFound, "inventory", "list entries", r.root, err)
	}
	out := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Snapshot scans the entry directory and probes every audio file.
func (r *FSReader) Snapshot(ctx context.Context, entryID string) (layout.Layout, error) {
	dir, err := r.entryDir(entryID)
	if err != nil {
		return layout.Layout{}, err
	}

	paths, err := listAudioFiles(dir)
	if err != nil {
		return layout.Layout{}, err
	}

	files := make([]layout.FileChapters, 0, len(paths))
	for i, path := range paths {
		fc, err := r.probeFile(ctx, path, i)
		if err != nil {
			return layout.Layout{}, err
		}
		files = append(files, fc)
	}

	snapshot, err := layout.Normalize(entryID, files)
	if err != nil {
		return layout.Layout{}, err
	}
	r.logger.DebugContext(ctx, "source snapshot read",
		logging.String(logging.FieldEntryID, entryID),
		logging.Int("files", len(snapshot.Files)),
		logging.Int("chapters", snapshot.ChapterCount()),
	)
	return snapshot, nil
}

func (r *FSReader) entryDir(entryID string) (string, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" || strings.ContainsAny(entryID, `/\`) || entryID == ".." {
		return "", services.Wrap(services.ErrValidation, "inventory", "resolve entry", "invalid entry id "+entryID, nil)
	}
	dir := filepath.Join(r.root, entryID)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", services.Wrap(services.ErrNotFound, "inventory", "resolve entry", "no such entry "+entryID, err)
	}
	return dir, nil
}

func (r *FSReader) probeFile(ctx context.Context, path string, ordinal int) (layout.FileChapters, error) {
	info, err := os.Stat(path)
	if err != nil {
		return layout.FileChapters{}, services.Wrap(services.ErrNotFound, "inventory", "stat file", path, err)
	}

	probeCtx := ctx
	if r.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, r.probeTimeout)
		defer cancel()
	}
	result, err := r.probe(probeCtx, r.binary, path)
	if err != nil {
		return layout.FileChapters{}, services.Wrap(services.ErrExternalTool, "inventory", "probe file", path, err)
	}

	file := layout.SourceFile{
		Path:     path,
		Duration: result.DurationSeconds(),
		Ordinal:  ordinal,
		ModTime:  info.ModTime(),
	}
	chapters := make([]layout.ChapterMark, 0, len(result.Chapters))
	for _, ch := range result.Chapters {
		chapters = append(chapters, layout.ChapterMark{
			Start: ch.StartSeconds(),
			End:   ch.EndSeconds(),
			Title: ch.Title(),
		})
	}
	return layout.FileChapters{File: file, Chapters: chapters}, nil
}

func listAudioFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := audioExtensions[ext]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "inventory", "scan entry", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
