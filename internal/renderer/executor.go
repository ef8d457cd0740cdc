package renderer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"audiofeeder/internal/config"
	"audiofeeder/internal/layout"
	"audiofeeder/internal/logging"
	"audiofeeder/internal/services"
)

// runFunc invokes the external media tool and returns its captured stderr.
// Tests substitute a stub so no binary is required.
type runFunc func(ctx context.Context, binary string, args []string) (string, error)

// Executor materializes segment plans. It is stateless with respect to
// shared data; distinct builds may run concurrently.
type Executor struct {
	binary  string
	timeout time.Duration
	workers int
	run     runFunc
	logger  *slog.Logger
}

// NewExecutor builds an executor from application configuration.
func NewExecutor(cfg *config.Config, logger *slog.Logger) *Executor {
	return &Executor{
		binary:  cfg.FFmpeg.FFmpegBinary,
		timeout: time.Duration(cfg.FFmpeg.RenderTimeoutSeconds) * time.Second,
		workers: cfg.Render.Workers,
		run:     runTool,
		logger:  logging.NewComponentLogger(logger, "renderer"),
	}
}

// Execute renders every segment of the plan into destDir and returns the
// ordered output list. Segment renders are independent and run in parallel
// up to the configured worker count; the returned slice preserves plan
// order regardless of completion order. Any segment failure aborts the
// whole build; destDir contents are then the caller's to discard, partial
// results are never returned.
func (e *Executor) Execute(ctx context.Context, l layout.Layout, segments []layout.Segment, destDir, baseName string) ([]OutputFile, error) {
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "renderer", "execute", "empty segment plan", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrRenderFailed, "renderer", "execute", "create output directory", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := e.workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	results := make([]OutputFile, len(segments))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, segment := range segments {
		wg.Add(1)
		go func(index int, segment layout.Segment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			output, err := e.renderSegment(ctx, l, segment, destDir, e.outputName(baseName, index, len(segments), segment))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			results[index] = output
		}(i, segment)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// renderSegment produces one output file. Whole-file segments are returned
// as direct references; everything else goes through ffmpeg.
func (e *Executor) renderSegment(ctx context.Context, l layout.Layout, segment layout.Segment, destDir, name string) (OutputFile, error) {
	chapters := rebaseChapters(segment)

	if len(segment.Spans) == 1 {
		span := segment.Spans[0]
		if span.WholeFile(l.Files[span.FileIndex].File) {
			return OutputFile{
				Path:      span.Path,
				Duration:  span.Duration(),
				Chapters:  chapters,
				Reference: true,
			}, nil
		}
	}

	workDir, err := os.MkdirTemp(destDir, ".work-")
	if err != nil {
		return OutputFile{}, services.Wrap(services.ErrRenderFailed, "renderer", "render segment", "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	listPath := filepath.Join(workDir, "inputs.txt")
	if err := os.WriteFile(listPath, []byte(concatFileList(l, segment)), 0o644); err != nil {
		return OutputFile{}, services.Wrap(services.ErrRenderFailed, "renderer", "render segment", "write concat list", err)
	}
	metaPath := filepath.Join(workDir, "metadata.txt")
	title := segmentTitle(chapters)
	if err := os.WriteFile(metaPath, []byte(ffmetadataDocument(title, chapters)), 0o644); err != nil {
		return OutputFile{}, services.Wrap(services.ErrRenderFailed, "renderer", "render segment", "write metadata", err)
	}

	outPath := filepath.Join(destDir, name)
	args := []string{
		"-nostdin", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-f", "ffmetadata", "-i", metaPath,
		"-map_metadata", "1",
		"-c", "copy",
		"-y", outPath,
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	started := time.Now()
	e.logger.DebugContext(ctx, "launching ffmpeg",
		logging.String("output", name),
		logging.Int("spans", len(segment.Spans)),
		logging.Float64("planned_duration", segment.Duration()),
	)
	stderr, err := e.run(runCtx, e.binary, args)
	if err != nil {
		_ = os.Remove(outPath)
		detail := fmt.Sprintf("segment %s (%d spans, first source %s)", name, len(segment.Spans), segment.Spans[0].Path)
		if stderr != "" {
			detail += ": " + stderr
		}
		return OutputFile{}, services.Wrap(services.ErrRenderFailed, "renderer", "render segment", detail, err)
	}
	e.logger.InfoContext(ctx, "segment rendered",
		logging.String("output", name),
		logging.Duration("elapsed", time.Since(started)),
	)

	return OutputFile{Path: name, Duration: segment.Duration(), Chapters: chapters}, nil
}

// outputName builds zero-padded output file names sized to the plan, e.g.
// Part01.m4b. The extension follows the segment's first source file since
// streams are copied, not transcoded.
func (e *Executor) outputName(baseName string, index, total int, segment layout.Segment) string {
	width := len(strconv.Itoa(total))
	if width < 2 {
		width = 2
	}
	ext := filepath.Ext(segment.Spans[0].Path)
	if ext == "" {
		ext = ".m4b"
	}
	return fmt.Sprintf("%s%0*d%s", baseName, width, index+1, ext)
}

func segmentTitle(chapters []OutputChapter) string {
	if len(chapters) == 1 {
		return chapters[0].Title
	}
	return ""
}

func runTool(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}
