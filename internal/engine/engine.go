package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"audiofeeder/internal/config"
	"audiofeeder/internal/fingerprint"
	"audiofeeder/internal/inventory"
	"audiofeeder/internal/layout"
	"audiofeeder/internal/logging"
	"audiofeeder/internal/planner"
	"audiofeeder/internal/rendercache"
	"audiofeeder/internal/renderer"
	"audiofeeder/internal/services"
)

// Renderer materializes a segment plan into a destination directory.
// Satisfied by renderer.Executor; tests substitute stubs.
type Renderer interface {
	Execute(ctx context.Context, l layout.Layout, segments []layout.Segment, destDir, baseName string) ([]renderer.OutputFile, error)
}

// Engine answers render requests for library entries.
type Engine struct {
	inventory inventory.Reader
	cache     *rendercache.Manager
	renderer  Renderer
	planOpts  planner.Options
	logger    *slog.Logger
}

// New wires an engine from its collaborators.
func New(cfg *config.Config, inv inventory.Reader, cache *rendercache.Manager, r Renderer, logger *slog.Logger) *Engine {
	return &Engine{
		inventory: inv,
		cache:     cache,
		renderer:  r,
		planOpts: planner.Options{
			TargetDuration: float64(cfg.Render.TargetSegmentSeconds),
			MinTail:        float64(cfg.Render.MinTailSeconds),
		},
		logger: logging.NewComponentLogger(logger, "engine"),
	}
}

// Render returns the artifact for one entry and mode, building it on a
// cache miss. Identical concurrent requests share a single build through
// the cache's single-flight guarantee.
func (e *Engine) Render(ctx context.Context, entryID string, mode layout.Mode) (*rendercache.Artifact, error) {
	ctx = services.WithEntryID(ctx, entryID)
	ctx = services.WithRenderMode(ctx, string(mode))

	l, err := e.inventory.Snapshot(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !l.Available(mode) {
		return nil, services.Wrap(
			services.ErrModeUnavailable, "engine", "render",
			fmt.Sprintf("mode %s is not available for entry %s", mode, entryID), nil,
		)
	}

	key := rendercache.Key{
		Fingerprint: fingerprint.FromLayout(l, mode),
		EntryID:     entryID,
		Mode:        mode,
	}

	started := time.Now()
	artifact, err := e.cache.GetOrBuild(ctx, key, func(buildCtx context.Context, stagingDir string) ([]renderer.OutputFile, error) {
		segments, planErr := planner.Plan(l, mode, e.planOpts)
		if planErr != nil {
			return nil, planErr
		}
		return e.renderer.Execute(buildCtx, l, segments, stagingDir, baseNameFor(mode))
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "render request served",
		logging.String(logging.FieldEntryID, entryID),
		logging.String(logging.FieldRenderMode, string(mode)),
		logging.String(logging.FieldFingerprint, key.Fingerprint),
		logging.Int("output_files", len(artifact.Files)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return artifact, nil
}

// ModeStatus reports one mode's availability for an entry, and whether a
// current render is already cached.
type ModeStatus struct {
	Mode        layout.Mode `json:"mode"`
	Available   bool        `json:"available"`
	Cached      bool        `json:"cached"`
	Fingerprint string      `json:"fingerprint,omitempty"`
}

// Modes reports every render mode's status for one entry.
func (e *Engine) Modes(ctx context.Context, entryID string) ([]ModeStatus, error) {
	ctx = services.WithEntryID(ctx, entryID)

	l, err := e.inventory.Snapshot(ctx, entryID)
	if err != nil {
		return nil, err
	}

	statuses := make([]ModeStatus, 0, len(layout.Modes()))
	for _, mode := range layout.Modes() {
		status := ModeStatus{Mode: mode, Available: l.Available(mode)}
		if status.Available {
			status.Fingerprint = fingerprint.FromLayout(l, mode)
			artifact, err := e.cache.Get(ctx, status.Fingerprint)
			if err != nil {
				return nil, err
			}
			status.Cached = artifact != nil
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Available reports whether one mode can be rendered for an entry.
func (e *Engine) Available(ctx context.Context, entryID string, mode layout.Mode) (bool, error) {
	l, err := e.inventory.Snapshot(ctx, entryID)
	if err != nil {
		return false, err
	}
	return l.Available(mode), nil
}

// Entries lists the library entries the engine can serve.
func (e *Engine) Entries(ctx context.Context) ([]string, error) {
	return e.inventory.Entries(ctx)
}

// baseNameFor picks the output naming stem: chapter-per-segment modes name
// outputs Chapter01, Chapter02, ... while everything else uses Part.
func baseNameFor(mode layout.Mode) string {
	if mode == layout.ModeChapters {
		return "Chapter"
	}
	return "Part"
}
