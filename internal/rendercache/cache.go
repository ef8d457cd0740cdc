package rendercache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"audiofeeder/internal/config"
	"audiofeeder/internal/logging"
	"audiofeeder/internal/renderer"
	"audiofeeder/internal/services"
)

// BuildFunc renders the artifact's output files into stagingDir. The cache
// owns the directory lifecycle: on success it commits stagingDir as the
// artifact, on failure it discards it.
type BuildFunc func(ctx context.Context, stagingDir string) ([]renderer.OutputFile, error)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// flight tracks one in-progress build. Waiters block on done and then read
// artifact and err, which never change after done closes.
type flight struct {
	done     chan struct{}
	artifact *Artifact
	err      error
}

// Manager is the render cache. It answers fingerprint lookups from the
// SQLite index, collapses concurrent builds of the same fingerprint into
// one, and prunes committed artifacts by size, free space, and age.
type Manager struct {
	root      string
	maxBytes  int64
	freeMin   float64
	retention time.Duration
	store     *Store
	logger    *slog.Logger
	statfs    statfsFunc

	mu      sync.Mutex
	flights map[string]*flight
}

// NewManager opens the cache rooted at the configured render directory.
func NewManager(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rendercache", "open", "ensure directories", err)
	}
	root := cfg.Paths.RenderDir

	store, err := OpenStore(filepath.Join(root, "artifacts.db"))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rendercache", "open", "open artifact index", err)
	}

	m := &Manager{
		root:      root,
		maxBytes:  int64(cfg.RenderCache.MaxGiB) * 1024 * 1024 * 1024,
		freeMin:   cfg.RenderCache.FreeSpaceMin,
		retention: time.Duration(cfg.RenderCache.RetentionDays) * 24 * time.Hour,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "rendercache"),
		statfs:    realStatfs,
		flights:   make(map[string]*flight),
	}
	m.sweepStaging()
	return m, nil
}

// Close releases the artifact index.
func (m *Manager) Close() error {
	return m.store.Close()
}

// GetOrBuild returns the artifact for key, building it if absent. At most
// one build per fingerprint runs at a time: callers arriving while a build
// is in flight block until it finishes and receive the same artifact or the
// same error. A failed build leaves the entry absent, so the next request
// retries from scratch. Builds for distinct fingerprints proceed
// independently.
func (m *Manager) GetOrBuild(ctx context.Context, key Key, build BuildFunc) (*Artifact, error) {
	m.mu.Lock()
	if f, ok := m.flights[key.Fingerprint]; ok {
		m.mu.Unlock()
		select {
		case <-f.done:
			if f.err != nil {
				return nil, f.err
			}
			return f.artifact, nil
		case <-ctx.Done():
			return nil, services.Wrap(ctx.Err(), "rendercache", "wait", "abandoned while awaiting shared build", nil)
		}
	}

	artifact, err := m.lookupLocked(ctx, key.Fingerprint)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if artifact != nil {
		m.mu.Unlock()
		if err := m.store.Touch(ctx, key.Fingerprint); err != nil {
			m.logger.WarnContext(ctx, "failed to stamp artifact access",
				logging.String(logging.FieldFingerprint, key.Fingerprint),
				logging.Error(err),
			)
		}
		m.logger.DebugContext(ctx, "cache hit",
			logging.String(logging.FieldEntryID, key.EntryID),
			logging.String(logging.FieldRenderMode, string(key.Mode)),
			logging.String(logging.FieldFingerprint, key.Fingerprint),
		)
		return artifact, nil
	}

	f := &flight{done: make(chan struct{})}
	m.flights[key.Fingerprint] = f
	m.mu.Unlock()

	f.artifact, f.err = m.runBuild(ctx, key, build)

	m.mu.Lock()
	delete(m.flights, key.Fingerprint)
	m.mu.Unlock()
	close(f.done)

	if f.err != nil {
		return nil, f.err
	}
	return f.artifact, nil
}

// Get returns the committed artifact for a fingerprint without building,
// or nil when absent.
func (m *Manager) Get(ctx context.Context, fingerprint string) (*Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(ctx, fingerprint)
}

// lookupLocked consults the index and verifies the artifact directory still
// exists on disk. Rows whose directory vanished are dropped so the caller
// rebuilds.
func (m *Manager) lookupLocked(ctx context.Context, fingerprint string) (*Artifact, error) {
	artifact, err := m.store.Get(ctx, fingerprint)
	if err != nil {
		return nil, services.Wrap(services.ErrRenderFailed, "rendercache", "lookup", "query artifact index", err)
	}
	if artifact == nil {
		return nil, nil
	}
	if !existsNonEmptyDir(artifact.Dir) {
		m.logger.WarnContext(ctx, "artifact directory missing, dropping index row",
			logging.String(logging.FieldFingerprint, fingerprint),
			logging.String("artifact_dir", artifact.Dir),
		)
		_ = m.store.Delete(ctx, fingerprint)
		return nil, nil
	}
	return artifact, nil
}

// runBuild renders into a staging directory and commits the result. The
// build runs on a detached context so an abandoning caller does not cancel
// work other waiters still depend on.
func (m *Manager) runBuild(ctx context.Context, key Key, build BuildFunc) (*Artifact, error) {
	buildCtx := services.Detach(ctx)

	staging, err := os.MkdirTemp(m.root, ".staging-")
	if err != nil {
		return nil, services.Wrap(services.ErrRenderFailed, "rendercache", "build", "create staging directory", err)
	}

	started := time.Now()
	m.logger.InfoContext(ctx, "building artifact",
		logging.String(logging.FieldEntryID, key.EntryID),
		logging.String(logging.FieldRenderMode, string(key.Mode)),
		logging.String(logging.FieldFingerprint, key.Fingerprint),
	)

	files, err := build(buildCtx, staging)
	if err != nil {
		_ = os.RemoveAll(staging)
		return nil, err
	}

	artifact, err := m.commit(buildCtx, key, staging, files)
	if err != nil {
		_ = os.RemoveAll(staging)
		return nil, err
	}

	m.logger.InfoContext(ctx, "artifact committed",
		logging.String(logging.FieldEntryID, key.EntryID),
		logging.String(logging.FieldRenderMode, string(key.Mode)),
		logging.String(logging.FieldFingerprint, key.Fingerprint),
		logging.Int("output_files", len(artifact.Files)),
		logging.Int64("size_bytes", artifact.SizeBytes),
		logging.Duration("elapsed", time.Since(started)),
	)

	if err := m.prune(buildCtx, artifact.Dir); err != nil {
		m.logger.WarnContext(ctx, "prune after build failed", logging.Error(err))
	}
	return artifact, nil
}

// commit moves the staged render into its final fingerprint-named directory,
// writes the metadata sidecar, indexes the artifact, and removes superseded
// renders of the same entry and mode.
func (m *Manager) commit(ctx context.Context, key Key, staging string, files []renderer.OutputFile) (*Artifact, error) {
	dest := filepath.Join(m.root, key.Fingerprint)
	if err := os.RemoveAll(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrRenderFailed, "rendercache", "commit", "remove previous artifact directory", err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return nil, services.Wrap(services.ErrRenderFailed, "rendercache", "commit", "move staged artifact", err)
	}

	artifact := &Artifact{
		Fingerprint: key.Fingerprint,
		EntryID:     key.EntryID,
		Mode:        key.Mode,
		Dir:         dest,
		Files:       files,
		CreatedAt:   time.Now().UTC(),
	}
	if err := writeMetadata(dest, artifact); err != nil {
		_ = os.RemoveAll(dest)
		return nil, services.Wrap(services.ErrRenderFailed, "rendercache", "commit", "write artifact metadata", err)
	}

	size, err := dirSize(dest)
	if err != nil {
		_ = os.RemoveAll(dest)
		return nil, services.Wrap(services.ErrRenderFailed, "rendercache", "commit", "measure artifact", err)
	}
	artifact.SizeBytes = size
	artifact.LastAccess = artifact.CreatedAt

	if err := m.store.Put(ctx, artifact); err != nil {
		_ = os.RemoveAll(dest)
		return nil, services.Wrap(services.ErrRenderFailed, "rendercache", "commit", "index artifact", err)
	}

	m.dropStaleVersions(ctx, key)
	return artifact, nil
}

// dropStaleVersions removes superseded renders of the same entry and mode.
// A new fingerprint means the sources changed, so earlier renders can never
// be requested again.
func (m *Manager) dropStaleVersions(ctx context.Context, key Key) {
	stale, err := m.store.StaleVersions(ctx, key.EntryID, key.Mode, key.Fingerprint)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to list superseded artifacts", logging.Error(err))
		return
	}
	for _, old := range stale {
		if err := os.RemoveAll(old.Dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.logger.WarnContext(ctx, "failed to remove superseded artifact",
				logging.String("artifact_dir", old.Dir),
				logging.Error(err),
			)
			continue
		}
		_ = m.store.Delete(ctx, old.Fingerprint)
		m.logger.InfoContext(ctx, "removed superseded artifact",
			logging.String(logging.FieldEntryID, key.EntryID),
			logging.String(logging.FieldRenderMode, string(key.Mode)),
			logging.String(logging.FieldFingerprint, old.Fingerprint),
		)
	}
}

// List returns every committed artifact, least recently accessed first.
func (m *Manager) List(ctx context.Context) ([]*Artifact, error) {
	return m.store.ListByAccess(ctx)
}

// Invalidate removes one committed artifact by fingerprint.
func (m *Manager) Invalidate(ctx context.Context, fingerprint string) error {
	artifact, err := m.store.Get(ctx, fingerprint)
	if err != nil {
		return services.Wrap(services.ErrRenderFailed, "rendercache", "invalidate", "query artifact index", err)
	}
	if artifact == nil {
		return nil
	}
	if err := os.RemoveAll(artifact.Dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrRenderFailed, "rendercache", "invalidate", "remove artifact directory", err)
	}
	return m.store.Delete(ctx, fingerprint)
}

// sweepStaging removes staging directories left behind by a crashed build.
func (m *Manager) sweepStaging() {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), ".staging-") {
			_ = os.RemoveAll(filepath.Join(m.root, entry.Name()))
		}
	}
}
