package rendercache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiofeeder/internal/layout"
	"audiofeeder/internal/renderer"
	"audiofeeder/internal/services"
	"audiofeeder/internal/testsupport"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	m.statfs = func(string) (uint64, uint64, error) { return 1000, 500, nil }
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func testKey(fingerprint string) Key {
	return Key{Fingerprint: fingerprint, EntryID: "book-1", Mode: layout.ModeSegmented}
}

// writeOutput is a build stub producing one real file of the given size.
func writeOutput(name string, size int) BuildFunc {
	return func(_ context.Context, stagingDir string) ([]renderer.OutputFile, error) {
		path := filepath.Join(stagingDir, name)
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			return nil, err
		}
		return []renderer.OutputFile{{Path: name, Duration: 100}}, nil
	}
}

func TestGetOrBuildCachesResult(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var builds atomic.Int32
	build := func(ctx context.Context, stagingDir string) ([]renderer.OutputFile, error) {
		builds.Add(1)
		return writeOutput("Part01.m4b", 64)(ctx, stagingDir)
	}

	first, err := m.GetOrBuild(ctx, testKey("fp-a"), build)
	require.NoError(t, err)
	second, err := m.GetOrBuild(ctx, testKey("fp-a"), build)
	require.NoError(t, err)

	assert.Equal(t, int32(1), builds.Load(), "second request must be served from cache")
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Files, second.Files)
	assert.FileExists(t, filepath.Join(first.Dir, "Part01.m4b"))
	assert.FileExists(t, filepath.Join(first.Dir, metadataFileName))
}

func TestGetOrBuildSingleFlight(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	release := make(chan struct{})
	var builds atomic.Int32
	build := func(ctx context.Context, stagingDir string) ([]renderer.OutputFile, error) {
		builds.Add(1)
		<-release
		return writeOutput("Part01.m4b", 64)(ctx, stagingDir)
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Artifact, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.GetOrBuild(ctx, testKey("fp-a"), build)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load(), "concurrent callers must share one build")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "fp-a", results[i].Fingerprint)
	}
}

func TestGetOrBuildSurvivesAbandonedInitiator(t *testing.T) {
	m := newTestManager(t)

	release := make(chan struct{})
	var builds atomic.Int32
	var sawCancel atomic.Bool
	build := func(ctx context.Context, stagingDir string) ([]renderer.OutputFile, error) {
		builds.Add(1)
		<-release
		sawCancel.Store(ctx.Err() != nil)
		return writeOutput("Part01.m4b", 64)(ctx, stagingDir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.GetOrBuild(ctx, testKey("fp-a"), build)
		done <- err
	}()

	// The initiating request goes away mid-build; the build must not notice.
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)
	require.NoError(t, <-done)

	assert.False(t, sawCancel.Load(), "build context must outlive the initiating request")

	artifact, err := m.GetOrBuild(context.Background(), testKey("fp-a"), build)
	require.NoError(t, err)
	assert.Equal(t, int32(1), builds.Load(), "completed build must be committed and reused")
	assert.Equal(t, "fp-a", artifact.Fingerprint)
	assert.FileExists(t, filepath.Join(artifact.Dir, "Part01.m4b"))
}

func TestWaiterAbandonKeepsTaxonomy(t *testing.T) {
	m := newTestManager(t)

	release := make(chan struct{})
	build := func(ctx context.Context, stagingDir string) ([]renderer.OutputFile, error) {
		<-release
		return writeOutput("Part01.m4b", 64)(ctx, stagingDir)
	}

	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		_, _ = m.GetOrBuild(context.Background(), testKey("fp-a"), build)
	}()
	time.Sleep(50 * time.Millisecond)

	waiterCtx, cancelWaiter := context.WithCancel(context.Background())
	cancelWaiter()
	_, err := m.GetOrBuild(waiterCtx, testKey("fp-a"), build)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEqual(t, 500, services.HTTPStatus(err), "abandonment is the client's doing, not a server fault")

	close(release)
	<-leaderDone
}

func TestGetOrBuildDistinctFingerprintsBuildIndependently(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var builds atomic.Int32
	build := func(ctx context.Context, stagingDir string) ([]renderer.OutputFile, error) {
		builds.Add(1)
		return writeOutput("Part01.m4b", 64)(ctx, stagingDir)
	}

	_, err := m.GetOrBuild(ctx, Key{Fingerprint: "fp-a", EntryID: "book-1", Mode: layout.ModeChapters}, build)
	require.NoError(t, err)
	_, err = m.GetOrBuild(ctx, Key{Fingerprint: "fp-b", EntryID: "book-2", Mode: layout.ModeChapters}, build)
	require.NoError(t, err)

	assert.Equal(t, int32(2), builds.Load())
}

func TestGetOrBuildFailureSharedButNotSticky(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	release := make(chan struct{})
	buildErr := services.Wrap(services.ErrRenderFailed, "renderer", "render segment", "boom", errors.New("exit status 1"))
	failing := func(context.Context, string) ([]renderer.OutputFile, error) {
		<-release
		return nil, buildErr
	}

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.GetOrBuild(ctx, testKey("fp-a"), failing)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.Error(t, errs[i])
		assert.ErrorIs(t, errs[i], services.ErrRenderFailed)
	}

	// A failed build leaves nothing behind; the next request builds fresh.
	var builds atomic.Int32
	artifact, err := m.GetOrBuild(ctx, testKey("fp-a"), func(ctx context.Context, dir string) ([]renderer.OutputFile, error) {
		builds.Add(1)
		return writeOutput("Part01.m4b", 64)(ctx, dir)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, "fp-a", artifact.Fingerprint)

	entries, err := os.ReadDir(m.root)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, entry.IsDir() && entry.Name() != "fp-a", "unexpected residue: %s", entry.Name())
	}
}

func TestCommitReplacesSupersededRender(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	old, err := m.GetOrBuild(ctx, testKey("fp-old"), writeOutput("Part01.m4b", 64))
	require.NoError(t, err)

	// Same entry and mode under a new fingerprint: the sources changed, so
	// the old render is unreachable and must go.
	fresh, err := m.GetOrBuild(ctx, testKey("fp-new"), writeOutput("Part01.m4b", 64))
	require.NoError(t, err)

	assert.NoDirExists(t, old.Dir)
	assert.DirExists(t, fresh.Dir)

	stale, err := m.Get(ctx, "fp-old")
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestLookupDropsRowWhenDirectoryMissing(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	artifact, err := m.GetOrBuild(ctx, testKey("fp-a"), writeOutput("Part01.m4b", 64))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(artifact.Dir))

	got, err := m.Get(ctx, "fp-a")
	require.NoError(t, err)
	assert.Nil(t, got, "vanished artifact must read as a miss")

	var builds atomic.Int32
	rebuilt, err := m.GetOrBuild(ctx, testKey("fp-a"), func(ctx context.Context, dir string) ([]renderer.OutputFile, error) {
		builds.Add(1)
		return writeOutput("Part01.m4b", 64)(ctx, dir)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), builds.Load())
	assert.DirExists(t, rebuilt.Dir)
}

func TestPruneEvictsOldestBySize(t *testing.T) {
	m := newTestManager(t)
	m.maxBytes = 10_000
	ctx := context.Background()

	for _, key := range []Key{
		{Fingerprint: "fp-1", EntryID: "book-1", Mode: layout.ModeSingleFile},
		{Fingerprint: "fp-2", EntryID: "book-2", Mode: layout.ModeSingleFile},
		{Fingerprint: "fp-3", EntryID: "book-3", Mode: layout.ModeSingleFile},
	} {
		_, err := m.GetOrBuild(ctx, key, writeOutput("Part01.m4b", 4000))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	first, err := m.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.Nil(t, first, "oldest artifact should be evicted once the cap is exceeded")

	for _, fp := range []string{"fp-2", "fp-3"} {
		artifact, err := m.Get(ctx, fp)
		require.NoError(t, err)
		require.NotNil(t, artifact, "artifact %s should survive", fp)
	}
}

func TestPruneProtectsKeepDir(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	artifact, err := m.GetOrBuild(ctx, testKey("fp-a"), writeOutput("Part01.m4b", 4000))
	require.NoError(t, err)

	m.maxBytes = 1
	err = m.Prune(ctx, artifact.Dir)
	require.Error(t, err, "sole artifact is protected, limits cannot be met")
	assert.DirExists(t, artifact.Dir)
}

func TestPruneEvictsForFreeSpace(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.GetOrBuild(ctx, Key{Fingerprint: "fp-1", EntryID: "book-1", Mode: layout.ModeSingleFile}, writeOutput("Part01.m4b", 64))
	require.NoError(t, err)
	keep, err := m.GetOrBuild(ctx, Key{Fingerprint: "fp-2", EntryID: "book-2", Mode: layout.ModeSingleFile}, writeOutput("Part01.m4b", 64))
	require.NoError(t, err)

	// Starved until the first eviction frees space.
	var statCalls atomic.Int32
	m.statfs = func(string) (uint64, uint64, error) {
		if statCalls.Add(1) == 1 {
			return 1000, 10, nil
		}
		return 1000, 500, nil
	}
	require.NoError(t, m.Prune(ctx, keep.Dir))

	evicted, err := m.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.Nil(t, evicted)
	assert.DirExists(t, keep.Dir)
}

func TestPruneRetentionExpiry(t *testing.T) {
	m := newTestManager(t)
	m.retention = 24 * time.Hour
	ctx := context.Background()

	artifact, err := m.GetOrBuild(ctx, testKey("fp-a"), writeOutput("Part01.m4b", 64))
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339Nano)
	_, err = m.store.db.ExecContext(ctx, `UPDATE artifacts SET last_access = ? WHERE fingerprint = ?`, stale, "fp-a")
	require.NoError(t, err)

	require.NoError(t, m.Prune(ctx, ""))

	got, err := m.Get(ctx, "fp-a")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoDirExists(t, artifact.Dir)
}

func TestMetadataSidecarRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	artifact, err := m.GetOrBuild(ctx, testKey("fp-a"), writeOutput("Part01.m4b", 64))
	require.NoError(t, err)

	restored, err := readMetadata(artifact.Dir)
	require.NoError(t, err)
	assert.Equal(t, artifact.Fingerprint, restored.Fingerprint)
	assert.Equal(t, artifact.EntryID, restored.EntryID)
	assert.Equal(t, artifact.Mode, restored.Mode)
	assert.Equal(t, artifact.Files, restored.Files)
}
