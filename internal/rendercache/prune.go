package rendercache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"audiofeeder/internal/logging"
)

// Stats describes current cache usage.
type Stats struct {
	Artifacts    int     `json:"artifacts"`
	TotalBytes   int64   `json:"total_bytes"`
	MaxBytes     int64   `json:"max_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
	TotalFSBytes uint64  `json:"total_fs_bytes"`
	FreeRatio    float64 `json:"free_ratio"`
}

// Stats returns current cache usage and filesystem free-space info.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	artifacts, err := m.store.ListByAccess(ctx)
	if err != nil {
		return Stats{}, err
	}
	totalSize, err := m.store.TotalSize(ctx)
	if err != nil {
		return Stats{}, err
	}
	totalFS, freeFS, err := m.statfs(m.root)
	if err != nil {
		return Stats{}, fmt.Errorf("rendercache: statfs: %w", err)
	}
	ratio := 1.0
	if totalFS > 0 {
		ratio = float64(freeFS) / float64(totalFS)
	}
	return Stats{
		Artifacts:    len(artifacts),
		TotalBytes:   totalSize,
		MaxBytes:     m.maxBytes,
		FreeBytes:    freeFS,
		TotalFSBytes: totalFS,
		FreeRatio:    ratio,
	}, nil
}

// Prune applies the retention, size, and free-space policies. keepDir, when
// provided, is never removed; an artifact a caller just received must
// survive the prune that follows its own build.
func (m *Manager) Prune(ctx context.Context, keepDir string) error {
	return m.prune(ctx, keepDir)
}

func (m *Manager) prune(ctx context.Context, keepDir string) error {
	artifacts, err := m.store.ListByAccess(ctx)
	if err != nil {
		return err
	}
	totalSize, err := m.store.TotalSize(ctx)
	if err != nil {
		return err
	}

	if m.retention > 0 {
		cutoff := time.Now().Add(-m.retention)
		remaining := artifacts[:0]
		for _, artifact := range artifacts {
			if artifact.LastAccess.Before(cutoff) && !samePath(artifact.Dir, keepDir) {
				if err := m.remove(ctx, artifact, "retention expired"); err != nil {
					return err
				}
				totalSize -= artifact.SizeBytes
				continue
			}
			remaining = append(remaining, artifact)
		}
		artifacts = remaining
	}

	for len(artifacts) > 0 {
		freeOK, err := m.freeSpaceOK()
		if err != nil {
			return err
		}
		if (m.maxBytes <= 0 || totalSize <= m.maxBytes) && freeOK {
			return nil
		}
		oldest := artifacts[0]
		if samePath(oldest.Dir, keepDir) {
			if len(artifacts) == 1 {
				return fmt.Errorf("rendercache: cache over limits and active artifact %q cannot be pruned", keepDir)
			}
			artifacts = artifacts[1:]
			continue
		}
		if err := m.remove(ctx, oldest, "evicted for space"); err != nil {
			return err
		}
		totalSize -= oldest.SizeBytes
		artifacts = artifacts[1:]
	}
	return nil
}

func (m *Manager) remove(ctx context.Context, artifact *Artifact, reason string) error {
	if err := os.RemoveAll(artifact.Dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("rendercache: remove %q: %w", artifact.Dir, err)
	}
	if err := m.store.Delete(ctx, artifact.Fingerprint); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "pruned artifact",
		logging.String(logging.FieldEntryID, artifact.EntryID),
		logging.String(logging.FieldRenderMode, string(artifact.Mode)),
		logging.String(logging.FieldFingerprint, artifact.Fingerprint),
		logging.Int64("size_bytes", artifact.SizeBytes),
		logging.String("reason", reason),
	)
	return nil
}

func (m *Manager) freeSpaceOK() (bool, error) {
	if m.freeMin <= 0 {
		return true, nil
	}
	total, free, err := m.statfs(m.root)
	if err != nil {
		return false, fmt.Errorf("rendercache: statfs: %w", err)
	}
	if total == 0 {
		return true, nil
	}
	ratio := float64(free) / float64(total)
	return ratio >= m.freeMin, nil
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if ra, err := filepath.EvalSymlinks(a); err == nil {
		a = ra
	}
	if rb, err := filepath.EvalSymlinks(b); err == nil {
		b = rb
	}
	return a == b
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}

func existsNonEmptyDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
