package rendercache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"audiofeeder/internal/layout"
	"audiofeeder/internal/renderer"
)

const artifactSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
    fingerprint TEXT PRIMARY KEY,
    entry_id    TEXT NOT NULL,
    mode        TEXT NOT NULL,
    dir         TEXT NOT NULL,
    files_json  TEXT NOT NULL,
    size_bytes  INTEGER NOT NULL,
    created_at  TEXT NOT NULL,
    last_access TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_entry_mode ON artifacts(entry_id, mode);
CREATE INDEX IF NOT EXISTS idx_artifacts_last_access ON artifacts(last_access);
`

// Store persists the artifact index backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the artifact index database.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(artifactSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply artifact schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put inserts or replaces the index row for an artifact.
func (s *Store) Put(ctx context.Context, artifact *Artifact) error {
	if artifact == nil {
		return errors.New("artifact is nil")
	}
	filesJSON, err := json.Marshal(artifact.Files)
	if err != nil {
		return fmt.Errorf("marshal output files: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO artifacts (fingerprint, entry_id, mode, dir, files_json, size_bytes, created_at, last_access)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(fingerprint) DO UPDATE SET
             entry_id = excluded.entry_id, mode = excluded.mode, dir = excluded.dir,
             files_json = excluded.files_json, size_bytes = excluded.size_bytes,
             created_at = excluded.created_at, last_access = excluded.last_access`,
		artifact.Fingerprint,
		artifact.EntryID,
		string(artifact.Mode),
		artifact.Dir,
		string(filesJSON),
		artifact.SizeBytes,
		artifact.CreatedAt.UTC().Format(time.RFC3339Nano),
		now,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// Get fetches an artifact by fingerprint. Returns nil when absent.
func (s *Store) Get(ctx context.Context, fingerprint string) (*Artifact, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE fingerprint = ?`,
		fingerprint,
	)
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return artifact, nil
}

// Touch refreshes an artifact's access timestamp so pruning keeps hot
// entries around.
func (s *Store) Touch(ctx context.Context, fingerprint string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE artifacts SET last_access = ? WHERE fingerprint = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		fingerprint,
	)
	if err != nil {
		return fmt.Errorf("touch artifact: %w", err)
	}
	return nil
}

// Delete removes an artifact row by fingerprint.
func (s *Store) Delete(ctx context.Context, fingerprint string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE fingerprint = ?`, fingerprint); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

// StaleVersions returns artifacts recorded for the same entry and mode under
// a different fingerprint. These are superseded renders awaiting removal.
func (s *Store) StaleVersions(ctx context.Context, entryID string, mode layout.Mode, keepFingerprint string) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE entry_id = ? AND mode = ? AND fingerprint != ?`,
		entryID,
		string(mode),
		keepFingerprint,
	)
	if err != nil {
		return nil, fmt.Errorf("query stale versions: %w", err)
	}
	defer rows.Close()
	return collectArtifacts(rows)
}

// ListByAccess returns every indexed artifact, least recently accessed
// first. Pruning consumes this ordering directly.
func (s *Store) ListByAccess(ctx context.Context) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+artifactColumns+` FROM artifacts ORDER BY last_access`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()
	return collectArtifacts(rows)
}

// TotalSize sums the recorded size of every indexed artifact.
func (s *Store) TotalSize(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM artifacts`)
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("sum artifact sizes: %w", err)
	}
	return total, nil
}

const artifactColumns = "fingerprint, entry_id, mode, dir, files_json, size_bytes, created_at, last_access"

func collectArtifacts(rows *sql.Rows) ([]*Artifact, error) {
	var artifacts []*Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var (
		fingerprint string
		entryID     string
		mode        string
		dir         string
		filesJSON   string
		sizeBytes   int64
		createdRaw  string
		accessRaw   string
	)
	if err := scanner.Scan(&fingerprint, &entryID, &mode, &dir, &filesJSON, &sizeBytes, &createdRaw, &accessRaw); err != nil {
		return nil, err
	}

	var files []renderer.OutputFile
	if err := json.Unmarshal([]byte(filesJSON), &files); err != nil {
		return nil, fmt.Errorf("unmarshal output files: %w", err)
	}

	artifact := &Artifact{
		Fingerprint: fingerprint,
		EntryID:     entryID,
		Mode:        layout.Mode(mode),
		Dir:         dir,
		Files:       files,
		SizeBytes:   sizeBytes,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		artifact.CreatedAt = created
	}
	if access, err := time.Parse(time.RFC3339Nano, accessRaw); err == nil {
		artifact.LastAccess = access
	}
	return artifact, nil
}
