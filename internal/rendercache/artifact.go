package rendercache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"audiofeeder/internal/layout"
	"audiofeeder/internal/renderer"
)

// metadataFileName is the sidecar written into every artifact directory so
// entries remain inspectable without the index database.
const metadataFileName = ".artifact.json"

// Key identifies one renderable artifact.
type Key struct {
	Fingerprint string
	EntryID     string
	Mode        layout.Mode
}

// Artifact is a finished render: the ordered output files of one (entry,
// mode) pair plus the fingerprint they were built from. Artifacts are
// immutable once committed; the cache is their sole owner.
type Artifact struct {
	Fingerprint string                `json:"fingerprint"`
	EntryID     string                `json:"entry_id"`
	Mode        layout.Mode           `json:"mode"`
	Dir         string                `json:"dir"`
	Files       []renderer.OutputFile `json:"files"`
	SizeBytes   int64                 `json:"size_bytes"`
	CreatedAt   time.Time             `json:"created_at"`

	// LastAccess comes from the index, not the sidecar; it changes on
	// every cache hit while the artifact itself stays immutable.
	LastAccess time.Time `json:"-"`
}

// TotalDuration sums the durations of every output file in seconds.
func (a *Artifact) TotalDuration() float64 {
	total := 0.0
	for _, f := range a.Files {
		total += f.Duration
	}
	return total
}

// FilePath resolves an output file to an absolute path, honoring reference
// outputs that point back into the source library.
func (a *Artifact) FilePath(f renderer.OutputFile) string {
	if f.Reference || filepath.IsAbs(f.Path) {
		return f.Path
	}
	return filepath.Join(a.Dir, f.Path)
}

func writeMetadata(dir string, artifact *Artifact) error {
	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metadataFileName), payload, 0o644)
}

func readMetadata(dir string) (*Artifact, error) {
	payload, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}
