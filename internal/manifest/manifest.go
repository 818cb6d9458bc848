// Package manifest defines the backup manifest: the authoritative record of
// which files, sizes, and digests constitute one backup.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/slicersave/pkg/fileutil"
)

// Filename is the fixed name of the manifest file at the artifact root.
const Filename = "backup_manifest.json"

// Version is the manifest schema version.
const Version = "1.0"

// ErrMissing indicates the artifact has no manifest file.
// This is a structural error: the artifact cannot be verified or restored.
var ErrMissing = errors.New("backup manifest missing")

// FileEntry records one file in a backup. Paths are archive-relative and
// slash-normalized regardless of host OS. Entries are immutable once
// written into a manifest.
type FileEntry struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Manifest describes the complete contents of one backup.
//
// TotalFiles and TotalSize are derived from Files by Seal; verification
// recomputes them rather than trusting the stored values.
type Manifest struct {
	Version       string      `json:"version"`
	CreatedAt     time.Time   `json:"created_at"`
	Slicer        string      `json:"slicer"`
	SlicerVersion string      `json:"slicer_version"`
	Platform      string      `json:"platform"`
	Files         []FileEntry `json:"files"`
	TotalFiles    int         `json:"total_files"`
	TotalSize     int64       `json:"total_size"`
	Compressed    bool        `json:"compressed"`
}

// New creates a sealed manifest for the given file set.
// The creation timestamp is taken in UTC.
func New(slicer, slicerVersion, platform string, files []FileEntry, compressed bool) *Manifest {
	m := &Manifest{
		Version:       Version,
		CreatedAt:     time.Now().UTC(),
		Slicer:        slicer,
		SlicerVersion: slicerVersion,
		Platform:      platform,
		Files:         files,
		Compressed:    compressed,
	}
	m.Seal()
	return m
}

// Seal derives TotalFiles and TotalSize from the file list.
func (m *Manifest) Seal() {
	m.TotalFiles = len(m.Files)
	var total int64
	for _, f := range m.Files {
		total += f.Size
	}
	m.TotalSize = total
}

// Write stores the manifest at its fixed filename under dir.
func (m *Manifest) Write(dir string) error {
	path := filepath.Join(dir, Filename)
	if err := fileutil.AtomicWriteJSON(path, m); err != nil {
		return errors.Wrapf(err, "writing manifest %s", path)
	}
	return nil
}

// Load reads the manifest from its fixed filename under dir.
// Returns ErrMissing when the file does not exist.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, Filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissing, "%s", path)
		}
		return nil, errors.Wrapf(err, "reading manifest %s", path)
	}

	return Parse(data)
}

// Parse decodes manifest JSON.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	return &m, nil
}
