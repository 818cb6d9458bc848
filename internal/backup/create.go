package backup

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/slicersave/internal/archive"
	"github.com/thoreinstein/slicersave/internal/manifest"
	"github.com/thoreinstein/slicersave/internal/paths"
	"github.com/thoreinstein/slicersave/pkg/fileutil"
)

// Create takes a full snapshot of the policy-selected parts of src.Root and
// writes a self-contained artifact into destDir. The artifact name carries
// the slicer identity and a second-precision timestamp; avoiding collisions
// between artifacts of the same second is the caller's concern.
//
// Any I/O failure before the artifact is finished is fatal and leaves no
// partially-formed artifact behind. The temporary staging directory is
// removed on every exit path.
func Create(src Source, destDir string, opts CreateOptions) (*CreateResult, error) {
	if _, err := os.Stat(src.Root); err != nil {
		return nil, errors.Wrapf(err, "source root %s", src.Root)
	}
	if err := paths.EnsureDir(destDir, 0); err != nil {
		return nil, errors.Wrapf(err, "creating destination %s", destDir)
	}

	tempDir, err := os.MkdirTemp("", "slicersave-backup-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating staging directory")
	}
	defer os.RemoveAll(tempDir)

	stagingDir := filepath.Join(tempDir, "backup")
	if err := os.Mkdir(stagingDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating staging directory")
	}

	entries, err := stageTree(src.Root, stagingDir, src.Policy)
	if err != nil {
		return nil, errors.Wrapf(err, "staging %s", src.Root)
	}
	slog.Debug("staging complete", "slicer", src.Slicer, "files", len(entries))

	m := manifest.New(src.Slicer, src.SlicerVersion, src.Platform, entries, opts.Compress)
	if err := m.Write(stagingDir); err != nil {
		return nil, err
	}

	artifactPath := filepath.Join(destDir, paths.BackupName(src.Slicer, m.CreatedAt, opts.Compress))

	if opts.Compress {
		if err := archive.Pack(stagingDir, artifactPath); err != nil {
			return nil, err
		}
	} else {
		if err := moveStaging(stagingDir, artifactPath); err != nil {
			return nil, err
		}
	}
	slog.Debug("artifact written", "path", artifactPath, "compressed", opts.Compress)

	result := &CreateResult{
		Manifest:     m,
		ArtifactPath: artifactPath,
	}

	if opts.Verify {
		report, err := Verify(artifactPath, VerifyOptions{})
		if err != nil {
			// The artifact is already on disk; verification trouble is the
			// operator's to inspect, not grounds for deleting their backup.
			result.VerifyErr = err
		} else {
			result.VerifyReport = report
		}
	}

	return result, nil
}

// moveStaging turns the staging directory itself into the artifact.
// Rename is preferred; when staging and destination are on different
// filesystems it falls back to a copy, removing any partial artifact on
// failure.
func moveStaging(stagingDir, artifactPath string) error {
	if err := os.Rename(stagingDir, artifactPath); err == nil {
		return nil
	}

	if err := fileutil.CopyTree(stagingDir, artifactPath); err != nil {
		os.RemoveAll(artifactPath)
		return errors.Wrapf(err, "writing artifact %s", artifactPath)
	}
	return nil
}
