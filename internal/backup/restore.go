package backup

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/slicersave/internal/archive"
	"github.com/thoreinstein/slicersave/internal/manifest"
	"github.com/thoreinstein/slicersave/internal/slicer"
	"github.com/thoreinstein/slicersave/pkg/fileutil"
)

// Restore applies an artifact's file set to destDir through a strictly
// ordered state machine; see the package documentation for the states.
// It never mutates the source artifact.
//
// The returned result is non-nil whenever planning succeeded, including on
// apply failures, so callers always know which files were written and
// where the safety backup lives. Errors are wrapped in [StepError].
func Restore(artifactPath, destDir string, opts RestoreOptions) (*RestoreResult, error) {
	// Verify: an invalid artifact aborts before anything is touched.
	report, err := Verify(artifactPath, VerifyOptions{})
	if err != nil {
		return nil, &StepError{Step: StepVerify, Err: err}
	}
	if !report.Valid() {
		return nil, &StepError{Step: StepVerify, Err: ErrInvalidBackup}
	}

	m, err := ReadManifest(artifactPath)
	if err != nil {
		return nil, &StepError{Step: StepVerify, Err: err}
	}

	// The manifest is external input: validate its identity once here.
	slicerType, err := slicer.ParseType(m.Slicer)
	if err != nil {
		return nil, &StepError{Step: StepVerify, Err: err}
	}

	result := &RestoreResult{DryRun: opts.DryRun}

	// Safety backup: before any destructive step, snapshot the
	// destination's current state. Failure here is fatal — existing data
	// must never be at risk without an escape hatch. A dry run skips this
	// because no destructive step will follow.
	if !opts.DryRun && !opts.SkipSafetyBackup && dirHasEntries(destDir) {
		safetyPath, err := safetyBackup(slicerType, destDir, opts.SafetyBackupDir)
		if err != nil {
			return nil, &StepError{Step: StepSafetyBackup, Err: err}
		}
		result.SafetyBackupPath = safetyPath
		slog.Info("destination backed up", "artifact", safetyPath)
	}

	// Extract into a scratch directory, removed on every exit path.
	sourceDir := artifactPath
	if archive.IsArchive(artifactPath) {
		scratch, err := os.MkdirTemp("", "slicersave-restore-*")
		if err != nil {
			return nil, &StepError{Step: StepExtract, Err: errors.Wrap(err, "creating scratch directory")}
		}
		defer os.RemoveAll(scratch)

		if err := archive.Unpack(artifactPath, scratch); err != nil {
			return nil, &StepError{Step: StepExtract, Err: err}
		}
		sourceDir = scratch
	}

	// Plan in manifest order.
	for _, entry := range m.Files {
		dest := filepath.Join(destDir, filepath.FromSlash(entry.Path))
		result.Plan = append(result.Plan, RestoreOp{
			Path:      entry.Path,
			Dest:      dest,
			Overwrite: fileExists(dest),
		})
	}

	if opts.DryRun {
		return result, nil
	}

	// Apply with merge semantics: create parents, overwrite same-path
	// files, leave unrelated destination files untouched. A failure
	// mid-apply leaves the destination mixed; the result reports what was
	// applied so the safety backup can be used to recover.
	for _, op := range result.Plan {
		src := filepath.Join(sourceDir, filepath.FromSlash(op.Path))

		if err := os.MkdirAll(filepath.Dir(op.Dest), 0o755); err != nil {
			return result, &StepError{Step: StepApply, Err: errors.Wrapf(err, "creating parent of %s", op.Dest)}
		}
		if _, _, _, err := fileutil.CopyFile(src, op.Dest); err != nil {
			return result, &StepError{Step: StepApply, Err: err}
		}
		result.Applied = append(result.Applied, op.Path)
	}
	slog.Debug("restore applied", "files", len(result.Applied), "destination", destDir)

	return result, nil
}

// ReadManifest reads the manifest from either artifact form: a ZIP
// container or an uncompressed backup directory.
func ReadManifest(artifactPath string) (*manifest.Manifest, error) {
	if archive.IsArchive(artifactPath) {
		return archive.ReadManifest(artifactPath)
	}
	return manifest.Load(artifactPath)
}

// safetyBackup snapshots the destination's current state into sideDir
// (default: pre_restore_backups beside the destination). The snapshot is
// compressed but not re-verified; it is itself a normal artifact.
func safetyBackup(t slicer.Type, destDir, sideDir string) (string, error) {
	if sideDir == "" {
		sideDir = filepath.Join(filepath.Dir(destDir), "pre_restore_backups")
	}

	info := slicer.DetectAt(t, destDir)
	src := Source{
		Slicer:        t.String(),
		SlicerVersion: info.Version,
		Platform:      runtime.GOOS,
		Root:          destDir,
		Policy:        slicer.PolicyFor(t),
	}

	created, err := Create(src, sideDir, CreateOptions{Compress: true})
	if err != nil {
		return "", errors.Wrap(err, "backing up existing configuration")
	}
	return created.ArtifactPath, nil
}

// dirHasEntries reports whether path is a directory with at least one entry.
func dirHasEntries(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
