package backup

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/slicersave/internal/manifest"
	"github.com/thoreinstein/slicersave/internal/slicer"
)

// Sentinel errors for backup operations.
var (
	// ErrInvalidBackup indicates an artifact failed integrity verification.
	ErrInvalidBackup = errors.New("backup failed verification")

	// ErrNotAnArtifact indicates a path that is neither a container file
	// nor a directory artifact.
	ErrNotAnArtifact = errors.New("not a backup artifact")
)

// Source describes the configuration tree a backup is taken from.
// The slicer identity is validated by the caller before it gets here and
// is carried as a plain string.
type Source struct {
	// Slicer is the application identity recorded in the manifest.
	Slicer string

	// SlicerVersion is the detected application version, empty when unknown.
	SlicerVersion string

	// Platform is the host OS tag recorded in the manifest.
	Platform string

	// Root is the configuration tree root on disk.
	Root string

	// Policy selects which parts of Root are included.
	Policy slicer.Policy
}

// CreateOptions controls backup creation.
type CreateOptions struct {
	// Compress seals the artifact into a single ZIP container instead of
	// a plain directory.
	Compress bool

	// Verify runs integrity verification against the finished artifact.
	// A verification failure is surfaced on the result as a warning, not
	// an error: the artifact has already been written.
	Verify bool
}

// CreateResult is the outcome of a successful backup creation.
type CreateResult struct {
	// Manifest is the sealed manifest written into the artifact.
	Manifest *manifest.Manifest

	// ArtifactPath is the finished artifact's location.
	ArtifactPath string

	// VerifyReport holds the post-creation verification outcome when
	// verification was requested and ran to completion.
	VerifyReport *Report

	// VerifyErr holds the reason verification could not run, if any.
	VerifyErr error
}

// VerifyOptions controls integrity verification.
type VerifyOptions struct {
	// Strict makes untracked extra files invalidate the report.
	// By default extras are informational only.
	Strict bool
}

// Report is the outcome of verifying an artifact against its manifest.
type Report struct {
	// Missing lists manifest entries with no file on disk.
	Missing []string

	// Mismatched lists files whose recomputed digest differs from the
	// recorded one.
	Mismatched []string

	// Extra lists files present in the artifact but absent from the
	// manifest.
	Extra []string

	// Strict records whether extras count against validity.
	Strict bool
}

// Valid reports whether the artifact passed verification.
func (r *Report) Valid() bool {
	if len(r.Missing) > 0 || len(r.Mismatched) > 0 {
		return false
	}
	if r.Strict && len(r.Extra) > 0 {
		return false
	}
	return true
}

// Step identifies a state of the restore state machine.
type Step string

// Restore steps, in execution order.
const (
	StepVerify       Step = "verify"
	StepSafetyBackup Step = "safety-backup"
	StepExtract      Step = "extract"
	StepPlan         Step = "plan"
	StepApply        Step = "apply"
)

// StepError is a restore failure annotated with the step it occurred in.
type StepError struct {
	Step Step
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("restore %s step: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// RestoreOptions controls a restore operation.
type RestoreOptions struct {
	// DryRun stops after planning; neither the destination nor the
	// safety-backup location is touched.
	DryRun bool

	// SkipSafetyBackup disables the pre-restore backup of the
	// destination's current state.
	SkipSafetyBackup bool

	// SafetyBackupDir overrides where the pre-restore backup is written.
	// Defaults to a pre_restore_backups directory beside the destination.
	SafetyBackupDir string
}

// RestoreOp is one planned file operation of a restore.
type RestoreOp struct {
	// Path is the archive-relative, slash-normalized file path.
	Path string

	// Dest is the absolute destination path that will be written.
	Dest string

	// Overwrite reports whether a file already exists at Dest.
	Overwrite bool
}

// RestoreResult is the outcome of a restore, successful or not.
// On an apply failure it still carries the files applied before the
// failure and the safety backup location, so the operator can recover.
type RestoreResult struct {
	// Plan lists every file operation in order.
	Plan []RestoreOp

	// Applied lists the relative paths written to the destination.
	Applied []string

	// SafetyBackupPath is the pre-restore backup artifact, empty when the
	// safety step was skipped or did not run.
	SafetyBackupPath string

	// DryRun reports whether execution stopped after planning.
	DryRun bool
}
