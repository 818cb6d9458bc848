// Package backup implements the backup, verify, and restore engine for
// slicer configuration trees.
//
// # Backup
//
// [Create] stages a policy-selected copy of the source tree into a
// temporary directory, records a manifest with per-file SHA256 digests,
// and seals the result into an artifact: either a single compressed ZIP
// container or a plain directory. Artifacts are created once and never
// mutated afterwards.
//
//	result, err := backup.Create(backup.Source{
//	    Slicer:   "orcaslicer",
//	    Root:     "/home/user/.config/OrcaSlicer",
//	    Platform: "linux",
//	    Policy:   slicer.PolicyFor(slicer.TypeOrcaSlicer),
//	}, destDir, backup.CreateOptions{Compress: true, Verify: true})
//
// # Verify
//
// [Verify] recomputes every digest recorded in an artifact's manifest and
// reports missing files, mismatches, and untracked extras. Compressed
// artifacts are extracted to a scratch directory first so hashing has a
// single code path; scratch directories are removed on every exit path.
// Structural problems (no manifest, corrupt container) are fatal errors,
// not report entries.
//
// # Restore
//
// [Restore] is a strictly ordered state machine: verify the artifact,
// safety-backup the destination's current state, extract, plan, apply,
// clean up. Every step either completes fully or aborts the operation
// before the destination is mutated further. A dry run stops after
// planning and leaves both the destination and the safety-backup location
// untouched. Failures carry the step at which they occurred via
// [StepError].
//
// The engine is single-threaded and synchronous. Concurrent invocations
// against the same destination are not supported.
package backup
