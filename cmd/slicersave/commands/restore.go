package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/slicersave/internal/archive"
	"github.com/thoreinstein/slicersave/internal/backup"
	ssErrors "github.com/thoreinstein/slicersave/internal/errors"
	"github.com/thoreinstein/slicersave/internal/manifest"
	"github.com/thoreinstein/slicersave/internal/slicer"
)

var (
	restoreSlicer   string
	restoreDest     string
	restoreDryRun   bool
	restoreNoSafety bool
)

func init() {
	restoreCmd.Flags().StringVarP(&restoreSlicer, "slicer", "s", "",
		"restore destination slicer (default: the slicer recorded in the artifact)")
	restoreCmd.Flags().StringVar(&restoreDest, "dest", "",
		"destination directory (default: the slicer's config directory)")
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false,
		"show what would be restored without writing anything")
	restoreCmd.Flags().BoolVar(&restoreNoSafety, "no-safety-backup", false,
		"skip backing up the existing configuration first")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [artifact]",
	Short: "Restore a slicer configuration from a backup",
	Long: `Restore a slicer configuration tree from a backup artifact.

The artifact is verified before anything is written; a corrupt or
tampered backup aborts the restore. When the destination already holds
a configuration, it is snapshotted into pre_restore_backups first so
the restore can be undone.

Files are restored with merge semantics: backed-up files overwrite
their counterparts, files the backup does not know about are left
alone.

With no artifact argument, backups in the configured backup directory
are offered in an interactive picker.`,
	Example: `  # Pick an artifact interactively
  slicersave restore

  # Restore a specific artifact
  slicersave restore ~/OrcaBackups/Orca_Flashforge_backup_2026-01-23_10-07-12.zip

  # Preview without writing
  slicersave restore --dry-run

  See Also:
    slicersave verify - Verify an artifact without restoring
    slicersave info   - Inspect an artifact's manifest`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	return runRestoreWithWriter(cmd, args, os.Stdout)
}

func runRestoreWithWriter(_ *cobra.Command, args []string, w io.Writer) error {
	var artifactPath string
	if len(args) > 0 {
		artifactPath = args[0]
	} else {
		picked, err := pickArtifact(loadedConfig().BackupDir)
		if err != nil {
			return err
		}
		artifactPath = picked
	}

	m, err := backup.ReadManifest(artifactPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ssErrors.NewUserError(
				errors.Wrap(ssErrors.ErrBackupNotFound, artifactPath),
				"Run 'slicersave restore' without arguments to pick from available backups")
		}
		return errors.Wrap(err, "reading artifact manifest")
	}

	// Destination slicer: flag overrides the artifact's recorded identity.
	slicerName := m.Slicer
	if restoreSlicer != "" {
		slicerName = restoreSlicer
	}
	t, err := slicer.ParseType(slicerName)
	if err != nil {
		return ssErrors.NewUserError(err, "Valid slicers: orcaslicer, orca-flashforge")
	}

	destDir := restoreDest
	if destDir == "" {
		destDir = slicer.ConfigDir(t)
	}

	fmt.Fprintf(w, "Restoring %s backup from %s (%d files)\n",
		t.DisplayName(), m.CreatedAt.Local().Format("2006-01-02 15:04:05"), m.TotalFiles)
	fmt.Fprintf(w, "Destination: %s\n", destDir)

	result, err := backup.Restore(artifactPath, destDir, backup.RestoreOptions{
		DryRun:           restoreDryRun,
		SkipSafetyBackup: restoreNoSafety,
	})
	if err != nil {
		var stepErr *backup.StepError
		if errors.As(err, &stepErr) && stepErr.Step == backup.StepVerify {
			return ssErrors.NewUserError(err,
				"The artifact failed verification; run 'slicersave verify' for details")
		}
		if result != nil && result.SafetyBackupPath != "" {
			fmt.Fprintf(w, "%sRestore failed after %d files; the previous configuration is saved at %s%s\n",
				colorYellow, len(result.Applied), result.SafetyBackupPath, colorReset)
		}
		return errors.Wrap(err, "restoring backup")
	}

	if result.SafetyBackupPath != "" {
		fmt.Fprintf(w, "Existing configuration saved to %s\n", result.SafetyBackupPath)
	}

	if result.DryRun {
		fmt.Fprintf(w, "\n%sDry run; no files were written.%s\n", colorYellow, colorReset)
		for _, op := range result.Plan {
			marker := colorGreen + "create" + colorReset
			if op.Overwrite {
				marker = colorYellow + "overwrite" + colorReset
			}
			fmt.Fprintf(w, "  %s  %s\n", marker, op.Path)
		}
		return nil
	}

	fmt.Fprintf(w, "%s✓ Restored %d files to %s%s\n",
		colorGreen, len(result.Applied), destDir, colorReset)
	return nil
}

// artifactEntry is one selectable backup in the interactive picker.
type artifactEntry struct {
	path     string
	modTime  time.Time
	manifest *manifest.Manifest
}

// pickArtifact lists backups under dir and lets the user pick one,
// newest first.
func pickArtifact(dir string) (string, error) {
	entries, err := listArtifacts(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", ssErrors.NewUserError(
			errors.Wrapf(ssErrors.ErrBackupNotFound, "no backups in %s", dir),
			"Create one with 'slicersave backup'")
	}

	idx, err := fuzzyfinder.Find(
		entries,
		func(i int) string {
			return filepath.Base(entries[i].path)
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			e := entries[i]
			if e.manifest == nil {
				return "(manifest unreadable)"
			}
			return fmt.Sprintf("Slicer: %s %s\nCreated: %s\nFiles: %d\nSize: %s",
				e.manifest.Slicer,
				e.manifest.SlicerVersion,
				e.manifest.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.manifest.TotalFiles,
				humanSize(e.manifest.TotalSize),
			)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", ssErrors.NewUserError(nil, "Restore cancelled")
		}
		return "", errors.Wrap(err, "selecting backup")
	}

	return entries[idx].path, nil
}

// listArtifacts returns the backups in dir, both ZIP containers and
// uncompressed backup directories, newest first. Manifests are read
// best-effort for the preview.
func listArtifacts(dir string) ([]artifactEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", dir)
	}

	var found []artifactEntry
	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())

		switch {
		case !de.IsDir() && archive.IsArchive(path):
		case de.IsDir() && fileExistsIn(path, manifest.Filename):
		default:
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}

		entry := artifactEntry{path: path, modTime: info.ModTime()}
		if m, err := backup.ReadManifest(path); err == nil {
			entry.manifest = m
		}
		found = append(found, entry)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].modTime.After(found[j].modTime)
	})
	return found, nil
}

func fileExistsIn(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.Mode().IsRegular()
}
