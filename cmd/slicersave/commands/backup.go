package commands

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/slicersave/internal/backup"
	ssErrors "github.com/thoreinstein/slicersave/internal/errors"
	"github.com/thoreinstein/slicersave/internal/slicer"
)

var (
	backupSlicer   string
	backupOutput   string
	backupCompress bool
	backupVerify   bool
)

func init() {
	backupCmd.Flags().StringVarP(&backupSlicer, "slicer", "s", "all",
		"slicer to back up: orcaslicer, orca-flashforge, all")
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "",
		"destination directory (default: backup_dir from config)")
	backupCmd.Flags().BoolVar(&backupCompress, "compress", true,
		"seal the backup into a ZIP container")
	backupCmd.Flags().BoolVar(&backupVerify, "verify", true,
		"verify the backup after creation")
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a backup of slicer configurations",
	Long: `Create a backup of slicer configuration trees.

Each backup captures the main .conf file, user profiles, and custom
scripts, records a SHA256 digest per file in a manifest, and seals the
result into a timestamped ZIP container (or a plain directory with
--compress=false).

By default all installed slicers are backed up. Use --slicer to limit
the backup to one.`,
	Example: `  # Back up every installed slicer
  slicersave backup

  # Back up one slicer, uncompressed, to a custom directory
  slicersave backup --slicer orcaslicer --compress=false -o /srv/backups

  See Also:
    slicersave verify  - Verify an existing backup
    slicersave restore - Restore from a backup`,
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, _ []string) error {
	return runBackupWithWriter(cmd, os.Stdout)
}

func runBackupWithWriter(cmd *cobra.Command, w io.Writer) error {
	conf := loadedConfig()

	destDir := backupOutput
	if destDir == "" {
		destDir = conf.BackupDir
	}

	opts := backup.CreateOptions{Compress: backupCompress, Verify: backupVerify}
	if !cmd.Flags().Changed("compress") {
		opts.Compress = conf.Compress
	}
	if !cmd.Flags().Changed("verify") {
		opts.Verify = conf.Verify
	}

	targets, err := resolveBackupTargets(backupSlicer)
	if err != nil {
		return err
	}

	created := 0
	for _, info := range targets {
		src := backup.Source{
			Slicer:        info.Type.String(),
			SlicerVersion: info.Version,
			Platform:      runtime.GOOS,
			Root:          info.ConfigDir,
			Policy:        slicer.PolicyFor(info.Type),
		}

		result, err := backup.Create(src, destDir, opts)
		if err != nil {
			return errors.Wrapf(err, "backing up %s", info.Type.DisplayName())
		}

		fmt.Fprintf(w, "%s✓ %s: %d files, %s → %s%s\n",
			colorGreen, info.Type.DisplayName(),
			result.Manifest.TotalFiles, humanSize(result.Manifest.TotalSize),
			result.ArtifactPath, colorReset)

		if opts.Verify {
			switch {
			case result.VerifyErr != nil:
				fmt.Fprintf(w, "%s  verification error: %v%s\n",
					colorRed, result.VerifyErr, colorReset)
			case !result.VerifyReport.Valid():
				fmt.Fprintf(w, "%s  verification FAILED%s\n", colorRed, colorReset)
			default:
				fmt.Fprintf(w, "%s  verified%s\n", colorGray, colorReset)
			}
		}
		created++
	}

	if created == 0 {
		fmt.Fprintln(w, "No slicers installed; nothing to back up.")
	}

	return nil
}

// resolveBackupTargets turns the --slicer flag into a list of installations.
func resolveBackupTargets(flag string) ([]slicer.Info, error) {
	if flag == "" || flag == "all" {
		return slicer.Installed(), nil
	}

	t, err := slicer.ParseType(flag)
	if err != nil {
		return nil, ssErrors.NewUserError(
			errors.Wrap(ssErrors.ErrInvalidSlicer, flag),
			"Valid slicers: orcaslicer, orca-flashforge, all")
	}

	info := slicer.Detect(t)
	if !info.Valid() {
		return nil, ssErrors.NewUserError(
			errors.Wrapf(ssErrors.ErrSlicerNotFound, "%s (looked in %s)", t.DisplayName(), info.ConfigDir),
			"Run 'slicersave list' to see detected slicers")
	}

	return []slicer.Info{info}, nil
}
