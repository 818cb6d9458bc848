package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/slicersave/internal/backup"
	ssErrors "github.com/thoreinstein/slicersave/internal/errors"
)

var verifyStrict bool

func init() {
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false,
		"treat untracked extra files as a verification failure")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify <artifact>",
	Short: "Verify a backup's integrity",
	Long: `Verify every file in a backup artifact against the SHA256 digests
recorded in its manifest.

Missing files and digest mismatches fail verification. Files present
in the artifact but absent from the manifest are reported but do not
fail verification unless --strict is given.

The command exits non-zero when verification fails.`,
	Example: `  # Verify an artifact
  slicersave verify ~/OrcaBackups/Orca_Flashforge_backup_2026-01-23_10-07-12.zip

  # Fail on untracked files too
  slicersave verify --strict ~/OrcaBackups/some_backup.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	return runVerifyWithWriter(cmd, args[0], os.Stdout)
}

func runVerifyWithWriter(cmd *cobra.Command, artifactPath string, w io.Writer) error {
	strict := verifyStrict
	if !cmd.Flags().Changed("strict") {
		strict = loadedConfig().StrictExtra
	}

	report, err := backup.Verify(artifactPath, backup.VerifyOptions{Strict: strict})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ssErrors.NewUserError(
				errors.Wrap(ssErrors.ErrBackupNotFound, artifactPath), "")
		}
		return errors.Wrap(err, "verifying backup")
	}

	for _, path := range report.Missing {
		fmt.Fprintf(w, "%smissing    %s%s\n", colorRed, path, colorReset)
	}
	for _, path := range report.Mismatched {
		fmt.Fprintf(w, "%smismatch   %s%s\n", colorRed, path, colorReset)
	}
	for _, path := range report.Extra {
		fmt.Fprintf(w, "%suntracked  %s%s\n", colorYellow, path, colorReset)
	}

	if !report.Valid() {
		fmt.Fprintf(w, "%s✗ verification failed: %d missing, %d mismatched, %d untracked%s\n",
			colorRed, len(report.Missing), len(report.Mismatched), len(report.Extra), colorReset)
		return ssErrors.NewExitError(ssErrors.ErrVerificationFailed, ssErrors.ExitUser)
	}

	fmt.Fprintf(w, "%s✓ backup verified%s\n", colorGreen, colorReset)
	return nil
}
