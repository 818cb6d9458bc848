package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/slicersave/internal/backup"
	ssErrors "github.com/thoreinstein/slicersave/internal/errors"
	"github.com/thoreinstein/slicersave/internal/manifest"
)

var infoFormat string

func init() {
	infoCmd.Flags().StringVar(&infoFormat, "format", "table",
		"output format: table, json, yaml")
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info <artifact>",
	Short: "Show a backup's manifest",
	Long: `Show the manifest of a backup artifact: slicer identity and version,
creation time, platform, and the recorded file list with sizes and
digests.

The manifest is read without extracting or verifying the artifact.`,
	Example: `  # Summarize an artifact
  slicersave info ~/OrcaBackups/Orca_Flashforge_backup_2026-01-23_10-07-12.zip

  # Full manifest as YAML
  slicersave info --format yaml ~/OrcaBackups/some_backup.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(_ *cobra.Command, args []string) error {
	return runInfoWithWriter(args[0], os.Stdout)
}

func runInfoWithWriter(artifactPath string, w io.Writer) error {
	m, err := backup.ReadManifest(artifactPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ssErrors.NewUserError(
				errors.Wrap(ssErrors.ErrBackupNotFound, artifactPath), "")
		}
		return errors.Wrap(err, "reading artifact manifest")
	}

	switch infoFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(m)
	case "table", "":
		return infoTable(m, w)
	}
	return ssErrors.NewUserError(
		errors.Newf("unknown format %q", infoFormat),
		"Valid formats: table, json, yaml")
}

func infoTable(m *manifest.Manifest, w io.Writer) error {
	container := "directory"
	if m.Compressed {
		container = "zip"
	}

	fmt.Fprintf(w, "%sSlicer:%s    %s %s\n", colorBold, colorReset, m.Slicer, m.SlicerVersion)
	fmt.Fprintf(w, "%sCreated:%s   %s\n", colorBold, colorReset,
		m.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%sPlatform:%s  %s\n", colorBold, colorReset, m.Platform)
	fmt.Fprintf(w, "%sContainer:%s %s\n", colorBold, colorReset, container)
	fmt.Fprintf(w, "%sFiles:%s     %d (%s)\n", colorBold, colorReset,
		m.TotalFiles, humanSize(m.TotalSize))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sPATH%s\t%sSIZE%s\t%sSHA256%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)
	for _, f := range m.Files {
		// Manifests are external input; digests may be malformed or empty.
		digest := f.SHA256
		if len(digest) > 12 {
			digest = digest[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s%s\n",
			f.Path, humanSize(f.Size), colorGray, digest, colorReset)
	}
	return tw.Flush()
}
