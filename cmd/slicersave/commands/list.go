package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/slicersave/internal/slicer"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported slicers and their installation status",
	Long: `List every supported slicer with its configuration directory,
installation status, and detected version.

A slicer counts as installed when its configuration directory contains
the main .conf file and a user profiles directory.`,
	Example: `  # Show detection results
  slicersave list

  # Output as JSON
  slicersave list --json`,
	RunE: runList,
}

// slicerOutput represents a single detection result in JSON output.
type slicerOutput struct {
	Slicer    string `json:"slicer"`
	ConfigDir string `json:"config_dir"`
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
}

func runList(_ *cobra.Command, _ []string) error {
	return runListWithWriter(os.Stdout)
}

func runListWithWriter(w io.Writer) error {
	infos := slicer.DetectAll()

	if listJSON {
		output := make([]slicerOutput, len(infos))
		for i, info := range infos {
			output[i] = slicerOutput{
				Slicer:    info.Type.String(),
				ConfigDir: info.ConfigDir,
				Installed: info.Valid(),
				Version:   info.Version,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sSLICER%s\t%sSTATUS%s\t%sVERSION%s\t%sCONFIG DIR%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)

	for _, info := range infos {
		status := colorGray + "not installed" + colorReset
		if info.Valid() {
			status = colorGreen + "installed" + colorReset
		} else if info.Exists {
			status = colorYellow + "incomplete" + colorReset
		}

		ver := info.Version
		if ver == "" {
			ver = "-"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			info.Type.DisplayName(), status, ver, info.ConfigDir)
	}

	return tw.Flush()
}
