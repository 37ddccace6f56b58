package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bennypowers.dev/csscomb/internal/version"
)

var versionFormat string

var versionLabel = color.New(color.FgCyan, color.Bold)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		switch versionFormat {
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout())
			return nil
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(version.GetBuildInfo())
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

func renderVersionPretty(w io.Writer) {
	info := version.GetBuildInfo()
	fmt.Fprintf(w, "%s %s\n", versionLabel.Sprint(rootCmd.Name()), version.GetFullVersion())
	for _, key := range []string{"gitTag", "buildTime"} {
		if v := info[key]; v != "" && v != "unknown" {
			fmt.Fprintf(w, "  %-10s %s\n", key+":", v)
		}
	}
	if info["gitDirty"] == "dirty" {
		fmt.Fprintln(w, "  built from a modified tree")
	}
}
