package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"bennypowers.dev/csscomb/internal/batch"
	"bennypowers.dev/csscomb/internal/format"
	"bennypowers.dev/csscomb/internal/settings"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	changedColor = color.New(color.FgGreen)
	skippedColor = color.New(color.Faint)
)

var formatCmd = &cobra.Command{
	Use:   "format [flags] <path> [path...]",
	Short: "Format stylesheets and the <style> elements of markup files",
	Long: `Formats each file with the configuration an editor would use for it.
Directories are walked; quoted arguments may be doublestar globs such as
'src/**/*.scss'. Without --write the formatted text goes to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFormat,
}

// newFormatter is replaced in tests to isolate config discovery.
var newFormatter = format.NewDefault

func init() {
	formatCmd.Flags().BoolP("write", "w", false, "rewrite files in place")
	formatCmd.Flags().String("preset", "", "built-in preset name, config file path, or inline JSON config")
	formatCmd.Flags().Bool("latest-core", false, "use the next generation of the comb engine")
	formatCmd.Flags().Bool("embedded", true, "format <style> elements in HTML, Vue and Svelte files")
	formatCmd.Flags().Bool("quiet", false, "only report errors")
	formatCmd.Flags().IntP("jobs", "j", 0, "files formatted concurrently (0 means one per CPU)")
}

func runFormat(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	opts, quiet, err := formatOptions(cmd)
	if err != nil {
		return err
	}

	results, err := batch.FormatPaths(cmd.Context(), newFormatter(), args, opts)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}

	failed := renderFormat(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, opts.Write, quiet)
	if failed > 0 {
		return fmt.Errorf("format: %d of %d files could not be formatted", failed, len(results))
	}
	return nil
}

func formatOptions(cmd *cobra.Command) (batch.Options, bool, error) {
	var opts batch.Options
	flags := cmd.Flags()

	write, err := flags.GetBool("write")
	if err != nil {
		return opts, false, err
	}
	presetFlag, err := flags.GetString("preset")
	if err != nil {
		return opts, false, err
	}
	latest, err := flags.GetBool("latest-core")
	if err != nil {
		return opts, false, err
	}
	embedded, err := flags.GetBool("embedded")
	if err != nil {
		return opts, false, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return opts, false, err
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return opts, false, err
	}

	preset, err := parsePreset(presetFlag)
	if err != nil {
		return opts, false, err
	}

	root, err := os.Getwd()
	if err != nil {
		return opts, false, err
	}

	s := settings.Default()
	s.Preset = preset
	s.UseLatestCore = latest
	s.SupportEmbeddedStyles = embedded

	opts = batch.Options{Write: write, Settings: s, Root: root, Jobs: jobs}
	return opts, quiet, nil
}

// parsePreset turns the --preset flag into a settings preset: nil when
// empty, a config object when it is inline JSON, otherwise a name or path.
func parsePreset(flag string) (any, error) {
	flag = strings.TrimSpace(flag)
	switch {
	case flag == "":
		return nil, nil
	case strings.HasPrefix(flag, "{"):
		var cfg map[string]any
		if err := json.Unmarshal(jsonc.ToJSON([]byte(flag)), &cfg); err != nil {
			return nil, fmt.Errorf("invalid --preset JSON: %w", err)
		}
		return cfg, nil
	default:
		return flag, nil
	}
}

// renderFormat prints results and returns how many files failed.
func renderFormat(stdout, stderr io.Writer, results []batch.Result, write, quiet bool) int {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(stderr, "%s %s: %v\n", errorColor.Sprint("error"), res.Path, res.Err)
			continue
		}

		for _, w := range res.Warnings {
			if !quiet {
				fmt.Fprintf(stderr, "%s %s: %v\n", warningColor.Sprint("warning"), res.Path, w)
			}
		}
		for _, e := range res.BlockErrors {
			fmt.Fprintf(stderr, "%s %s: %v\n", errorColor.Sprint("error"), res.Path, e)
		}
		if res.Failed() {
			failed++
		}

		switch {
		case res.Skipped != nil:
			if !quiet && !errors.Is(res.Skipped, format.ErrNoStyleBlocks) {
				fmt.Fprintf(stderr, "%s %s: %v\n", skippedColor.Sprint("skipped"), res.Path, res.Skipped)
			}
		case write:
			if res.Changed && !quiet {
				fmt.Fprintf(stdout, "%s %s\n", changedColor.Sprint("reformatted"), res.Path)
			}
		default:
			_, _ = io.WriteString(stdout, res.Formatted)
		}
	}
	return failed
}
