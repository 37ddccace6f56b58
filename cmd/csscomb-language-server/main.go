package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/internal/version"
	"bennypowers.dev/csscomb/lsp"
)

var rootCmd = &cobra.Command{
	Use:   "csscomb-language-server",
	Short: "CSSComb formatting for CSS, LESS, SCSS and Sass",
	Long: `Runs the CSSComb language server over stdio. Editors start it without
arguments; the format subcommand runs the same formatter on files.`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: configureOutput,
	RunE:              runServer,
}

func init() {
	rootCmd.Version = version.GetVersion()
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("log-level", "info", "minimum log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	// Editors pass --stdio; it is the only transport.
	rootCmd.Flags().Bool("stdio", true, "communicate over stdin and stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorColor.Sprint("error:"), err)
		os.Exit(1)
	}
}

func configureOutput(cmd *cobra.Command, _ []string) error {
	name, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
	default:
		return fmt.Errorf("unsupported color mode %q (must be auto, on or off)", mode)
	}
	return nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	server, err := lsp.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create LSP server: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Warn("Failed to close server: %v", err)
		}
	}()

	log.Info("Starting %s %s", cmd.Root().Name(), version.GetFullVersion())
	if err := server.RunStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
