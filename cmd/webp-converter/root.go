package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackvity/webp-converter/internal/cli"
	"github.com/stackvity/webp-converter/internal/cli/config"
	"github.com/stackvity/webp-converter/pkg/converter"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var (
		cfgFile     string
		profileName string
		verbose     bool
	)

	rootCmd := &cobra.Command{
		Use:   "webp-converter -i <inputDir> -o <outputDir>",
		Short: "Converts every image in a directory to WebP.",
		Long: `webp-converter converts the PNG, JPEG, GIF, BMP and TIFF images found
directly inside an input directory into <name>.webp files in an output directory.

It features:
  - Parallel conversion across all CPU cores.
  - Lossy (quality 0-100) or lossless encoding.
  - Safe re-runs: existing outputs are left untouched.
  - An interactive Terminal UI (TUI), progress bar or plain log output.
  - A machine-readable JSON report (--output-format json).

Settings are read from webp-converter.yaml, a local .env file,
WEBPCONVERTER_* environment variables and flags, in increasing priority.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, logger, err := config.LoadAndValidate(cfgFile, profileName, version, verbose, cmd.Flags())
			if err != nil {
				return err
			}
			return cli.Run(ctx, opts, logger)
		},
	}
	rootCmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is search ., $HOME/.config/webp-converter/)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Name of configuration profile to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables TUI)")
	rootCmd.PersistentFlags().Float32P("quality", "q", converter.DefaultQuality, "Lossy quality 0-100 (out of range values are clamped)")
	rootCmd.PersistentFlags().Bool("lossless", converter.DefaultLossless, "Encode losslessly; quality is ignored")

	// Batch flags
	rootCmd.Flags().StringP("input", "i", "", "Required. Directory holding the source images.")
	rootCmd.Flags().StringP("output", "o", "", "Required. Directory receiving the .webp files (created if missing).")
	rootCmd.Flags().Int("concurrency", converter.DefaultConcurrency, "Number of parallel workers (0 for auto-detect CPU cores)")
	rootCmd.Flags().Bool("no-tui", false, "Disable interactive Terminal UI even if in a TTY")
	rootCmd.Flags().Bool("errors-only", converter.DefaultErrorsOnly, "Hide \"Converted\" lines and show only errors and the summary")
	rootCmd.Flags().String("output-format", string(converter.DefaultOutputFormat), `Final report format ("text", "json")`)

	rootCmd.AddCommand(newFileCmd(&verbose))
	return rootCmd
}

// newFileCmd converts a single image.
func newFileCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:           "file <input> <output>",
		Short:         "Converts a single image file to WebP.",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			quality, err := cmd.Flags().GetFloat32("quality")
			if err != nil {
				return err
			}
			lossless, err := cmd.Flags().GetBool("lossless")
			if err != nil {
				return err
			}
			level := slog.LevelInfo
			if *verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return cli.RunSingle(args[0], args[1], quality, lossless, logger)
		},
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}
