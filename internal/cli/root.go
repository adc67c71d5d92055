// Package cli implements the tracelite command line interface.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tracelite-io/tracelite/internal/logging"
	"github.com/tracelite-io/tracelite/pkg/version"
)

var (
	logLevel string

	// logger is replaced by the root PersistentPreRun and shared by
	// subcommands.
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "tracelite",
	Short: "tracelite - work with instrumentation trace files",
	Long: `Inspect, merge and summarize trace-event files recorded by the
tracelite profiler (or any tool emitting Chrome Trace Event Format).

Recording happens in-process through the profiler package:

    span := profiler.Begin("LoadAssets")
    defer span.End()

The resulting .trace / .json files load directly into chrome://tracing,
Perfetto or speedscope; this CLI covers the workflows that do not need a
browser.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{Level: logLevel, Pretty: true})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (trace, debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("tracelite version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
