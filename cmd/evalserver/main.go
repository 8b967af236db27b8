// Package main provides the evalserver CLI.
//
// Start the service:
//
//	evalserver serve --config evalserver.yaml
//
// List the metrics a config would register:
//
//	evalserver metrics --config evalserver.yaml
//
// # Environment Variables
//
//   - METRIC_TIMEOUT: per-metric timeout in seconds (default 10)
//   - EVAL_ENABLED_METRICS: comma separated metric names to register
//   - GEMINI_API_KEY, GOOGLE_API_KEY: Gemini API key
//   - GOOGLE_PROJECT_ID, GOOGLE_REGION: Vertex AI project and location
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "evalserver",
		Short:        "Score candidate texts against references over HTTP",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd(), buildMetricsCmd())
	return rootCmd
}
