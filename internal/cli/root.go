// Package cli provides the command-line interface for aprx-explorer.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/aprx-explorer/internal/config"
	"github.com/raphaelgruber/aprx-explorer/internal/export"
)

// Version is set at build time.
var Version = "0.1.0"

// options holds flag values for one invocation.
type options struct {
	verbose     bool
	summarize   bool
	model       string
	provider    string
	apiKey      string
	skipInvalid bool

	// newSummarizer builds the LLM summarizer; replaced in tests.
	newSummarizer summarizerFactory
}

func newRootCmd() *cobra.Command {
	return newCommand(&options{newSummarizer: newLLMSummarizer})
}

func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aprx-explorer [flags] <aprx> <output>",
		Short: "Extract geoprocessing history from an ArcGIS Pro project file",
		Long: `Extract geoprocessing history objects from an ArcGIS Pro project file (.aprx)
and save them as a CSV or Parquet table, sorted by end time.

Each history entry's .NET tick timestamps are converted to start_time,
end_time and run_duration. With --summarize, every entry is also annotated
with a short natural-language summary written by an LLM.

The output format follows the output extension: .csv, .parquet or .pq.

Examples:
  aprx-explorer project.aprx history.csv
  aprx-explorer project.aprx history.parquet --summarize
  aprx-explorer project.aprx history.csv --summarize --provider ollama --model llama3`,
		Version:       Version,
		Args:          validateArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().BoolVar(&opts.summarize, "summarize", false, "summarize the geoprocessing history objects")
	cmd.Flags().StringVar(&opts.model, "model", config.DefaultModel, "LLM model name")
	cmd.Flags().StringVar(&opts.provider, "provider", string(config.DefaultProvider), "LLM provider: openai, anthropic, ollama or bedrock")
	cmd.Flags().StringVar(&opts.apiKey, "openai_api_key", "", "API key for the provider; omit for a secure prompt")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "alias for --openai_api_key")
	cmd.Flags().BoolVar(&opts.skipInvalid, "skip-invalid", false, "skip history entries without usable timestamps instead of failing")

	return cmd
}

// validateArgs checks arity and rejects unsupported output extensions
// before any file is read.
func validateArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(2)(cmd, args); err != nil {
		return err
	}
	_, err := export.FormatFor(args[1])
	return err
}

// applyFlags overrides loaded configuration with explicitly set flags.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	if cmd.Flags().Changed("provider") {
		cfg.LLMProvider = config.Provider(opts.provider)
	}
	if cmd.Flags().Changed("model") {
		cfg.LLMModel = opts.model
	}
	if opts.apiKey != "" {
		cfg.SetAPIKey(opts.apiKey)
	}
	if opts.verbose {
		cfg.LogLevel = slog.LevelDebug
	}
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}
