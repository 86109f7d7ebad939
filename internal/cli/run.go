package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/aprx-explorer/internal/config"
	"github.com/raphaelgruber/aprx-explorer/internal/export"
	"github.com/raphaelgruber/aprx-explorer/internal/history"
	"github.com/raphaelgruber/aprx-explorer/internal/llm"
	"github.com/raphaelgruber/aprx-explorer/internal/metrics"
	"github.com/raphaelgruber/aprx-explorer/internal/report"
	"github.com/raphaelgruber/aprx-explorer/internal/summarize"
)

// summarizerFactory builds the LLM-backed summarizer for a run.
type summarizerFactory func(ctx context.Context, cfg config.Config, collector *metrics.Collector, onProgress func(done, total int)) (summarize.Summarizer, error)

// newLLMSummarizer is the production summarizerFactory.
func newLLMSummarizer(ctx context.Context, cfg config.Config, collector *metrics.Collector, onProgress func(done, total int)) (summarize.Summarizer, error) {
	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init model: %w", err)
	}
	model.SetCollector(collector)
	slog.Debug("summarizer ready", "provider", cfg.LLMProvider, "model", model.Model())

	s, err := summarize.NewLLM(model, cfg.SystemPrompt, cfg.HumanPrompt)
	if err != nil {
		return nil, err
	}
	s.OnProgress = onProgress
	return s, nil
}

func run(cmd *cobra.Command, opts *options, aprxPath, outputPath string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, &cfg)

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()
	logger = logger.With("run_id", uuid.New().String()[:8])
	slog.SetDefault(logger)

	if opts.summarize && cfg.NeedsAPIKey() {
		key, err := promptSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), apiKeyLabel(cfg.LLMProvider))
		if err != nil {
			return fmt.Errorf("read API key: %w", err)
		}
		if key != "" {
			cfg.SetAPIKey(key)
		}
	}

	collector := metrics.NewCollector()

	fmt.Fprintf(out, "Reading %s...\n", aprxPath)
	var records []history.Record
	err = collector.Time(metrics.OpArchiveRead, func() error {
		ext, err := history.Extract(aprxPath)
		if err != nil {
			return err
		}
		logger.Debug("manifest read", "path", aprxPath, "history_items", ext.Len())

		records, err = history.Collect(ext.Records(), history.CollectOptions{
			SkipInvalid: opts.skipInvalid,
			OnSkip: func(err error) {
				logger.Warn("skipping history item", "error", err)
			},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("extract history: %w", err)
	}
	logger.Info("history extracted", "records", len(records))

	summarizer := summarize.Select(opts.summarize, func() (summarize.Summarizer, error) {
		return opts.newSummarizer(ctx, cfg, collector, newProgressBar(cmd.ErrOrStderr()))
	})
	records, err = summarizer.Summarize(ctx, records)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	table, err := export.BuildTable(records)
	if err != nil {
		return fmt.Errorf("build table: %w", err)
	}

	if err := report.Write(out, records); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	err = collector.Time(metrics.OpExportWrite, func() error {
		return export.WriteFile(outputPath, table)
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("output written", "path", outputPath, "rows", table.Len(), "columns", len(table.Columns))

	fmt.Fprintf(out, "Output saved to %s\n", outputPath)

	if opts.verbose {
		printRunStats(out, collector.Snapshot())
	}
	return nil
}

func apiKeyLabel(p config.Provider) string {
	if p == config.ProviderAnthropic {
		return "Anthropic API Key: "
	}
	return "OpenAI API Key: "
}
