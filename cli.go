package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newRootCommand builds the tagger command. Environment access goes through getenv so tests can supply their own.
func newRootCommand(getenv func(string) string, stdout, stderr io.Writer) *cobra.Command {
	cfg := DefaultConfig()

	cmd := &cobra.Command{
		Use:   "tagger <site_url>",
		Short: "Generate alt text for WordPress images that are missing it",
		Long: `Fetches media items from a WordPress site's REST API, finds images without alt text,
asks a vision model for a description and writes a CSV report. Nothing is changed on the
site unless --write is given.`,
		Example: `  tagger https://example.com
  tagger https://example.com -m gpt-4o -w -l 20
  tagger example.com --provider gemini -l 0 -o reports/example.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Usage is only useful for argument errors, which cobra reports before RunE
			cmd.SilenceUsage = true

			cfg.SiteURL = args[0]
			cfg.ApplyEnv(getenv)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return execute(cmd.Context(), cfg, stdout, stderr)
		},
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVarP(&cfg.Model, "model", "m", "", fmt.Sprintf("vision model to use (default %q for openai, %q for gemini)", defaultOpenAIModel, defaultGeminiModel))
	flags.BoolVarP(&cfg.Write, "write", "w", false, "write generated alt text back to WordPress (default is a dry run)")
	flags.IntVarP(&cfg.Limit, "limit", "l", defaultLimit, "number of images to process, 0 for all")
	flags.StringVarP(&cfg.OutputPath, "output", "o", "", "CSV report path (default <host>_alt_text_results.csv)")
	flags.StringVar(&cfg.Provider, "provider", ProviderOpenAI, "vision provider: openai or gemini")
	flags.IntVar(&cfg.PerPage, "per-page", maxPerPage, "WordPress page size used while listing media (1-100)")
	flags.StringVar(&cfg.APIBaseURL, "api-base-url", "", "vision API base URL (openai: default $"+envOpenAIBaseURL+" or api.openai.com; gemini: default generativelanguage.googleapis.com)")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "log level: debug, info, warn, error (default $"+envLogLevel+" or info)")

	return cmd
}

// execute wires the components for one run and writes the report
func execute(ctx context.Context, cfg *Config, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.LogLevel).With("run_id", uuid.New().String())

	logger.Info("WordPress alt text tagger starting",
		"site", cfg.SiteURL,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"mode", cfg.Mode(),
		"limit", cfg.Limit,
		"output", cfg.OutputPath)
	if !cfg.Write {
		logger.Warn("DRY-RUN MODE ENABLED: alt text will be generated and reported but not written to WordPress")
	}

	httpClient := &http.Client{}

	var generator AltTextGenerator
	switch cfg.Provider {
	case ProviderGemini:
		gemini, err := NewGeminiGenerator(ctx, cfg, httpClient)
		if err != nil {
			return err
		}
		defer gemini.Close()
		generator = gemini
	default:
		generator = NewOpenAIGenerator(cfg, httpClient)
	}

	store := NewWordPressClient(cfg, httpClient, logger)
	reporter := NewReporter()
	tagger := NewTagger(store, generator, reporter, cfg, logger)

	summary, runErr := tagger.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if err := reporter.WriteCSV(cfg.OutputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Debug("report written", "path", cfg.OutputPath, "rows", reporter.Len())

	logger.Info("run complete",
		"processed", summary.Processed,
		"generated", summary.Generated,
		"failed", summary.Failed,
		"updated", summary.Updated)
	if summary.Processed > 0 && summary.Failed == summary.Processed {
		logger.Warn("every processed image failed; check the API key, model name and image URLs")
	}
	fmt.Fprintf(stdout, "Results written to %s\n", cfg.OutputPath)

	return runErr
}
