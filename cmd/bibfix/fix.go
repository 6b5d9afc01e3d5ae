package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/bibfix/internal/config"
	"github.com/matsen/bibfix/internal/crossref"
	"github.com/matsen/bibfix/internal/dedupe"
	"github.com/matsen/bibfix/internal/enrich"
	"github.com/matsen/bibfix/internal/pipeline"
)

var (
	fixOutput   string
	fixNoEnrich bool
	fixVerify   bool
)

func init() {
	rootCmd.Flags().StringVarP(&fixOutput, "output", "o", "", "Output .bib path (default <input>_fix.bib)")
	rootCmd.Flags().BoolVar(&fixNoEnrich, "no-enrich", false, "Skip DOI lookups")
	rootCmd.Flags().BoolVar(&fixVerify, "verify", false, "Include per-entry DOI lookup decisions in the output")
}

func runFix(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := mustNewLogger(cfg)

	opts := pipeline.Options{
		Output:       fixOutput,
		OutputSuffix: cfg.OutputSuffix,
		Verify:       fixVerify,
		Dedupe: dedupe.Options{
			Threshold:   cfg.DuplicateThreshold,
			SuffixStyle: cfg.SuffixStyle(),
			Separator:   cfg.KeySuffixSeparator,
		},
		Enrich: enrich.Options{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			Timeout:             cfg.LookupTimeout,
		},
		Logger: logger,
	}
	if !fixNoEnrich {
		opts.Lookup = newCrossrefClient(cfg)
		if humanOutput {
			opts.NewProgress = newProgress
		}
	}

	summary, err := pipeline.Run(cmd.Context(), args[0], opts)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		printFixSummary(summary)
		return nil
	}
	return outputJSON(summary)
}

// newCrossrefClient builds the DOI lookup client from configuration.
func newCrossrefClient(cfg *config.Config) *crossref.Client {
	return crossref.NewClient(
		crossref.WithBaseURL(cfg.Crossref.BaseURL),
		crossref.WithMailto(cfg.Crossref.Mailto),
		crossref.WithRows(cfg.Crossref.Rows),
		crossref.WithRateLimit(cfg.Crossref.RateLimit),
		crossref.WithMinTitleScore(cfg.ConfidenceThreshold),
	)
}
