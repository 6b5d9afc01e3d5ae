// Package pipeline runs the bibliography fix and filter workflows end to end.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/matsen/bibfix/internal/bibtex"
	"github.com/matsen/bibfix/internal/dedupe"
	"github.com/matsen/bibfix/internal/enrich"
	"github.com/matsen/bibfix/internal/normalize"
	"github.com/matsen/bibfix/internal/validate"
)

// Options configures a fix run.
type Options struct {
	Output       string // explicit output path; "" derives one from the input
	OutputSuffix string // used when deriving; "" means DefaultSuffix
	Verify       bool   // keep per-entry lookup decisions in the summary

	Dedupe dedupe.Options

	// Lookup resolves missing identifiers. Nil skips enrichment.
	Lookup enrich.Lookup
	Enrich enrich.Options

	// NewProgress, if set, creates the enrichment progress reporter once the
	// number of entries is known.
	NewProgress func(total int) enrich.Progress

	Logger *slog.Logger
}

// Summary describes a completed fix run.
type Summary struct {
	Input         string              `json:"input"`
	Output        string              `json:"output"`
	Loaded        int                 `json:"loaded"`
	Written       int                 `json:"written"`
	Skipped       []bibtex.ParseError `json:"skipped,omitempty"`
	ParseWarnings []bibtex.ParseError `json:"parse_warnings,omitempty"`
	Merged        int                 `json:"merged"`
	Groups        []dedupe.Group      `json:"groups,omitempty"`
	Renames       []dedupe.Rename     `json:"renames,omitempty"`
	Enrichment    *enrich.Report      `json:"enrichment,omitempty"`
	Warnings      []validate.Warning  `json:"warnings,omitempty"`
}

// Run loads input, normalizes, deduplicates, enriches and validates its
// entries, and writes the result to a new file. The input file is only read.
// Lookup failures and cancellation of ctx are not errors: the output is
// written with whatever identifiers were found.
func Run(ctx context.Context, input string, opts Options) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	output := opts.Output
	if output == "" {
		output = OutputPath(input, opts.OutputSuffix)
	}
	if err := checkDistinct(input, output); err != nil {
		return nil, err
	}

	logger.Info("loading", "path", input)
	parsed, err := bibtex.ParseFile(input)
	if err != nil {
		return nil, err
	}
	for _, pe := range parsed.Errors {
		logger.Warn("skipped malformed record", "line", pe.Line, "key", pe.Key, "error", pe.Message)
	}
	for _, pw := range parsed.Warnings {
		logger.Warn("parse warning", "line", pw.Line, "key", pw.Key, "warning", pw.Message)
	}

	doc := parsed.Document
	summary := &Summary{
		Input:         input,
		Output:        output,
		Loaded:        len(doc.Entries),
		Skipped:       parsed.Errors,
		ParseWarnings: parsed.Warnings,
	}
	logger.Info("loaded entries", "count", summary.Loaded)

	entries := normalize.Entries(doc.Entries)

	deduped, reg := dedupe.Dedupe(entries, dedupe.NewKeyRegistry(), opts.Dedupe)
	entries = deduped.Entries
	summary.Merged = deduped.MergedCount()
	summary.Groups = deduped.Groups
	summary.Renames = deduped.Renames
	logger.Info("deduplicated", "merged", summary.Merged, "renamed", len(deduped.Renames), "keys", reg.Len())

	if opts.Lookup != nil {
		enrichOpts := opts.Enrich
		if enrichOpts.Logger == nil {
			enrichOpts.Logger = logger
		}
		if enrichOpts.Progress == nil && opts.NewProgress != nil {
			enrichOpts.Progress = opts.NewProgress(len(entries))
		}
		var report enrich.Report
		entries, report = enrich.New(opts.Lookup, enrichOpts).Enrich(ctx, entries)
		if !opts.Verify {
			report.Decisions = nil
		}
		summary.Enrichment = &report
		logger.Info("enriched", "queried", report.Queried, "added", report.Added, "failed", report.Failed)
	}

	summary.Warnings = validate.Validate(entries)
	for _, w := range summary.Warnings {
		logger.Debug("validation warning", "key", w.Key, "kind", w.Kind, "message", w.Message)
	}

	doc.Entries = entries
	if err := bibtex.WriteFile(output, doc); err != nil {
		return nil, err
	}
	summary.Written = len(entries)
	logger.Info("saved", "path", output, "entries", summary.Written)

	return summary, nil
}
