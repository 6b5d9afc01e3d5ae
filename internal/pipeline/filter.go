package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/matsen/bibfix/internal/bibtex"
	"github.com/matsen/bibfix/internal/texfilter"
)

// FilterSuffix is used when deriving the output path of a filter run.
const FilterSuffix = "_cited"

// FilterOptions configures a filter run.
type FilterOptions struct {
	Output string // explicit output path; "" derives "<name>_cited.bib"
	Logger *slog.Logger
}

// FilterSummary describes a completed filter run.
type FilterSummary struct {
	Input      string   `json:"input"`
	TeX        string   `json:"tex"`
	Output     string   `json:"output"`
	Alerts     string   `json:"alerts"`
	Cited      int      `json:"cited"`
	IncludeAll bool     `json:"include_all,omitempty"`
	Kept       int      `json:"kept"`
	Missing    []string `json:"missing,omitempty"`
}

// Filter writes the entries of bibPath cited by texPath to a new file, plus
// a markdown report of cited keys that have no entry.
func Filter(bibPath, texPath string, opts FilterOptions) (*FilterSummary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	output := opts.Output
	if output == "" {
		output = OutputPath(bibPath, FilterSuffix)
	}
	alerts := AlertsPath(output)
	for _, input := range []string{bibPath, texPath} {
		for _, target := range []string{output, alerts} {
			if err := checkDistinct(input, target); err != nil {
				return nil, err
			}
		}
	}

	parsed, err := bibtex.ParseFile(bibPath)
	if err != nil {
		return nil, err
	}
	for _, pe := range parsed.Errors {
		logger.Warn("skipped malformed record", "line", pe.Line, "key", pe.Key, "error", pe.Message)
	}

	cites, err := texfilter.ExtractFile(texPath)
	if err != nil {
		return nil, err
	}
	logger.Info("found cited keys", "count", len(cites.Keys), "include_all", cites.IncludeAll)

	doc := parsed.Document
	available := doc.Keys()
	kept, missing := texfilter.Filter(doc.Entries, cites.Keys, cites.IncludeAll)
	for _, key := range missing {
		logger.Warn("cited key missing from bibliography", "key", key)
	}

	report := texfilter.Report(filepath.Base(texPath), missing, available)
	if err := os.WriteFile(alerts, []byte(report), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", alerts, err)
	}

	doc.Entries = kept
	if err := bibtex.WriteFile(output, doc); err != nil {
		return nil, err
	}
	logger.Info("saved", "path", output, "entries", len(kept))

	return &FilterSummary{
		Input:      bibPath,
		TeX:        texPath,
		Output:     output,
		Alerts:     alerts,
		Cited:      len(cites.Keys),
		IncludeAll: cites.IncludeAll,
		Kept:       len(kept),
		Missing:    missing,
	}, nil
}
