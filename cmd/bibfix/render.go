package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/bibfix/internal/enrich"
	"github.com/matsen/bibfix/internal/pipeline"
	"github.com/matsen/bibfix/internal/validate"
)

func printFixSummary(s *pipeline.Summary) {
	fmt.Print(formatFixSummary(s))
}

// formatFixSummary renders a fix run for --human output.
func formatFixSummary(s *pipeline.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Loaded %d entries from %s.\n", s.Loaded, s.Input)

	if len(s.Skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped %d malformed records:\n", len(s.Skipped))
		rows := make([][]string, len(s.Skipped))
		for i, pe := range s.Skipped {
			rows[i] = []string{strconv.Itoa(pe.Line), pe.Key, pe.Message}
		}
		b.WriteString(renderTable([]string{"Line", "Key", "Problem"}, rows, []columnAlignment{alignRight}))
		b.WriteString("\n")
	}

	if s.Merged > 0 {
		fmt.Fprintf(&b, "\nMerged and removed %d duplicate entries:\n", s.Merged)
		var rows [][]string
		for _, g := range s.Groups {
			for _, m := range g.Merged {
				sim := ""
				if m.Similarity > 0 {
					sim = fmt.Sprintf("%.2f", m.Similarity)
				}
				rows = append(rows, []string{g.Survivor, m.Key, m.MatchedBy, sim})
			}
		}
		b.WriteString(renderTable([]string{"Kept", "Merged", "Matched by", "Similarity"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
		b.WriteString("\n")
	}

	if len(s.Renames) > 0 {
		fmt.Fprintf(&b, "\nRenamed %d colliding keys:\n", len(s.Renames))
		rows := make([][]string, len(s.Renames))
		for i, r := range s.Renames {
			rows[i] = []string{r.From, r.To}
		}
		b.WriteString(renderTable([]string{"From", "To"}, rows, nil))
		b.WriteString("\n")
	}

	if rep := s.Enrichment; rep != nil {
		fmt.Fprintf(&b, "\nDOI lookup: %d queried, %d added, %d failed, %d skipped.\n",
			rep.Queried, rep.Added, rep.Failed, rep.Skipped)
		if len(rep.Decisions) > 0 {
			b.WriteString(renderDecisions(rep.Decisions))
			b.WriteString("\n")
		}
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(formatWarnings(s.Warnings, maxHumanWarnings))
	}

	fmt.Fprintf(&b, "\nSaved %d entries to %s.\n", s.Written, s.Output)
	return b.String()
}

func renderDecisions(decisions []enrich.Decision) string {
	rows := make([][]string, len(decisions))
	for i, d := range decisions {
		conf := ""
		if d.Confidence > 0 {
			conf = fmt.Sprintf("%.2f", d.Confidence)
		}
		detail := d.Reason
		if d.Outcome == enrich.OutcomeAdded {
			detail = d.MatchedTitle
		}
		rows[i] = []string{d.Key, string(d.Outcome), d.Identifier, conf, detail}
	}
	return renderTable([]string{"Key", "Outcome", "DOI", "Confidence", "Detail"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
}

// formatWarnings lists at most limit warnings and counts the rest.
func formatWarnings(warnings []validate.Warning, limit int) string {
	var b strings.Builder
	b.WriteString("Validation warnings:\n")
	for i, w := range warnings {
		if i == limit {
			fmt.Fprintf(&b, "  ... and %d more.\n", len(warnings)-limit)
			break
		}
		fmt.Fprintf(&b, "  - %s\n", w.Message)
	}
	return b.String()
}

func formatFilterSummary(s *pipeline.FilterSummary) string {
	var b strings.Builder
	if s.IncludeAll {
		fmt.Fprintf(&b, "Found %d cited keys and \\nocite{*}; keeping all entries.\n", s.Cited)
	} else {
		fmt.Fprintf(&b, "Found %d cited keys.\n", s.Cited)
	}
	if len(s.Missing) > 0 {
		fmt.Fprintf(&b, "Warning: %d cited keys missing from .bib: %s\n", len(s.Missing), strings.Join(s.Missing, ", "))
	}
	fmt.Fprintf(&b, "Alerts written to %s.\n", s.Alerts)
	fmt.Fprintf(&b, "Saved %d entries to %s.\n", s.Kept, s.Output)
	return b.String()
}
