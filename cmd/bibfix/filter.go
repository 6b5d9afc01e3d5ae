package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/bibfix/internal/pipeline"
)

var filterOutput string

func init() {
	filterCmd.Flags().StringVarP(&filterOutput, "output", "o", "", "Output .bib path (default <input>_cited.bib)")
	rootCmd.AddCommand(filterCmd)
}

var filterCmd = &cobra.Command{
	Use:   "filter <input.bib> <document.tex>",
	Short: "Keep only the entries a LaTeX document cites",
	Long: `Keep only the bibliography entries cited by a LaTeX document.

Citation keys are collected from \cite-style commands (\cite, \citep, \citet,
\parencite, ...) and \nocite, ignoring commented-out text. \nocite{*} keeps
every entry. Cited keys with no entry are listed, with similar keys, in
<output>_alerts.md.

Examples:
  bibfix filter refs.bib paper.tex          # writes refs_cited.bib
  bibfix filter refs.bib paper.tex -o out.bib`,
	Args: cobra.ExactArgs(2),
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := mustNewLogger(cfg)

	summary, err := pipeline.Filter(args[0], args[1], pipeline.FilterOptions{
		Output: filterOutput,
		Logger: logger,
	})
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		fmt.Print(formatFilterSummary(summary))
		return nil
	}
	return outputJSON(summary)
}
