package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/bibfix/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration: built-in defaults, overridden by the
config file, BIBFIX_MAILTO or CROSSREF_MAILTO, and command-line flags.

The config file is read from $XDG_CONFIG_HOME/bibfix/config.yml
(~/.config/bibfix/config.yml) unless --config is given.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path                string         `json:"path"`
	DuplicateThreshold  float64        `json:"duplicate_threshold"`
	ConfidenceThreshold float64        `json:"confidence_threshold"`
	LookupTimeout       string         `json:"lookup_timeout"`
	KeySuffixStyle      string         `json:"key_suffix_style"`
	KeySuffixSeparator  string         `json:"key_suffix_separator"`
	OutputSuffix        string         `json:"output_suffix"`
	Crossref            CrossrefConfig `json:"crossref"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
}

// CrossrefConfig is the crossref section of ConfigResponse.
type CrossrefConfig struct {
	BaseURL   string  `json:"base_url"`
	Mailto    string  `json:"mailto,omitempty"`
	Rows      int     `json:"rows"`
	RateLimit float64 `json:"rate_limit"`
}

func newConfigResponse(path string, cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		Path:                path,
		DuplicateThreshold:  cfg.DuplicateThreshold,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		LookupTimeout:       cfg.LookupTimeout.String(),
		KeySuffixStyle:      cfg.KeySuffixStyle,
		KeySuffixSeparator:  cfg.KeySuffixSeparator,
		OutputSuffix:        cfg.OutputSuffix,
		Crossref: CrossrefConfig{
			BaseURL:   cfg.Crossref.BaseURL,
			Mailto:    cfg.Crossref.Mailto,
			Rows:      cfg.Crossref.Rows,
			RateLimit: cfg.Crossref.RateLimit,
		},
		LogLevel:  cfg.Log.Level,
		LogFormat: cfg.Log.Format,
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	path := configPath
	if path == "" {
		path = config.Path()
	}
	resp := newConfigResponse(path, cfg)

	if !humanOutput {
		return outputJSON(resp)
	}

	rows := [][]string{
		{"config file", resp.Path},
		{"duplicate_threshold", fmt.Sprint(resp.DuplicateThreshold)},
		{"confidence_threshold", fmt.Sprint(resp.ConfidenceThreshold)},
		{"lookup_timeout", resp.LookupTimeout},
		{"key_suffix_style", resp.KeySuffixStyle},
		{"key_suffix_separator", resp.KeySuffixSeparator},
		{"output_suffix", resp.OutputSuffix},
		{"crossref.base_url", resp.Crossref.BaseURL},
		{"crossref.mailto", resp.Crossref.Mailto},
		{"crossref.rows", fmt.Sprint(resp.Crossref.Rows)},
		{"crossref.rate_limit", fmt.Sprint(resp.Crossref.RateLimit)},
		{"log.level", resp.LogLevel},
		{"log.format", resp.LogFormat},
	}
	fmt.Println(renderTable([]string{"Key", "Value"}, rows, nil))
	return nil
}
