// Package main provides the bibfix CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/bibfix/internal/config"
	"github.com/matsen/bibfix/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibfix <input.bib>",
	Short: "Normalize, deduplicate and enrich BibTeX bibliographies",
	Long: `bibfix cleans a BibTeX file and writes the result to a new file.

Each run:
  - normalizes entry types and field values
  - merges duplicate entries (same DOI, or same title and first author)
  - renames colliding citation keys
  - looks up missing DOIs on Crossref
  - reports entries missing author, title or year

The input file is never modified. Output goes to <input>_fix.bib unless -o is given.
A summary is printed as JSON by default; use --human for tables.`,
	Args:          cobra.ExactArgs(1),
	RunE:          runFix,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/bibfix/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (overrides config)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration and applies flag overrides, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// mustNewLogger builds the stderr logger, exits on error.
func mustNewLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: os.Stderr,
	})
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return logger
}
