// Package config loads bibfix settings from the global YAML config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/bibfix/internal/dedupe"
)

// Config represents configuration stored in ~/.config/bibfix/config.yml.
type Config struct {
	DuplicateThreshold  float64        `yaml:"duplicate_threshold"`
	ConfidenceThreshold float64        `yaml:"confidence_threshold"`
	LookupTimeout       time.Duration  `yaml:"lookup_timeout"`
	KeySuffixStyle      string         `yaml:"key_suffix_style"`
	KeySuffixSeparator  string         `yaml:"key_suffix_separator"`
	OutputSuffix        string         `yaml:"output_suffix"`
	Crossref            CrossrefConfig `yaml:"crossref"`
	Log                 LogConfig      `yaml:"log"`
}

// CrossrefConfig configures the DOI lookup service.
type CrossrefConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Mailto    string  `yaml:"mailto,omitempty"`
	Rows      int     `yaml:"rows"`
	RateLimit float64 `yaml:"rate_limit"`
}

// LogConfig selects the log level and format written to stderr.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "bibfix"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Environment variables consulted for the Crossref contact address, in order.
var MailtoEnvVars = []string{"BIBFIX_MAILTO", "CROSSREF_MAILTO"}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DuplicateThreshold:  0.95,
		ConfidenceThreshold: 0.85,
		LookupTimeout:       10 * time.Second,
		KeySuffixStyle:      string(dedupe.SuffixLetters),
		KeySuffixSeparator:  dedupe.DefaultSeparator,
		OutputSuffix:        "_fix",
		Crossref: CrossrefConfig{
			BaseURL:   "https://api.crossref.org",
			Rows:      5,
			RateLimit: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Path returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibfix/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file at path over the defaults, applies environment
// overrides and validates the result. An empty path means the global config
// file, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(ExpandPath(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the Crossref mailto from the environment.
func (c *Config) ApplyEnv() {
	for _, name := range MailtoEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			c.Crossref.Mailto = v
			return
		}
	}
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	if c.DuplicateThreshold <= 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("%w: duplicate_threshold must be in (0, 1], got %v", ErrInvalid, c.DuplicateThreshold)
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold must be in (0, 1], got %v", ErrInvalid, c.ConfidenceThreshold)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("%w: lookup_timeout must be positive, got %v", ErrInvalid, c.LookupTimeout)
	}
	if _, err := dedupe.ParseSuffixStyle(c.KeySuffixStyle); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.OutputSuffix == "" || strings.ContainsRune(c.OutputSuffix, filepath.Separator) {
		return fmt.Errorf("%w: output_suffix must be a non-empty file name suffix, got %q", ErrInvalid, c.OutputSuffix)
	}
	if u, err := url.Parse(c.Crossref.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: crossref.base_url must be an http(s) URL, got %q", ErrInvalid, c.Crossref.BaseURL)
	}
	if c.Crossref.Rows < 1 || c.Crossref.Rows > 1000 {
		return fmt.Errorf("%w: crossref.rows must be between 1 and 1000, got %d", ErrInvalid, c.Crossref.Rows)
	}
	if c.Crossref.RateLimit <= 0 {
		return fmt.Errorf("%w: crossref.rate_limit must be positive, got %v", ErrInvalid, c.Crossref.RateLimit)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level must be debug, info, warn or error, got %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// SuffixStyle returns the parsed key suffix style.
func (c *Config) SuffixStyle() dedupe.SuffixStyle {
	s, _ := dedupe.ParseSuffixStyle(c.KeySuffixStyle)
	return s
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
