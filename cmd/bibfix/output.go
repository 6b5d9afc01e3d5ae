package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/matsen/bibfix/internal/bibtex"
	"github.com/matsen/bibfix/internal/config"
)

// Maximum validation warnings listed in human output.
const maxHumanWarnings = 10

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// exitWithError outputs an error in the appropriate format (human or JSON) to
// stderr and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		enc := json.NewEncoder(os.Stderr)
		enc.Encode(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps a pipeline error to an exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, bibtex.ErrUnparseable):
		return ExitDataError
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	default:
		return ExitError
	}
}
