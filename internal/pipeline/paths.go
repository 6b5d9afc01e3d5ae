package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrSameFile is returned when the output path resolves to the input file.
var ErrSameFile = errors.New("output path is the input file")

// DefaultSuffix is inserted before the extension of derived output paths.
const DefaultSuffix = "_fix"

// OutputPath derives the output file name: "refs.bib" becomes
// "refs<suffix>.bib" and any other name gets "<suffix>.bib" appended.
func OutputPath(input, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if base, ok := strings.CutSuffix(input, ".bib"); ok {
		return base + suffix + ".bib"
	}
	return input + suffix + ".bib"
}

// AlertsPath names the markdown report written next to a filtered output.
func AlertsPath(output string) string {
	return strings.TrimSuffix(output, ".bib") + "_alerts.md"
}

// checkDistinct fails with ErrSameFile when output would overwrite input,
// including through symlinks or hard links.
func checkDistinct(input, output string) error {
	in, err := resolve(input)
	if err != nil {
		return err
	}
	out, err := resolve(output)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("%w: %s", ErrSameFile, output)
	}

	inInfo, err := os.Stat(input)
	if err != nil {
		return nil
	}
	if outInfo, err := os.Stat(output); err == nil && os.SameFile(inInfo, outInfo) {
		return fmt.Errorf("%w: %s", ErrSameFile, output)
	}
	return nil
}

// resolve returns an absolute path with symlinks evaluated. The final element
// may not exist yet.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return abs, nil
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}
