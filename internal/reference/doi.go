package reference

import (
	"regexp"
	"strings"
)

var (
	doiURLPrefix   = regexp.MustCompile(`(?i)^https?://(dx\.)?doi\.org/`)
	doiLabelPrefix = regexp.MustCompile(`(?i)^doi:\s*`)
	validDOI       = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)
)

// NormalizeDOI normalizes a DOI to a consistent format for comparison.
// It removes resolver URL and "doi:" prefixes in any order and converts to
// lowercase.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for {
		stripped := doiURLPrefix.ReplaceAllString(doi, "")
		stripped = strings.TrimSpace(doiLabelPrefix.ReplaceAllString(stripped, ""))
		if stripped == doi {
			break
		}
		doi = stripped
	}
	return strings.ToLower(doi)
}

// IsValidDOI reports whether doi looks like a registered DOI (10.NNNN/suffix).
func IsValidDOI(doi string) bool {
	doi = NormalizeDOI(doi)
	return doi != "" && validDOI.MatchString(doi)
}
