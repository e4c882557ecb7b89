package media

import (
	"strings"

	"github.com/pkg/errors"
)

// Error kinds for external-tool failures. Callers classify with errors.Is;
// raw tool output stays in the logs, never in these messages.
var (
	// ErrToolMissing means the external binary is not installed or not
	// executable. Fatal, not retried.
	ErrToolMissing = errors.New("required external tool is not installed")
	// ErrToolTimeout means the wall-clock limit expired and the process
	// was killed.
	ErrToolTimeout = errors.New("operation timed out")
	// ErrTransient marks failures worth retrying on the queue path.
	ErrTransient = errors.New("external tool temporarily unavailable")
	// ErrContentAccess marks login/age/region-restricted content.
	ErrContentAccess = errors.New("content requires authentication or is restricted")
	// ErrNoOutput means the tool ran but produced no usable file.
	ErrNoOutput = errors.New("no output file was produced")
)

var contentAccessMarkers = []string{
	"sign in",
	"login required",
	"private video",
	"age-restricted",
	"age restricted",
	"cookies",
	"authentication",
	"not available in your country",
}

var transientMarkers = []string{
	"timed out",
	"temporary failure",
	"connection reset",
	"connection refused",
	"http error 429",
	"http error 503",
}

// classifyExtractorFailure maps extractor diagnostics onto the taxonomy.
// Anything unrecognized stays a generic extraction failure.
func classifyExtractorFailure(stderr string) error {
	lowered := strings.ToLower(stderr)
	for _, marker := range contentAccessMarkers {
		if strings.Contains(lowered, marker) {
			return ErrContentAccess
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(lowered, marker) {
			return ErrTransient
		}
	}
	return errors.New("extraction failed")
}
