package media

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRuns       = regexp.MustCompile(`\s+`)
)

const maxFilenameRunes = 100

// SafeFilename strips characters illegal in filesystem names, collapses
// whitespace and truncates to a bounded length. An empty result falls back
// to a fixed name so callers always get something servable.
func SafeFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	base = illegalFilenameChars.ReplaceAllString(base, "")
	base = whitespaceRuns.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	runes := []rune(base)
	if len(runes) > maxFilenameRunes {
		base = strings.TrimSpace(string(runes[:maxFilenameRunes]))
	}
	if base == "" {
		base = "download"
	}
	return base + strings.ToLower(illegalFilenameChars.ReplaceAllString(ext, ""))
}

// EnsureUniqueFilename de-duplicates desired against the files already in
// dir by appending a numeric suffix in parentheses.
func EnsureUniqueFilename(dir, desired string) string {
	ext := filepath.Ext(desired)
	base := strings.TrimSuffix(desired, ext)
	candidate := desired
	for counter := 1; ; counter++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)%s", base, counter, ext)
	}
}
