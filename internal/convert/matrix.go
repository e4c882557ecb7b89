package convert

import "strings"

// defaultConversions maps a source extension to the targets the service
// will transcode it into. Deployments can replace individual rows through
// `convert.allowedconversions` in the config file.
var defaultConversions = map[string][]string{
	"mp3":  {"m4a", "wav", "ogg", "aac", "flac", "opus", "mp4"},
	"m4a":  {"mp3", "wav", "flac", "aac", "ogg", "opus"},
	"wav":  {"mp3", "m4a", "flac", "aac", "ogg", "opus"},
	"mp4":  {"mp3", "m4a", "wav", "aac"},
	"aac":  {"mp3", "m4a", "wav", "flac", "opus"},
	"ogg":  {"mp3", "wav", "m4a", "flac"},
	"flac": {"mp3", "wav", "m4a"},
}

// ConversionAllowed reports whether source→target is in the matrix. A
// source row in overrides wins over the built-in row for that source.
func ConversionAllowed(overrides map[string][]string, sourceExt, target string) bool {
	sourceExt = strings.ToLower(sourceExt)
	targets, ok := overrides[sourceExt]
	if !ok {
		targets, ok = defaultConversions[sourceExt]
	}
	if !ok {
		return false
	}
	target = strings.ToLower(target)
	for _, t := range targets {
		if strings.ToLower(t) == target {
			return true
		}
	}
	return false
}
