package media

import "context"

// MediaInfo is the structured metadata the extractor reports for a URL.
// Playlists carry entries; single items carry a duration and, after a
// download, the paths of the files that were written.
type MediaInfo struct {
	Type     string       `json:"_type,omitempty"`
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Ext      string       `json:"ext,omitempty"`
	Duration float64      `json:"duration,omitempty"`
	Entries  []*MediaInfo `json:"entries,omitempty"`

	Filename           string              `json:"filename,omitempty"`
	RequestedDownloads []RequestedDownload `json:"requested_downloads,omitempty"`
}

type RequestedDownload struct {
	Filepath string `json:"filepath"`
}

func (m *MediaInfo) IsPlaylist() bool {
	return m != nil && (m.Type == "playlist" || len(m.Entries) > 0)
}

// ProducedFiles returns every file path the extractor reported writing,
// in playlist order. May be empty when the tool's metadata is stale; the
// caller then falls back to a directory scan.
func (m *MediaInfo) ProducedFiles() []string {
	if m == nil {
		return nil
	}
	var paths []string
	for _, rd := range m.RequestedDownloads {
		if rd.Filepath != "" {
			paths = append(paths, rd.Filepath)
		}
	}
	if len(paths) == 0 && m.Filename != "" {
		paths = append(paths, m.Filename)
	}
	for _, entry := range m.Entries {
		paths = append(paths, entry.ProducedFiles()...)
	}
	return paths
}

// Extractor is the external media-extraction tool. Probe fetches metadata
// without downloading; Download writes media files under the output
// template and returns what it wrote.
type Extractor interface {
	Probe(ctx context.Context, url string) (*MediaInfo, error)
	Download(ctx context.Context, url, outputTemplate, format string) (*MediaInfo, error)
}

// Transcoder is the external transcoding tool.
type Transcoder interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	Convert(ctx context.Context, inputPath, outputPath string, codecArgs []string) error
	// ConvertWithProgress reports a monotonically non-decreasing
	// percentage below 100 while the tool runs.
	ConvertWithProgress(ctx context.Context, inputPath, outputPath string, codecArgs []string, totalSeconds float64, onProgress func(int)) error
}
