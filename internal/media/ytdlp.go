package media

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"time"

	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
)

const probeCacheTTL = time.Hour

type ytdlpExtractor struct {
	binPath      string
	cookiesFile  string
	probeTimeout time.Duration
	cache        *probeCache
	logger       logger.Logger
}

func NewYtDlpExtractor(cfg *config.Config, log logger.Logger) Extractor {
	binPath := cfg.Tools.YtDlpPath
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &ytdlpExtractor{
		binPath:      binPath,
		cookiesFile:  cfg.Tools.CookiesFile,
		probeTimeout: time.Duration(cfg.Limits.ProbeTimeoutSeconds) * time.Second,
		cache:        newProbeCache(probeCacheTTL),
		logger:       log,
	}
}

func (e *ytdlpExtractor) baseArgs() []string {
	args := []string{"--no-warnings", "--quiet"}
	if e.cookiesFile != "" {
		args = append(args, "--cookies", e.cookiesFile)
	}
	return args
}

// Probe fetches metadata without downloading. Results are cached so the
// pre-flight check does not double the extractor round-trips.
func (e *ytdlpExtractor) Probe(ctx context.Context, url string) (*MediaInfo, error) {
	key := cacheKey(url)
	if info, ok := e.cache.get(key); ok {
		return info, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	args := append(e.baseArgs(), "--skip-download", "-J", url)
	cmd := exec.CommandContext(ctx, e.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, e.classifyRunError(ctx, err, stderr.Bytes())
	}

	info := &MediaInfo{}
	if err := json.Unmarshal(stdout.Bytes(), info); err != nil {
		return nil, errors.Wrap(err, "media.ytdlpExtractor.Probe.Unmarshal")
	}
	e.cache.set(key, info)
	return info, nil
}

// Download writes media files under outputTemplate and returns what the
// tool reports having written. Playlists yield one JSON document per entry
// on stdout; they are folded into a playlist MediaInfo.
func (e *ytdlpExtractor) Download(ctx context.Context, url, outputTemplate, format string) (*MediaInfo, error) {
	if format == "" {
		format = "bestaudio/best"
	}
	args := append(e.baseArgs(),
		"-f", format,
		"-o", outputTemplate,
		"--print-json",
		url,
	)
	cmd := exec.CommandContext(ctx, e.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, e.classifyRunError(ctx, err, stderr.Bytes())
	}

	decoder := json.NewDecoder(&stdout)
	var entries []*MediaInfo
	for {
		info := &MediaInfo{}
		if err := decoder.Decode(info); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "media.ytdlpExtractor.Download.Decode")
		}
		entries = append(entries, info)
	}

	switch len(entries) {
	case 0:
		return nil, ErrNoOutput
	case 1:
		return entries[0], nil
	default:
		return &MediaInfo{Type: "playlist", Entries: entries}, nil
	}
}

func (e *ytdlpExtractor) classifyRunError(ctx context.Context, err error, stderr []byte) error {
	if len(stderr) > 0 {
		e.logger.Errorf("yt-dlp failed: %s", bytes.TrimSpace(stderr))
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ErrToolMissing
	}
	if ctx.Err() == context.DeadlineExceeded {
		return ErrToolTimeout
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return classifyExtractorFailure(string(stderr))
	}
	return errors.Wrap(err, "media.ytdlp")
}
