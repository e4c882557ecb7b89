package media

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
)

type ffmpegTranscoder struct {
	ffmpegPath  string
	ffprobePath string
	progressCfg config.ProgressConfig
	logger      logger.Logger
}

func NewFFmpegTranscoder(cfg *config.Config, log logger.Logger) Transcoder {
	ffmpegPath := cfg.Tools.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := cfg.Tools.FFprobePath
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &ffmpegTranscoder{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		progressCfg: cfg.Progress,
		logger:      log,
	}
}

// CodecArgs returns the encoder options for a target audio format. Unknown
// targets fall through to the tool's own defaults.
func CodecArgs(target string) []string {
	switch strings.ToLower(target) {
	case "mp3":
		return []string{"-vn", "-c:a", "libmp3lame", "-b:a", "192k"}
	case "m4a", "aac":
		return []string{"-vn", "-c:a", "aac", "-b:a", "192k"}
	case "wav":
		return []string{"-vn", "-c:a", "pcm_s16le"}
	case "flac":
		return []string{"-vn", "-c:a", "flac"}
	case "opus":
		return []string{"-vn", "-c:a", "libopus", "-b:a", "128k"}
	case "ogg":
		return []string{"-vn", "-c:a", "libvorbis", "-b:a", "128k"}
	default:
		return nil
	}
}

func (t *ffmpegTranscoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, t.classifyRunError(ctx, err, nil)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, errors.Wrap(err, "media.ffmpegTranscoder.ProbeDuration.ParseFloat")
	}
	return duration, nil
}

func (t *ffmpegTranscoder) Convert(ctx context.Context, inputPath, outputPath string, codecArgs []string) error {
	args := append([]string{"-y", "-i", inputPath}, codecArgs...)
	args = append(args, outputPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return t.classifyRunError(ctx, err, stderr.Bytes())
	}
	return nil
}

// ConvertWithProgress runs the transcode with a machine-readable progress
// stream on stdout and feeds each percentage change to onProgress.
func (t *ffmpegTranscoder) ConvertWithProgress(ctx context.Context, inputPath, outputPath string, codecArgs []string, totalSeconds float64, onProgress func(int)) error {
	args := append([]string{"-y", "-i", inputPath}, codecArgs...)
	args = append(args, "-progress", "pipe:1", "-nostats", outputPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "media.ffmpegTranscoder.ConvertWithProgress.StdoutPipe")
	}
	if err := cmd.Start(); err != nil {
		return t.classifyRunError(ctx, err, nil)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	est := NewEstimator(totalSeconds, t.progressCfg)
	ticker := time.NewTicker(time.Duration(t.progressCfg.TickMs) * time.Millisecond)
	defer ticker.Stop()

	last := 0
	report := func(pct int) {
		if pct > last {
			last = pct
			onProgress(pct)
		}
	}

	streaming := true
	for streaming {
		select {
		case line, ok := <-lines:
			if !ok {
				streaming = false
				break
			}
			if pct, parsed := est.ObserveLine(line); parsed {
				report(pct)
			}
		case now := <-ticker.C:
			report(est.Tick(now))
		}
	}

	if err := cmd.Wait(); err != nil {
		return t.classifyRunError(ctx, err, stderr.Bytes())
	}
	return nil
}

// classifyRunError translates exec failures into the error taxonomy. Tool
// stderr is logged here and not propagated.
func (t *ffmpegTranscoder) classifyRunError(ctx context.Context, err error, stderr []byte) error {
	if len(stderr) > 0 {
		t.logger.Errorf("ffmpeg failed: %s", bytes.TrimSpace(stderr))
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ErrToolMissing
	}
	if ctx.Err() == context.DeadlineExceeded {
		return ErrToolTimeout
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errors.New("conversion failed")
	}
	return errors.Wrap(err, "media.ffmpeg")
}
