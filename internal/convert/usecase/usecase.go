package usecase

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/internal/convert"
	"github.com/musicjacker/backend/internal/jobs"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/internal/storage"
	"github.com/musicjacker/backend/internal/taskrunner"
	"github.com/musicjacker/backend/internal/tokens"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
)

type convertUC struct {
	cfg        *config.Config
	transcoder media.Transcoder
	store      storage.Driver
	registry   jobs.Registry
	runner     taskrunner.Runner
	tokens     tokens.Authority
	logger     logger.Logger
}

func NewConvertUseCase(
	cfg *config.Config,
	transcoder media.Transcoder,
	store storage.Driver,
	registry jobs.Registry,
	runner taskrunner.Runner,
	tokenAuthority tokens.Authority,
	log logger.Logger,
) convert.UseCase {
	return &convertUC{
		cfg:        cfg,
		transcoder: transcoder,
		store:      store,
		registry:   registry,
		runner:     runner,
		tokens:     tokenAuthority,
		logger:     log,
	}
}

func (u *convertUC) StartConversion(ctx context.Context, filename string, content io.Reader, target string) (accepted *models.ConvertAccepted, retErr error) {
	if filename == "" || content == nil {
		return nil, convert.ErrNoFile
	}
	target = strings.ToLower(target)

	sourceExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !convert.ConversionAllowed(u.cfg.Convert.AllowedConversions, sourceExt, target) {
		return nil, convert.ErrUnsupported
	}

	sessionID := strings.ReplaceAll(uuid.NewString(), "-", "")
	sessionPath, err := u.store.PathFor(sessionID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(sessionPath, 0o755); err != nil {
		return nil, errors.Wrap(err, "convert.StartConversion.MkdirAll")
	}
	defer func() {
		if retErr != nil {
			if err := os.RemoveAll(sessionPath); err != nil {
				u.logger.Warnf("failed to clean up session %s: %v", sessionID, err)
			}
		}
	}()

	inputPath := filepath.Join(sessionPath, media.SafeFilename(filename))
	if err := writeUpload(inputPath, content); err != nil {
		return nil, err
	}

	// only containers with a meaningful duration get the pre-flight probe;
	// a probe failure degrades to heuristic progress, not a rejection
	var duration float64
	if sourceExt == "mp3" || sourceExt == "mp4" {
		probeCtx, cancel := context.WithTimeout(ctx, time.Duration(u.cfg.Limits.ProbeTimeoutSeconds)*time.Second)
		duration, err = u.transcoder.ProbeDuration(probeCtx, inputPath)
		cancel()
		if err != nil {
			u.logger.Debugf("duration probe failed for %s: %v", filename, err)
			duration = 0
		}
		if duration > float64(u.cfg.Limits.UploadDurationSeconds) {
			return nil, convert.ErrDurationExceeded
		}
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputName := media.EnsureUniqueFilename(sessionPath, baseName+"."+target)
	outputPath := filepath.Join(sessionPath, outputName)

	token, err := u.tokens.Create(outputPath, time.Duration(u.cfg.Storage.TokenTTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	jobID := strings.ReplaceAll(uuid.NewString(), "-", "")
	job := &models.ConvertJob{
		JobID:         jobID,
		SessionID:     sessionID,
		Status:        models.JobStatusQueued,
		DownloadToken: token,
		DownloadURL:   fmt.Sprintf("/serve/%s/%s?token=%s", sessionID, url.PathEscape(outputName), token),
		CreatedAt:     time.Now(),
	}
	if err := u.registry.Put(ctx, job); err != nil {
		return nil, err
	}

	spec := models.TranscodeSpec{
		InputPath:       inputPath,
		OutputPath:      outputPath,
		Target:          target,
		CodecArgs:       media.CodecArgs(target),
		DurationSeconds: duration,
		TimeoutSeconds:  u.cfg.Limits.ToolTimeoutSeconds,
	}
	if err := u.runner.Submit(ctx, job, spec); err != nil {
		// the caller never sees this job id, close the record out
		if markErr := u.registry.Update(ctx, jobID, func(j *models.ConvertJob) {
			j.Status = models.JobStatusError
			j.Message = "could not schedule conversion"
			j.CompletedAt = time.Now()
		}); markErr != nil {
			u.logger.Warnf("job %s: could not mark failed after submit error: %v", jobID, markErr)
		}
		return nil, errors.Wrap(err, "convert.StartConversion.Submit")
	}

	return &models.ConvertAccepted{
		Status:  "queued",
		JobID:   jobID,
		PollURL: "/api/convert/status/" + jobID,
	}, nil
}

func (u *convertUC) GetStatus(ctx context.Context, jobID string) (*models.ConvertJob, error) {
	return u.registry.Get(ctx, jobID)
}

func writeUpload(path string, content io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "convert.writeUpload.Create")
	}
	defer out.Close()
	if _, err := io.Copy(out, content); err != nil {
		return errors.Wrap(err, "convert.writeUpload.Copy")
	}
	return nil
}
