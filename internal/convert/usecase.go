package convert

import (
	"context"
	"io"

	"github.com/musicjacker/backend/internal/models"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupported rejects a source/target pair outside the allowed
	// conversion matrix. No job is created and no file is retained.
	ErrUnsupported = errors.New("unsupported conversion")
	// ErrNoFile means the request carried no usable upload.
	ErrNoFile = errors.New("no file provided")
	// ErrDurationExceeded rejects uploads longer than the configured
	// ceiling.
	ErrDurationExceeded = errors.New("uploaded media exceeds the duration limit")
)

// UseCase accepts an uploaded file, registers a conversion job and
// schedules it on the task runner. Status polls go through GetStatus only.
type UseCase interface {
	StartConversion(ctx context.Context, filename string, content io.Reader, target string) (*models.ConvertAccepted, error)
	GetStatus(ctx context.Context, jobID string) (*models.ConvertJob, error)
}
