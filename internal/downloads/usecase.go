package downloads

import (
	"context"

	"github.com/musicjacker/backend/internal/models"
	"github.com/pkg/errors"
)

// Validation outcomes surfaced to the HTTP layer.
var (
	// ErrDurationExceeded rejects content longer than the configured
	// ceiling before any heavy work happens.
	ErrDurationExceeded = errors.New("content is longer than allowed")
	// ErrNothingProduced means extraction finished but left no usable
	// file in the session directory.
	ErrNothingProduced = errors.New("no file was produced")
)

// UseCase is the direct-download flow: blocking extract, optional
// transcode, token issuance. The caller gets back ready-to-fetch files.
type UseCase interface {
	DownloadAndPrepare(ctx context.Context, url, targetFormat string) (*models.DownloadResult, error)
}
