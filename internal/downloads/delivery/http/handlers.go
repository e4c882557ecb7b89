package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/musicjacker/backend/internal/downloads"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/musicjacker/backend/pkg/utils"
	"github.com/pkg/errors"
)

type downloadHandler struct {
	downloadUC downloads.UseCase
	logger     logger.Logger
}

func NewDownloadHandler(downloadUC downloads.UseCase, log logger.Logger) downloads.Handler {
	return &downloadHandler{downloadUC: downloadUC, logger: log}
}

// DownloadAudio blocks for the full extraction, by design: the direct
// download flow has no separate polling step.
func (h *downloadHandler) DownloadAudio() echo.HandlerFunc {
	return func(c echo.Context) error {
		request := &models.DownloadRequest{}
		if err := c.Bind(request); err != nil {
			return utils.JSONError(c, http.StatusBadRequest, "Invalid JSON")
		}
		if err := utils.ValidateStruct(c.Request().Context(), request); err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				return utils.JSONError(c, http.StatusUnprocessableEntity, "Validation failed")
			}
			return utils.JSONError(c, http.StatusBadRequest, "Invalid request")
		}

		result, err := h.downloadUC.DownloadAndPrepare(c.Request().Context(), request.URL, request.Format)
		if err != nil {
			return h.mapError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func (h *downloadHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, downloads.ErrDurationExceeded):
		return utils.JSONError(c, http.StatusBadRequest, "Content is longer than the allowed duration limit")
	case errors.Is(err, media.ErrContentAccess):
		return utils.JSONError(c, http.StatusBadRequest,
			"This content requires authentication or cookies to download. Configure a cookies file and try again.")
	case errors.Is(err, media.ErrToolMissing):
		return utils.JSONError(c, http.StatusInternalServerError, "A required media tool is not installed on the server")
	case errors.Is(err, media.ErrToolTimeout):
		return utils.JSONError(c, http.StatusInternalServerError, "The download timed out")
	case errors.Is(err, downloads.ErrNothingProduced), errors.Is(err, media.ErrNoOutput):
		return utils.JSONError(c, http.StatusInternalServerError, "No file was produced for this URL")
	default:
		h.logger.Errorf("download failed: %v", err)
		return utils.JSONError(c, http.StatusInternalServerError, "Download failed")
	}
}
