package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/musicjacker/backend/internal/convert"
	"github.com/musicjacker/backend/internal/jobs"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/musicjacker/backend/pkg/utils"
	"github.com/pkg/errors"
)

type convertHandler struct {
	convertUC convert.UseCase
	logger    logger.Logger
}

func NewConvertHandler(convertUC convert.UseCase, log logger.Logger) convert.Handler {
	return &convertHandler{convertUC: convertUC, logger: log}
}

func (h *convertHandler) StartConversion() echo.HandlerFunc {
	return func(c echo.Context) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return utils.JSONError(c, http.StatusBadRequest, "No file uploaded")
		}
		target := c.FormValue("target")
		if target == "" {
			return utils.JSONError(c, http.StatusBadRequest, "Target format not specified")
		}

		src, err := fileHeader.Open()
		if err != nil {
			return utils.JSONError(c, http.StatusBadRequest, "Could not read uploaded file")
		}
		defer src.Close()

		accepted, err := h.convertUC.StartConversion(c.Request().Context(), fileHeader.Filename, src, target)
		if err != nil {
			return h.mapError(c, err)
		}
		return c.JSON(http.StatusAccepted, accepted)
	}
}

func (h *convertHandler) ConversionStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := h.convertUC.GetStatus(c.Request().Context(), c.Param("job_id"))
		if err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				return utils.JSONError(c, http.StatusNotFound, "Job not found")
			}
			h.logger.Errorf("status lookup failed: %v", err)
			return utils.JSONError(c, http.StatusInternalServerError, "Server error")
		}

		response := &models.JobStatusResponse{
			Status:   job.Status,
			Progress: job.Progress,
			Message:  job.Message,
		}
		if job.Status == models.JobStatusDone {
			response.DownloadURL = job.DownloadURL
		}
		return c.JSON(http.StatusOK, response)
	}
}

func (h *convertHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, convert.ErrNoFile):
		return utils.JSONError(c, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, convert.ErrUnsupported):
		return utils.JSONError(c, http.StatusBadRequest, "Unsupported conversion")
	case errors.Is(err, convert.ErrDurationExceeded):
		return utils.JSONError(c, http.StatusBadRequest, "Uploaded audio/video exceeds the duration limit")
	case errors.Is(err, media.ErrToolMissing):
		return utils.JSONError(c, http.StatusInternalServerError, "A required media tool is not installed on the server")
	default:
		h.logger.Errorf("conversion start failed: %v", err)
		return utils.JSONError(c, http.StatusInternalServerError, "Server error")
	}
}
