package http

import (
	"github.com/labstack/echo/v4"
	"github.com/musicjacker/backend/internal/downloads"
)

func MapDownloadRoutes(group *echo.Group, h downloads.Handler) {
	group.POST("/download", h.DownloadAudio())
}
