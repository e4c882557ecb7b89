package http

import (
	"github.com/labstack/echo/v4"
	"github.com/musicjacker/backend/internal/files"
)

func MapFilesRoutes(group *echo.Group, h files.Handler) {
	group.GET("/:session_id/:filename", h.ServeFile())
}
