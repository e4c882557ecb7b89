package http

import (
	"github.com/labstack/echo/v4"
	"github.com/musicjacker/backend/internal/convert"
)

func MapConvertRoutes(group *echo.Group, h convert.Handler) {
	group.POST("", h.StartConversion())
	group.GET("/status/:job_id", h.ConversionStatus())
}
