package files

import "github.com/labstack/echo/v4"

type Handler interface {
	ServeFile() echo.HandlerFunc
}
