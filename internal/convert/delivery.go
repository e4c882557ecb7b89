package convert

import "github.com/labstack/echo/v4"

type Handler interface {
	StartConversion() echo.HandlerFunc
	ConversionStatus() echo.HandlerFunc
}
