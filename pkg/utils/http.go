package utils

import (
	"github.com/labstack/echo/v4"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func JSONError(c echo.Context, code int, message string) error {
	return c.JSON(code, ErrorBody{Status: "error", Message: message})
}

// ReadRequest binds and validates a request body in one step.
func ReadRequest(c echo.Context, request interface{}) error {
	if err := c.Bind(request); err != nil {
		return err
	}
	return ValidateStruct(c.Request().Context(), request)
}

func GetRequestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func GetIPAddress(c echo.Context) string {
	return c.Request().RemoteAddr
}
