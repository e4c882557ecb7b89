package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicjacker/backend/pkg/logger"
)

func TestHTTPErrorHandlerRecoversPanicAsJSON(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = newHTTPErrorHandler(logger.NewNopLogger())
	e.Use(middleware.Recover())
	e.GET("/boom", func(c echo.Context) error {
		panic("handler blew up")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Server error"}`, rec.Body.String())
}

func TestHTTPErrorHandlerKeepsEchoErrorCode(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = newHTTPErrorHandler(logger.NewNopLogger())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Not Found"}`, rec.Body.String())
}
