package downloads

import "github.com/labstack/echo/v4"

type Handler interface {
	DownloadAudio() echo.HandlerFunc
}
