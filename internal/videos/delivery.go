package videos

import "github.com/labstack/echo/v4"

type Handler interface {
	InitiateUpload() echo.HandlerFunc
	GetPartUploadURLs() echo.HandlerFunc
	CompleteUpload() echo.HandlerFunc
	AbortUpload() echo.HandlerFunc
	ListVideos() echo.HandlerFunc
}
