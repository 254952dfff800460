package http

import (
	"github.com/labstack/echo/v4"
	"github.com/streamforge/vodengine/internal/videos"
)

func MapVideoRoutes(videoGroup *echo.Group, h videos.Handler) {
	videoGroup.POST("/upload/initiate", h.InitiateUpload())
	videoGroup.POST("/upload/part-urls", h.GetPartUploadURLs())
	videoGroup.POST("/upload/complete", h.CompleteUpload())
	videoGroup.POST("/upload/abort", h.AbortUpload())
	videoGroup.GET("/list", h.ListVideos())
}
