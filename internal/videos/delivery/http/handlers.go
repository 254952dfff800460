package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/internal/videos"
	"github.com/streamforge/vodengine/pkg/utils"
)

type videoHandler struct {
	videoUC videos.UseCase
}

func NewVideoHandler(videoUC videos.UseCase) videos.Handler {
	return &videoHandler{
		videoUC: videoUC,
	}
}

func (h *videoHandler) InitiateUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.InitiateUploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		upload, err := h.videoUC.InitiateUpload(c.Request().Context(), input)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, upload)
	}
}

type partURLsInput struct {
	Key      string `json:"key"`
	UploadID string `json:"upload_id"`
	Parts    int    `json:"parts"`
}

func (h *videoHandler) GetPartUploadURLs() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &partURLsInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		urls, err := h.videoUC.GetPartUploadURLs(c.Request().Context(), input.Key, input.UploadID, input.Parts)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"urls": urls})
	}
}

type completeUploadInput struct {
	Key      string                 `json:"key"`
	UploadID string                 `json:"upload_id"`
	Parts    []models.CompletedPart `json:"parts"`
}

func (h *videoHandler) CompleteUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &completeUploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.videoUC.CompleteUpload(c.Request().Context(), input.Key, input.UploadID, input.Parts)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}

type abortUploadInput struct {
	Key      string `json:"key"`
	UploadID string `json:"upload_id"`
}

func (h *videoHandler) AbortUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &abortUploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		if err := h.videoUC.AbortUpload(c.Request().Context(), input.Key, input.UploadID); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Upload aborted"})
	}
}

func (h *videoHandler) ListVideos() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		videoList, err := h.videoUC.ListVideos(c.Request().Context(), pagination)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, videoList)
	}
}
