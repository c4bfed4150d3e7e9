package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"mediadl/config"
	"mediadl/fetch"
	"mediadl/task"
)

type Handler struct {
	taskManager *task.Manager
	cfg         *config.Config
}

func NewHandler(tm *task.Manager, cfg *config.Config) *Handler {
	return &Handler{
		taskManager: tm,
		cfg:         cfg,
	}
}

type DownloadRequest struct {
	URL       string `json:"url" binding:"required"`
	MediaType string `json:"media_type" binding:"required"`
	Quality   string `json:"quality" binding:"required"`
}

// handleCreateDownload validates the request, registers a PENDING task and
// returns immediately; the download itself runs on the worker pool.
func (h *Handler) handleCreateDownload(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !fetch.ValidateURL(req.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL format"})
		return
	}

	mediaType := task.MediaType(req.MediaType)
	if !mediaType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media_type"})
		return
	}

	if !task.ValidQuality(mediaType, req.Quality) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid quality %q for media_type %q", req.Quality, req.MediaType),
		})
		return
	}

	t, err := h.taskManager.Submit(req.URL, mediaType, req.Quality)
	if err != nil {
		if errors.Is(err, task.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is busy, try again later"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": t.ID, "status": "queued"})
}

// handleStatus returns the task's current fields. The submitted URL is never
// part of the response.
func (h *Handler) handleStatus(c *gin.Context) {
	t, found := h.taskManager.Get(c.Param("taskId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// handleFile serves the produced artifact: a pointer to object storage when
// the file was uploaded, otherwise the local file as an attachment with a
// content type derived from its extension.
func (h *Handler) handleFile(c *gin.Context) {
	t, found := h.taskManager.Get(c.Param("taskId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	if t.State != task.StateSuccess || t.Result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not ready or download failed"})
		return
	}

	if t.Result.RemoteURL != "" {
		c.JSON(http.StatusOK, gin.H{"remote_url": t.Result.RemoteURL})
		return
	}

	if _, err := os.Stat(t.Result.FilePath); err != nil {
		// Task succeeded but the local file is gone, e.g. cleaned up.
		c.JSON(http.StatusNotFound, gin.H{"error": "File missing"})
		return
	}

	c.FileAttachment(t.Result.FilePath, t.Result.Filename)
}

// handleFormats enumerates the permitted quality tiers per media type.
func (h *Handler) handleFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"video": gin.H{
			"formats": task.VideoQualities,
			"descriptions": gin.H{
				"1080p": "Full HD - High quality, larger file size (~500MB+ per hour)",
				"720p":  "HD - Good quality, medium file size (~250MB per hour)",
				"360p":  "Standard - Lower quality, smaller file size (~100MB per hour)",
			},
		},
		"audio": gin.H{
			"formats": task.AudioQualities,
			"descriptions": gin.H{
				"excellent": "320 kbps - Studio quality, larger file (~1.5MB per minute)",
				"good":      "192 kbps - High quality, medium file (~1MB per minute)",
				"ok":        "128 kbps - Compressed, smaller file (~0.8MB per minute)",
			},
		},
	})
}
