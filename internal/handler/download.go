package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-console/internal/view"
)

type DownloadHandler struct {
	Download *view.DownloadView
}

func (h *DownloadHandler) Release(c *gin.Context) {
	rel, available, err := h.Download.Release()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if !available {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "release": rel})
}

type downloadAttemptBody struct {
	Version string `json:"version"`
}

func (h *DownloadHandler) RecordAttempt(c *gin.Context) {
	var body downloadAttemptBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	h.Download.RecordDownloadAttempt(body.Version)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
