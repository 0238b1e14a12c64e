package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-console/internal/model"
	"fleet-console/internal/view"
)

type SettingsHandler struct {
	Settings *view.SettingsView
}

func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.Settings.Load()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

func (h *SettingsHandler) Put(c *gin.Context) {
	var body model.Settings
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	saved, err := h.Settings.Save(body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": saved})
}

func (h *SettingsHandler) Usage(c *gin.Context) {
	usage, err := h.Settings.Usage()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

type cleanupBody struct {
	Days int `json:"days"`
}

func (h *SettingsHandler) Cleanup(c *gin.Context) {
	var body cleanupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	deleted, err := h.Settings.DeleteOldLogs(body.Days)
	if err != nil {
		if deleted > 0 {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "deleted": deleted})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *SettingsHandler) ExportAll(c *gin.Context) {
	raw, err := h.Settings.ExportAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=fleet-export.json")
	c.Data(http.StatusOK, "application/json", raw)
}
