package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleet-console/internal/view"
)

type DashboardHandler struct {
	Dashboard *view.DashboardView
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"summary": h.Dashboard.Summary()})
}

func (h *DashboardHandler) Detections(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days"})
			return
		}
		days = parsed
	}
	c.JSON(http.StatusOK, gin.H{"series": h.Dashboard.DetectionSeries(days)})
}

func (h *DashboardHandler) Recent(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"machines": h.Dashboard.RecentMachines(5),
		"logs":     h.Dashboard.RecentLogs(10),
	})
}

func (h *DashboardHandler) Refresh(c *gin.Context) {
	if err := h.Dashboard.Refresh(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": h.Dashboard.Summary()})
}
