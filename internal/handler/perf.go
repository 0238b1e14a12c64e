package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleet-console/internal/perf"
)

type PerfHandler struct {
	Monitor *perf.Monitor
}

func (h *PerfHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"metrics": h.Monitor.Metrics()})
}

func (h *PerfHandler) Export(c *gin.Context) {
	n := 100
	if raw := c.Query("samples"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > perf.MaxSamples {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid samples"})
			return
		}
		n = parsed
	}

	raw, err := h.Monitor.Export(n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=performance-report.json")
	c.Data(http.StatusOK, "application/json", raw)
}

func (h *PerfHandler) Clear(c *gin.Context) {
	h.Monitor.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
