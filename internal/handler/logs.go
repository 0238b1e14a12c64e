package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet-console/internal/query"
	"fleet-console/internal/view"
)

type LogsHandler struct {
	Logs *view.LogsView
}

func criteriaFromQuery(c *gin.Context) query.LogCriteria {
	return query.LogCriteria{
		MachineID: c.Query("machineId"),
		Event:     c.Query("event"),
		DateFrom:  c.Query("dateFrom"),
		DateTo:    c.Query("dateTo"),
	}
}

func (h *LogsHandler) List(c *gin.Context) {
	criteria := criteriaFromQuery(c)
	if criteria != h.Logs.Criteria() {
		if err := h.Logs.ApplyFilter(criteria); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":       h.Logs.List(),
		"pagination": h.Logs.Pagination(),
	})
}

func (h *LogsHandler) LoadMore(c *gin.Context) {
	if err := h.Logs.LoadMore(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":       h.Logs.List(),
		"pagination": h.Logs.Pagination(),
	})
}

func (h *LogsHandler) Export(c *gin.Context) {
	raw, err := h.Logs.Export(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=detection-logs.json")
	c.Data(http.StatusOK, "application/json", raw)
}
