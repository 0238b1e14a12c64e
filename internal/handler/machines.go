package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-console/internal/query"
	"fleet-console/internal/view"
)

type MachinesHandler struct {
	Machines *view.MachinesView
}

// List applies the query-string criteria and returns the loaded page set plus
// the cursor state. Passing more=true fetches the next page instead of
// restarting from the current criteria.
func (h *MachinesHandler) List(c *gin.Context) {
	if c.Query("more") == "true" {
		h.LoadMore(c)
		return
	}

	criteria := query.MachineCriteria{
		Search: c.Query("search"),
		Status: query.StatusFilter(c.DefaultQuery("status", string(query.StatusAll))),
	}
	switch criteria.Status {
	case query.StatusAll, query.StatusOnline, query.StatusOffline:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	if criteria != h.Machines.Criteria() {
		if err := h.Machines.SetCriteria(criteria); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"machines":   h.Machines.List(),
		"pagination": h.Machines.Pagination(),
	})
}

func (h *MachinesHandler) LoadMore(c *gin.Context) {
	if err := h.Machines.LoadMore(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"machines":   h.Machines.List(),
		"pagination": h.Machines.Pagination(),
	})
}

func (h *MachinesHandler) Details(c *gin.Context) {
	details, ok := h.Machines.Details(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"machine": details})
}

type uninstallBody struct {
	Reason string `json:"reason"`
}

func (h *MachinesHandler) Uninstall(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.Machines.Details(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}

	var body uninstallBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.Machines.SendUninstall(id, body.Reason); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
