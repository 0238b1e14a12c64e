package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-console/internal/notify"
)

type NotificationsHandler struct {
	Center *notify.Center
}

func (h *NotificationsHandler) Recent(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.Center.Recent()})
}
