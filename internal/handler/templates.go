package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-console/internal/view"
)

type TemplatesHandler struct {
	Templates *view.TemplatesView
}

func (h *TemplatesHandler) List(c *gin.Context) {
	templates, err := h.Templates.List()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *TemplatesHandler) Stats(c *gin.Context) {
	stats, err := h.Templates.Stats()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Upload accepts a multipart form with a single "file" part.
func (h *TemplatesHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if fileHeader.Size > view.MaxTemplateSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, view.MaxTemplateSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}

	tpl, err := h.Templates.Upload(fileHeader.Filename, content)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": tpl})
}

func (h *TemplatesHandler) Delete(c *gin.Context) {
	if err := h.Templates.Delete(c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *TemplatesHandler) Clear(c *gin.Context) {
	deleted, err := h.Templates.ClearAll()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "deleted": deleted})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
