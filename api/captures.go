package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aouyang1/photobooth/api/models"
	"github.com/aouyang1/photobooth/api/web/templates"
	"github.com/aouyang1/photobooth/qr"
	"github.com/gin-gonic/gin"
)

const (
	maxPageLimit     = 100
	galleryPageLimit = 50
	downloadFilename = "photo-strip.png"
)

func (ws *WebServer) handleListCaptures(c *gin.Context) {
	// Parse query parameters
	pageStr := c.DefaultQuery("page", "1")
	limitStr := c.DefaultQuery("limit", "20")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid page parameter"})
		return
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > maxPageLimit {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid limit parameter"})
		return
	}

	// Calculate offset
	offset := (page - 1) * limit

	captures, total, err := ws.gallery.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	c.JSON(http.StatusOK, models.CaptureListResponse{
		Captures: captures,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

func (ws *WebServer) handleUICaptures(c *gin.Context) {
	captures, _, err := ws.gallery.List(galleryPageLimit, 0)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error fetching captures: %v", err))
		return
	}

	token := bearerToken(c)
	admin := token != "" && ws.auth.Validate(token) == nil

	var buf bytes.Buffer
	if err := templates.RenderGallery(&buf, captures, admin); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error rendering captures: %v", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (ws *WebServer) handleCaptureImage(c *gin.Context) {
	name := c.Param("name")
	data, err := ws.gallery.Read(name)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if c.Query("download") == "1" {
		c.Header("Content-Disposition", "attachment; filename="+downloadFilename)
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (ws *WebServer) handleCapturePrint(c *gin.Context) {
	name := c.Param("name")
	if _, err := ws.gallery.Get(name); err != nil {
		abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := templates.RenderPrint(&buf, name); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error rendering print page: %v", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (ws *WebServer) handleCaptureQR(c *gin.Context) {
	name := c.Param("name")

	size := qr.DefaultSize
	if sizeStr := c.Query("size"); sizeStr != "" {
		v, err := strconv.Atoi(sizeStr)
		if err != nil || v < 1 || v > qr.MaxSize {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid size parameter"})
			return
		}
		size = v
	}

	shareURL, err := ws.gallery.ShareURL(c.Request.Context(), name, ws.cfg.PublicURL)
	if err != nil {
		abortWithError(c, err)
		return
	}

	png, err := qr.Encode(shareURL, size)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (ws *WebServer) handleCaptureShare(c *gin.Context) {
	name := c.Param("name")

	shareURL, err := ws.gallery.ShareURL(c.Request.Context(), name, ws.cfg.PublicURL)
	if err != nil {
		abortWithError(c, err)
		return
	}

	qrURL, err := qr.ServiceURL(ws.cfg.QRServiceURL, shareURL, qr.DefaultSize)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ShareResponse{
		Name:     name,
		ShareURL: shareURL,
		QRURL:    qrURL,
		QRImage:  templates.QRImageURL(name),
	})
}

func (ws *WebServer) handleDeleteCapture(c *gin.Context) {
	name := c.Param("name")
	if err := ws.gallery.Delete(c.Request.Context(), name); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Capture '%s' deleted successfully", name)})
}
