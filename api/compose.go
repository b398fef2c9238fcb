package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aouyang1/photobooth/api/models"
	"github.com/aouyang1/photobooth/compose"
	"github.com/aouyang1/photobooth/store"
	"github.com/aouyang1/photobooth/util"
	"github.com/gin-gonic/gin"
)

const maxComposeBytes = store.MaxShots * maxFrameBytes

// handleCompose renders uploaded frames with the saved styling without
// touching the gallery.
func (ws *WebServer) handleCompose(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxComposeBytes)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid multipart form: %v", err)})
		return
	}

	files := form.File["frames"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No frames provided"})
		return
	}
	if len(files) > store.MaxShots {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("At most %d frames are supported", store.MaxShots)})
		return
	}

	template := c.PostForm("template")
	if template == "" {
		settings, err := ws.db.GetBoothSettings()
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
			return
		}
		template = settings.Template
	}
	if !util.Templates.Contains(template) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Unknown template: %s", template)})
		return
	}

	frames := make([][]byte, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			slog.Warn("skipping unreadable frame upload", "name", fh.Filename, "error", err)
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Warn("skipping unreadable frame upload", "name", fh.Filename, "error", err)
			continue
		}
		frames = append(frames, data)
	}

	opts, err := ws.composeOptions(template)
	if err != nil {
		abortWithError(c, err)
		return
	}

	png, err := compose.Compose(c.Request.Context(), frames, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
