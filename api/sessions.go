package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aouyang1/photobooth/api/models"
	"github.com/aouyang1/photobooth/booth"
	"github.com/aouyang1/photobooth/compose"
	"github.com/aouyang1/photobooth/store"
	"github.com/aouyang1/photobooth/util"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zip"
)

const (
	maxFrameBytes  = 15 << 20
	sseHeartbeat   = 30 * time.Second
	discardTimeout = 5 * time.Second
)

func (ws *WebServer) handleStartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	settings, err := ws.db.GetBoothSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}

	template := settings.Template
	if req.Template != "" {
		if !util.Templates.Contains(req.Template) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Unknown template: %s", req.Template)})
			return
		}
		template = req.Template
	}

	s, err := ws.sessions.Start(booth.StartOptions{
		Mode:      req.Mode,
		Template:  template,
		Shots:     settings.TotalShots,
		Countdown: settings.CountdownSeconds,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, s.Status())
}

// finishSession composes the frames of a finished sequence and saves the
// result to the gallery.
func (ws *WebServer) finishSession(ctx context.Context, s *booth.Session, frames [][]byte) (string, error) {
	var (
		png      []byte
		template string
		err      error
	)

	if s.Mode == booth.ModeSingle {
		template = util.TemplateRaw
		png, err = compose.EncodePNG(frames[0])
	} else {
		template = s.Template
		var opts compose.Options
		opts, err = ws.composeOptions(template)
		if err != nil {
			return "", err
		}
		png, err = compose.Compose(ctx, frames, opts)
	}
	if err != nil {
		return "", err
	}

	capture, err := ws.gallery.Save(ctx, png, template, len(frames))
	if err != nil {
		return "", err
	}
	return capture.Name, nil
}

// composeOptions builds compose options from the saved settings and logo.
func (ws *WebServer) composeOptions(template string) (compose.Options, error) {
	settings, err := ws.db.GetBoothSettings()
	if err != nil {
		return compose.Options{}, err
	}

	opts := compose.Options{
		Template:        template,
		BackgroundColor: settings.BackgroundColor,
		FrameColor:      settings.FrameColor,
		AccentColor:     settings.AccentColor,
		Caption:         settings.Caption,
		LogoScale:       settings.LogoScale,
		LogoPosition:    settings.LogoPosition,
	}

	logo, err := ws.db.GetLogo()
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return compose.Options{}, err
	default:
		opts.Logo = logo.Data
	}
	return opts, nil
}

func (ws *WebServer) handleGetSession(c *gin.Context) {
	s, err := ws.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

func (ws *WebServer) handleSessionEvents(c *gin.Context) {
	s, err := ws.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx

	ch, unsub := s.Events().Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	c.Status(http.StatusOK)
	io.WriteString(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(evt.Type, evt)
			c.Writer.Flush()

		case <-ticker.C:
			io.WriteString(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

func (ws *WebServer) handleDeliverFrame(c *gin.Context) {
	var frame []byte
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes)

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req models.FrameRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
			return
		}
		frame = []byte(req.Frame)
	} else {
		data, err := io.ReadAll(body)
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: fmt.Sprintf("Unable to read frame: %v", err)})
			return
		}
		frame = data
	}

	if len(frame) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Frame is required"})
		return
	}

	if err := ws.sessions.Deliver(c.Param("id"), frame); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.MessageResponse{Message: "Frame received"})
}

// handleDiscardSession is the retake action: the run is cancelled and its
// frames and composite are thrown away.
func (ws *WebServer) handleDiscardSession(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), discardTimeout)
	defer cancel()

	st, err := ws.sessions.Discard(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if st.Capture != "" {
		if err := ws.gallery.Delete(ctx, st.Capture); err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Warn("unable to delete discarded capture", "session", id, "capture", st.Capture, "error", err)
		}
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Session '%s' discarded", id)})
}

func frameExt(raw []byte) string {
	if http.DetectContentType(raw) == "image/jpeg" {
		return ".jpg"
	}
	return ".png"
}

func (ws *WebServer) handleSessionFramesZip(c *gin.Context) {
	s, err := ws.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	frames := s.Frames()
	if len(frames) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Session has no frames yet"})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", "attachment; filename=frames.zip")
	c.Status(http.StatusOK)

	zw := zip.NewWriter(c.Writer)
	for i, frame := range frames {
		raw, err := compose.RawFrame(frame)
		if err != nil {
			slog.Warn("skipping frame in bundle", "session", s.ID, "index", i, "error", err)
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     fmt.Sprintf("shot-%02d%s", i+1, frameExt(raw)),
			Method:   zip.Store,
			Modified: s.CreatedAt,
		})
		if err != nil {
			slog.Error("unable to add frame to bundle", "session", s.ID, "error", err)
			return
		}
		if _, err := w.Write(raw); err != nil {
			slog.Error("unable to write frame to bundle", "session", s.ID, "error", err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		slog.Error("unable to finish frame bundle", "session", s.ID, "error", err)
	}
}
