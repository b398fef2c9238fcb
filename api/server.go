// Package api is the main api web server
package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aouyang1/photobooth/api/models"
	"github.com/aouyang1/photobooth/booth"
	"github.com/aouyang1/photobooth/compose"
	"github.com/aouyang1/photobooth/config"
	"github.com/aouyang1/photobooth/gallery"
	"github.com/aouyang1/photobooth/store"
	"github.com/gin-gonic/gin"
)

//go:embed web/static/*
var webFiles embed.FS

const shutdownTimeout = 5 * time.Second

type WebServer struct {
	router *gin.Engine
	cfg    *config.Config
	db     *store.Database

	gallery   *gallery.Gallery
	retention *gallery.RetentionManager
	sessions  *booth.Manager
	auth      *AdminAuth
}

func NewWebServer(cfg *config.Config, db *store.Database, g *gallery.Gallery, timing booth.Timing) (*WebServer, error) {
	router := gin.Default()

	ws := &WebServer{
		router:    router,
		cfg:       cfg,
		db:        db,
		gallery:   g,
		retention: gallery.NewRetentionManager(g, cfg.RetentionLimit, cfg.RetentionInterval()),
		auth:      NewAdminAuth(db, cfg.AdminSessionTTL()),
	}
	ws.sessions = booth.NewManager(ws.finishSession, timing)

	if err := ws.auth.Bootstrap(cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to bootstrap admin password: %w", err)
	}

	// Setup routes
	ws.setupRoutes()

	return ws, nil
}

func (ws *WebServer) setupRoutes() {
	// Create filesystem for static files (strip "web/" prefix)
	staticFS, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		log.Fatalf("Failed to create static filesystem: %v", err)
	}

	// Serve static files from embedded filesystem
	ws.router.StaticFS("static", http.FS(staticFS))

	// The service worker and manifest must be served from the root scope
	serveStatic := func(name, contentType string) gin.HandlerFunc {
		return func(c *gin.Context) {
			data, err := fs.ReadFile(staticFS, name)
			if err != nil {
				slog.Error("failed to read static file", "name", name, "error", err)
				c.String(http.StatusInternalServerError, "Failed to load "+name)
				return
			}
			c.Data(http.StatusOK, contentType, data)
		}
	}
	ws.router.GET("/", serveStatic("index.html", "text/html; charset=utf-8"))
	ws.router.GET("/sw.js", serveStatic("sw.js", "application/javascript"))
	ws.router.GET("/manifest.json", serveStatic("manifest.json", "application/manifest+json"))
	ws.router.GET("/ui/captures", ws.handleUICaptures)

	// Booth routes
	ws.router.GET("/settings", ws.handleGetSettings)
	ws.router.GET("/settings/logo", ws.handleGetLogo)
	ws.router.POST("/sessions", ws.handleStartSession)
	ws.router.GET("/sessions/:id", ws.handleGetSession)
	ws.router.GET("/sessions/:id/events", ws.handleSessionEvents)
	ws.router.POST("/sessions/:id/frames", ws.handleDeliverFrame)
	ws.router.GET("/sessions/:id/frames.zip", ws.handleSessionFramesZip)
	ws.router.DELETE("/sessions/:id", ws.handleDiscardSession)
	ws.router.POST("/compose", ws.handleCompose)

	// Gallery routes
	ws.router.GET("/captures", ws.handleListCaptures)
	ws.router.GET("/captures/:name/image", ws.handleCaptureImage)
	ws.router.GET("/captures/:name/print", ws.handleCapturePrint)
	ws.router.GET("/captures/:name/qr", ws.handleCaptureQR)
	ws.router.GET("/captures/:name/share", ws.handleCaptureShare)
	ws.router.DELETE("/captures/:name", ws.auth.Middleware(), ws.handleDeleteCapture)

	// Admin routes
	ws.router.POST("/admin/login", ws.handleLogin)
	admin := ws.router.Group("/admin", ws.auth.Middleware())
	admin.POST("/logout", ws.handleLogout)
	admin.PUT("/settings", ws.handleUpdateSettings)
	admin.PUT("/logo", ws.handleUploadLogo)
	admin.DELETE("/logo", ws.handleDeleteLogo)
	admin.PUT("/password", ws.handleChangePassword)
}

// Handler exposes the router, mostly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (ws *WebServer) Run(ctx context.Context) error {
	go ws.retention.Run(ctx)

	srv := &http.Server{
		Addr:    ws.cfg.Addr,
		Handler: ws.router,
		// cancels open event streams on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", ws.cfg.Addr, "public_url", ws.cfg.PublicURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := ws.sessions.Shutdown(shutdownCtx); err != nil {
			slog.Warn("capture session did not stop in time", "error", err)
		}
		err := srv.Shutdown(shutdownCtx)
		ws.gallery.Wait()
		slog.Info("web server stopped")
		return err
	}
}

// statusFor maps domain errors to http status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, booth.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, gallery.ErrInvalidName),
		errors.Is(err, compose.ErrUnknownTemplate),
		errors.Is(err, compose.ErrFrameTooLarge),
		errors.Is(err, booth.ErrInvalidMode),
		errors.Is(err, ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, booth.ErrSessionBusy),
		errors.Is(err, booth.ErrSessionFinished),
		errors.Is(err, booth.ErrNoPendingCapture):
		return http.StatusConflict
	case errors.Is(err, compose.ErrNoFrames):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}
