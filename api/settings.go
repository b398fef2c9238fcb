package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aouyang1/photobooth/api/models"
	"github.com/aouyang1/photobooth/compose"
	"github.com/aouyang1/photobooth/store"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gin-gonic/gin"
)

const maxLogoBytes = 5 << 20

var logoContentTypes = mapset.NewSet("image/png", "image/jpeg")

func (ws *WebServer) settingsResponse(settings *store.BoothSettings) (models.SettingsResponse, error) {
	_, err := ws.db.GetLogo()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.SettingsResponse{}, err
	}
	return models.SettingsResponse{
		BoothSettings: *settings,
		HasLogo:       err == nil,
	}, nil
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	settings, err := ws.db.GetBoothSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}

	resp, err := ws.settingsResponse(settings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get logo: %v", err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ws *WebServer) handleGetLogo(c *gin.Context) {
	logo, err := ws.db.GetLogo()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, logo.ContentType, logo.Data)
}

func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req store.BoothSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := ws.db.UpsertBoothSettings(&req); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update settings: %v", err)})
		return
	}

	resp, err := ws.settingsResponse(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get logo: %v", err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ws *WebServer) handleUploadLogo(c *gin.Context) {
	// Get the file from the form
	file, err := c.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No logo file provided"})
		return
	}
	if file.Size > maxLogoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: fmt.Sprintf("Logo must be at most %d bytes", maxLogoBytes)})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to open logo: %v", err)})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxLogoBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to read logo: %v", err)})
		return
	}
	if len(data) > maxLogoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: fmt.Sprintf("Logo must be at most %d bytes", maxLogoBytes)})
		return
	}

	contentType := http.DetectContentType(data)
	if !logoContentTypes.Contains(contentType) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Unsupported logo type: %s. Supported: png, jpeg", contentType)})
		return
	}
	if _, err := compose.DecodeFrame(data); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid logo image: %v", err)})
		return
	}

	if err := ws.db.UpsertLogo(&store.Logo{Data: data, ContentType: contentType}); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to save logo: %v", err)})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logo uploaded successfully"})
}

func (ws *WebServer) handleDeleteLogo(c *gin.Context) {
	if err := ws.db.DeleteLogo(); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to delete logo: %v", err)})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logo removed"})
}

func (ws *WebServer) handleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	token, expires, err := ws.auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Wrong password"})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LoginResponse{Token: token, ExpiresAt: expires})
}

func (ws *WebServer) handleLogout(c *gin.Context) {
	ws.auth.Logout(bearerToken(c))
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out"})
}

func (ws *WebServer) handleChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if err := ws.auth.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
		// 401 is reserved for an expired admin token
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Current password is wrong"})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Password changed, please log in again"})
}
