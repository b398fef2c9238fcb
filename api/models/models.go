// Package models tracks all api models for request and responses
package models

import (
	"time"

	"github.com/aouyang1/photobooth/store"
)

type StartSessionRequest struct {
	Mode     string `json:"mode"`
	Template string `json:"template,omitempty"`
}

type FrameRequest struct {
	Frame string `json:"frame"`
}

type CaptureListResponse struct {
	Captures []store.Capture `json:"captures"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

type ShareResponse struct {
	Name     string `json:"name"`
	ShareURL string `json:"share_url"`
	QRURL    string `json:"qr_url"`
	QRImage  string `json:"qr_image"`
}

type SettingsResponse struct {
	store.BoothSettings
	HasLogo bool `json:"has_logo"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
