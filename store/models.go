package store

import "time"

// BoothSettings are the admin-controlled knobs of the booth.
type BoothSettings struct {
	TotalShots       int    `json:"total_shots"`
	CountdownSeconds int    `json:"countdown_seconds"`
	Template         string `json:"template"`
	BackgroundColor  string `json:"background_color"`
	FrameColor       string `json:"frame_color"`
	AccentColor      string `json:"accent_color"`
	Caption          string `json:"caption"`
	LogoScale        int    `json:"logo_scale"`
	LogoPosition     string `json:"logo_position"`
}

type Logo struct {
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
}

// Capture is a composite saved to the gallery.
type Capture struct {
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	ShotCount int       `json:"shot_count"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	RemoteKey string    `json:"remote_key,omitempty"`
}
