package store

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/aouyang1/photobooth/util"
)

const (
	MinShots        = 1
	MaxShots        = 10
	MaxCountdown    = 30
	MinLogoScale    = 1
	MaxLogoScale    = 400
	MaxCaptionRunes = 64
)

var validHexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DefaultBoothSettings are used until an admin saves settings.
func DefaultBoothSettings() *BoothSettings {
	return &BoothSettings{
		TotalShots:       4,
		CountdownSeconds: 3,
		Template:         util.TemplateStrip,
		BackgroundColor:  "#ffffff",
		FrameColor:       "#ffffff",
		AccentColor:      "#333333",
		LogoScale:        25,
		LogoPosition:     util.PositionBottomRight,
	}
}

// Validate enforces shot count >= 1 and countdown >= 0 along with the enum
// and color formats.
func (s *BoothSettings) Validate() error {
	if s.TotalShots < MinShots || s.TotalShots > MaxShots {
		return fmt.Errorf("total_shots must be between %d and %d, got %d", MinShots, MaxShots, s.TotalShots)
	}
	if s.CountdownSeconds < 0 || s.CountdownSeconds > MaxCountdown {
		return fmt.Errorf("countdown_seconds must be between 0 and %d, got %d", MaxCountdown, s.CountdownSeconds)
	}
	if !util.Templates.Contains(s.Template) {
		return fmt.Errorf("template must be one of strip, grid, single, got %q", s.Template)
	}
	for name, c := range map[string]string{
		"background_color": s.BackgroundColor,
		"frame_color":      s.FrameColor,
		"accent_color":     s.AccentColor,
	} {
		if !validHexColor.MatchString(c) {
			return fmt.Errorf("invalid %s: need #rgb or #rrggbb, got %q", name, c)
		}
	}
	if s.LogoScale < MinLogoScale || s.LogoScale > MaxLogoScale {
		return fmt.Errorf("logo_scale must be between %d and %d, got %d", MinLogoScale, MaxLogoScale, s.LogoScale)
	}
	if !util.LogoPositions.Contains(s.LogoPosition) {
		return fmt.Errorf("invalid logo_position %q", s.LogoPosition)
	}
	if utf8.RuneCountInString(s.Caption) > MaxCaptionRunes {
		return fmt.Errorf("caption must be at most %d characters", MaxCaptionRunes)
	}
	return nil
}
