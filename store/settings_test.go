package store

import "testing"

func TestBoothSettingsValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(s *BoothSettings)
		wantErr bool
	}{
		{"defaults", func(s *BoothSettings) {}, false},
		{"one_shot", func(s *BoothSettings) { s.TotalShots = 1 }, false},
		{"zero_shots", func(s *BoothSettings) { s.TotalShots = 0 }, true},
		{"too_many_shots", func(s *BoothSettings) { s.TotalShots = MaxShots + 1 }, true},
		{"zero_countdown", func(s *BoothSettings) { s.CountdownSeconds = 0 }, false},
		{"negative_countdown", func(s *BoothSettings) { s.CountdownSeconds = -1 }, true},
		{"long_countdown", func(s *BoothSettings) { s.CountdownSeconds = MaxCountdown + 1 }, true},
		{"grid", func(s *BoothSettings) { s.Template = "grid" }, false},
		{"legacy_template", func(s *BoothSettings) { s.Template = "single4x6" }, true},
		{"short_hex", func(s *BoothSettings) { s.FrameColor = "#FFF" }, false},
		{"bad_hex", func(s *BoothSettings) { s.BackgroundColor = "white" }, true},
		{"hex_without_hash", func(s *BoothSettings) { s.AccentColor = "333333" }, true},
		{"logo_scale_zero", func(s *BoothSettings) { s.LogoScale = 0 }, true},
		{"logo_center", func(s *BoothSettings) { s.LogoPosition = "center" }, false},
		{"logo_middle", func(s *BoothSettings) { s.LogoPosition = "middle" }, true},
		{"caption_long", func(s *BoothSettings) {
			s.Caption = "0123456789012345678901234567890123456789012345678901234567890123456789"
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultBoothSettings()
			tc.mutate(s)
			err := s.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
