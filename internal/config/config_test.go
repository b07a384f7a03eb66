package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default is valid", Default(), false},
		{"empty extension", Config{}, true},
		{"extension with separator", Config{Extension: "../jpg"}, true},
		{"extension with space", Config{Extension: "j pg"}, true},
		{"max deltas", Config{Extension: "png", Red: 255, Green: -255}, false},
		{"blue too high", Config{Extension: "png", Blue: 256}, true},
		{"green too low", Config{Extension: "png", Green: -300}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResizeEnabled(t *testing.T) {
	tests := []struct {
		w, h uint32
		want bool
	}{
		{0, 0, false},
		{100, 0, false},
		{0, 100, false},
		{100, 50, true},
	}
	for _, tt := range tests {
		cfg := Config{Width: tt.w, Height: tt.h}
		if got := cfg.ResizeEnabled(); got != tt.want {
			t.Errorf("ResizeEnabled(%dx%d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}
