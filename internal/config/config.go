// Package config holds the sidecar conversion settings and the process
// environment. The sidecar is the only persisted state; everything else is
// read from environment variables once at start.
package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SidecarFileName is the default name of the settings file next to the executable.
	SidecarFileName = "image_manip_config.json"

	// ConversionFolderName is the default output folder next to the executable.
	ConversionFolderName = "image_manip_convert"

	// DefaultExtension is used when the sidecar leaves the extension empty.
	DefaultExtension = "jpg"

	maxChannelDelta = 255
)

// Config holds the conversion settings read from the sidecar file.
// A zero Width or Height disables resizing.
type Config struct {
	Width           uint32 `json:"width" yaml:"width"`
	Height          uint32 `json:"height" yaml:"height"`
	KeepAspectRatio bool   `json:"keep_aspect_ratio" yaml:"keep_aspect_ratio"`
	FlipHorizontal  bool   `json:"flip_horizontal" yaml:"flip_horizontal"`
	FlipVertical    bool   `json:"flip_vertical" yaml:"flip_vertical"`
	Extension       string `json:"extension" yaml:"extension"`

	// Signed per-channel deltas, saturating at 0..255.
	Red   int `json:"red" yaml:"red"`
	Green int `json:"green" yaml:"green"`
	Blue  int `json:"blue" yaml:"blue"`
}

// Default returns the settings written on first run.
func Default() Config {
	return Config{
		Extension: DefaultExtension,
	}
}

// ResizeEnabled reports whether both target dimensions are set.
func (c Config) ResizeEnabled() bool {
	return c.Width != 0 && c.Height != 0
}

// AdjustEnabled reports whether any channel delta is nonzero.
func (c Config) AdjustEnabled() bool {
	return c.Red != 0 || c.Green != 0 || c.Blue != 0
}

// Normalize fills an empty extension and strips a leading dot.
func (c *Config) Normalize() {
	c.Extension = strings.TrimPrefix(strings.TrimSpace(c.Extension), ".")
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
}

// Validate checks the extension shape and channel delta ranges.
func (c Config) Validate() error {
	if c.Extension == "" {
		return errors.New("extension must not be empty")
	}
	if strings.ContainsAny(c.Extension, `/\ `+"\t\n") {
		return fmt.Errorf("invalid extension %q", c.Extension)
	}
	for name, delta := range map[string]int{"red": c.Red, "green": c.Green, "blue": c.Blue} {
		if delta < -maxChannelDelta || delta > maxChannelDelta {
			return fmt.Errorf("%s delta %d out of range [-%d, %d]", name, delta, maxChannelDelta, maxChannelDelta)
		}
	}
	return nil
}
