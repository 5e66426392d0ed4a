// Package config holds the settings of one render run.
package config

import (
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/slides2video/internal/effects"
	"github.com/ivlev/slides2video/internal/renderer"
)

type Config struct {
	InputPath   string
	OutputVideo string
	WorkDir     string

	// TotalDuration is the target video length in seconds; 0 lets the
	// planner derive it from the photo count.
	TotalDuration float64
	Width         int
	Height        int
	FPS           int
	Preset        string

	Transition effects.Transition
	Movement   effects.Movement
	Corner     effects.FadeCorner
	Quality    renderer.Quality
	DPI        int

	AudioPath     string
	AudioStart    float64
	AudioDuration float64
	AudioSync     bool

	// VideoEncoder is "auto", "mjpeg" or an ffmpeg encoder name.
	VideoEncoder   string
	EncoderQuality int

	EndCard    string
	Storyboard string

	MetricsAddr  string
	ShowStats    bool
	Debug        bool
	BuildVersion string
}

func Defaults() Config {
	return Config{
		Width:        1280,
		Height:       720,
		FPS:          30,
		Transition:   effects.CrossFade,
		Corner:       effects.UpLeft,
		Quality:      renderer.QualityLow,
		DPI:          150,
		AudioSync:    true,
		VideoEncoder: "auto",
	}
}

var presets = map[string]image.Point{
	"16:9": {1280, 720},
	"9:16": {720, 1280},  // Shorts/TikTok
	"4:5":  {1080, 1350}, // Instagram
	"1:1":  {1080, 1080},
}

// ApplyPreset overrides the canvas size with a named aspect preset. An empty
// name keeps the current size.
func (c *Config) ApplyPreset(name string) error {
	if name == "" {
		return nil
	}
	size, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q (expected 16:9, 9:16, 4:5 or 1:1)", name)
	}
	c.Preset = name
	c.Width, c.Height = size.X, size.Y
	return nil
}

func (c Config) Canvas() image.Point {
	return image.Pt(c.Width, c.Height)
}

func (c Config) Selection() effects.Selection {
	return effects.Selection{Transition: c.Transition, Movement: c.Movement, Corner: c.Corner}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas %dx%d must be positive", c.Width, c.Height))
	} else if c.Width%2 != 0 || c.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("canvas %dx%d must have even sides for yuv420p", c.Width, c.Height))
	}
	if c.FPS <= 0 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps %d out of range 1..240", c.FPS))
	}
	if c.TotalDuration < 0 {
		errs = append(errs, fmt.Errorf("duration %.2f must not be negative", c.TotalDuration))
	}
	if c.Transition != effects.TransitionNone && c.Movement != effects.MovementNone {
		errs = append(errs, fmt.Errorf("transition %s and movement %s are mutually exclusive", c.Transition, c.Movement))
	}
	if c.AudioStart < 0 || c.AudioDuration < 0 {
		errs = append(errs, errors.New("audio range must not be negative"))
	}
	if c.DPI <= 0 {
		errs = append(errs, fmt.Errorf("dpi %d must be positive", c.DPI))
	}
	return errors.Join(errs...)
}
