// Package storyboard reads and writes a file describing one slideshow: its
// photos, effects and audio.
package storyboard

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/slides2video/internal/config"
	"github.com/ivlev/slides2video/internal/effects"
	"github.com/ivlev/slides2video/internal/renderer"
)

const Version = "1.0"

// Storyboard represents a complete slideshow description
type Storyboard struct {
	Version    string  `yaml:"version" toml:"version"`
	Transition string  `yaml:"transition,omitempty" toml:"transition,omitempty"`
	Movement   string  `yaml:"movement,omitempty" toml:"movement,omitempty"`
	Corner     string  `yaml:"corner,omitempty" toml:"corner,omitempty"`
	Quality    string  `yaml:"quality,omitempty" toml:"quality,omitempty"`
	Duration   float64 `yaml:"duration,omitempty" toml:"duration,omitempty"` // Target length in seconds
	Audio      *Audio  `yaml:"audio,omitempty" toml:"audio,omitempty"`
	Slides     []Slide `yaml:"slides" toml:"slides"`
}

// Audio is the soundtrack and the part of it to use.
type Audio struct {
	Path     string  `yaml:"path" toml:"path"`
	Start    float64 `yaml:"start,omitempty" toml:"start,omitempty"`
	Duration float64 `yaml:"duration,omitempty" toml:"duration,omitempty"`
}

// Slide is one photo. Relative inputs are resolved against the storyboard
// file's directory.
type Slide struct {
	ID    int    `yaml:"id" toml:"id"`
	Input string `yaml:"input" toml:"input"`
}

// New describes paths with the effects and audio of cfg.
func New(paths []string, cfg config.Config) *Storyboard {
	sb := &Storyboard{
		Version:  Version,
		Duration: cfg.TotalDuration,
		Quality:  cfg.Quality.String(),
	}
	if cfg.Movement != effects.MovementNone {
		sb.Movement = cfg.Movement.String()
		sb.Corner = cfg.Corner.String()
	} else {
		sb.Transition = cfg.Transition.String()
	}
	if cfg.AudioPath != "" {
		sb.Audio = &Audio{Path: cfg.AudioPath, Start: cfg.AudioStart, Duration: cfg.AudioDuration}
	}
	for i, p := range paths {
		sb.Slides = append(sb.Slides, Slide{ID: i + 1, Input: p})
	}
	return sb
}

// Apply copies the storyboard settings that are set onto cfg.
func (sb *Storyboard) Apply(cfg *config.Config) error {
	if sb.Transition != "" {
		t, err := effects.ParseTransition(sb.Transition)
		if err != nil {
			return err
		}
		cfg.Transition = t
		cfg.Movement = effects.MovementNone
	}
	if sb.Movement != "" {
		m, err := effects.ParseMovement(sb.Movement)
		if err != nil {
			return err
		}
		cfg.Movement = m
		if m != effects.MovementNone {
			cfg.Transition = effects.TransitionNone
		}
	}
	if sb.Corner != "" {
		c, err := effects.ParseCorner(sb.Corner)
		if err != nil {
			return err
		}
		cfg.Corner = c
	}
	if sb.Quality != "" {
		q, err := renderer.ParseQuality(sb.Quality)
		if err != nil {
			return err
		}
		cfg.Quality = q
	}
	if sb.Duration > 0 {
		cfg.TotalDuration = sb.Duration
	}
	if sb.Audio != nil && sb.Audio.Path != "" {
		cfg.AudioPath = sb.Audio.Path
		cfg.AudioStart = sb.Audio.Start
		cfg.AudioDuration = sb.Audio.Duration
	}
	return nil
}

// Paths returns the slide inputs in order, relative ones joined to baseDir.
func (sb *Storyboard) Paths(baseDir string) []string {
	paths := make([]string, 0, len(sb.Slides))
	for _, s := range sb.Slides {
		p := s.Input
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		paths = append(paths, p)
	}
	return paths
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Write writes a storyboard as TOML for .toml paths and YAML otherwise.
func Write(sb *Storyboard, path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(sb)
	} else {
		data, err = yaml.Marshal(sb)
	}
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Read reads a storyboard written by Write. Audio paths are resolved
// against the file's directory like slide inputs.
func Read(path string) (*Storyboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sb Storyboard
	if isTOML(path) {
		err = toml.Unmarshal(data, &sb)
	} else {
		err = yaml.Unmarshal(data, &sb)
	}
	if err != nil {
		return nil, fmt.Errorf("parse storyboard %s: %w", path, err)
	}
	if len(sb.Slides) == 0 {
		return nil, fmt.Errorf("storyboard %s has no slides", path)
	}
	if sb.Audio != nil && sb.Audio.Path != "" && !filepath.IsAbs(sb.Audio.Path) {
		sb.Audio.Path = filepath.Join(filepath.Dir(path), sb.Audio.Path)
	}
	return &sb, nil
}

// GeneratePath creates a timestamped storyboard filename in dir.
func GeneratePath(dir, ext string) string {
	if ext == "" {
		ext = ".yaml"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("storyboard_%s%s", timestamp, ext))
}

// FindLatest finds the most recent storyboard file in dir.
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read storyboards directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".toml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(found) == 0 {
		return "", fmt.Errorf("no storyboard files found in %s", dir)
	}

	// Sort by modification time (newest first)
	sort.Slice(found, func(i, j int) bool {
		return found[i].mod.After(found[j].mod)
	})
	return found[0].path, nil
}
