package utils

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"github.com/voxelsplace/ilda/go/ilda"
)

// Config holds the ildatool settings that can be set from a TOML file.
type Config struct {
	LogLevel        string
	PackCompression ilda.PackCompression
	PackDedup       bool
	GLBScale        float32
	RenderSize      int
	RenderLineWidth float32
	// Palette replaces the default palette for indexed frames that are not
	// preceded by a palette section. Nil keeps the default.
	Palette ilda.Palette
	// StrictPalette makes an out-of-range colour index fail the read.
	// Otherwise the point is kept uncoloured and a warning is logged.
	StrictPalette bool
}

type fileConfig struct {
	LogLevel        string   `toml:"log_level"`
	PackCompression string   `toml:"pack_compression"`
	PackDedup       bool     `toml:"pack_dedup"`
	GLBScale        float64  `toml:"glb_scale"`
	RenderSize      int      `toml:"render_size"`
	RenderLineWidth float64  `toml:"render_line_width"`
	Palette         []string `toml:"palette"`
	StrictPalette   bool     `toml:"strict_palette"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel:        "info",
		PackCompression: ilda.PackCompZstd,
		PackDedup:       true,
		GLBScale:        1,
		RenderSize:      512,
		RenderLineWidth: 1.5,
	}
}

// LoadConfig reads path over DefaultConfig. Keys missing from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("pack_compression") {
		c, err := ilda.ParsePackCompression(strings.TrimSpace(raw.PackCompression))
		if err != nil {
			return Config{}, fmt.Errorf("parse pack_compression: %w", err)
		}
		cfg.PackCompression = c
	}

	if meta.IsDefined("pack_dedup") {
		cfg.PackDedup = raw.PackDedup
	}

	if meta.IsDefined("glb_scale") {
		if raw.GLBScale <= 0 {
			return Config{}, fmt.Errorf("glb_scale must be positive, got %v", raw.GLBScale)
		}
		cfg.GLBScale = float32(raw.GLBScale)
	}

	if meta.IsDefined("render_size") {
		if raw.RenderSize < 16 || raw.RenderSize > 8192 {
			return Config{}, fmt.Errorf("render_size out of range: %d", raw.RenderSize)
		}
		cfg.RenderSize = raw.RenderSize
	}

	if meta.IsDefined("render_line_width") {
		if raw.RenderLineWidth <= 0 {
			return Config{}, fmt.Errorf("render_line_width must be positive, got %v", raw.RenderLineWidth)
		}
		cfg.RenderLineWidth = float32(raw.RenderLineWidth)
	}

	if meta.IsDefined("palette") {
		p, err := ilda.ParsePalette(raw.Palette)
		if err != nil {
			return Config{}, fmt.Errorf("parse palette: %w", err)
		}
		cfg.Palette = p
	}

	if meta.IsDefined("strict_palette") {
		cfg.StrictPalette = raw.StrictPalette
	}

	return cfg, nil
}

// Layout returns the pack layout selected by PackDedup.
func (c Config) Layout() ilda.PackLayout {
	if c.PackDedup {
		return ilda.LayoutSections
	}
	return ilda.LayoutRaw
}

// ReadOptions returns the reader options implied by c. Section events go
// to the global logger.
func (c Config) ReadOptions() []ilda.Option {
	opts := []ilda.Option{ilda.WithLogger(log.Logger)}
	if c.Palette != nil {
		opts = append(opts, ilda.WithPalette(c.Palette))
	}
	if !c.StrictPalette {
		opts = append(opts, ilda.WithLenientPalette())
	}
	return opts
}

// DefaultPalette returns the configured palette or the standard one.
func (c Config) DefaultPalette() ilda.Palette {
	if c.Palette != nil {
		return c.Palette
	}
	return ilda.DefaultPalette()
}
