package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voxelsplace/ilda/go/ilda"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ildatool.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
pack_compression = "zlib"
pack_dedup = false
render_size = 256
palette = ["#ff0000", "#00ff00"]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	if cfg.PackCompression != ilda.PackCompZlib {
		t.Fatalf("unexpected compression: %v", cfg.PackCompression)
	}
	if cfg.PackDedup || cfg.Layout() != ilda.LayoutRaw {
		t.Fatalf("expected dedup disabled")
	}
	if cfg.RenderSize != 256 {
		t.Fatalf("unexpected render size: %d", cfg.RenderSize)
	}
	if cfg.GLBScale != 1 || cfg.RenderLineWidth != 1.5 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if len(cfg.Palette) != 2 || cfg.Palette[1] != (ilda.Color{Green: 255}) {
		t.Fatalf("unexpected palette: %v", cfg.Palette)
	}
	if len(cfg.ReadOptions()) != 3 {
		t.Fatalf("configured palette should become a read option")
	}
}

func TestStrictPaletteConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "strict_palette = true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.StrictPalette || len(cfg.ReadOptions()) != 1 {
		t.Fatalf("strict palette should drop the lenient option: %+v", cfg)
	}
	if DefaultConfig().StrictPalette {
		t.Fatalf("default config should read leniently")
	}
}

func TestLoadConfigEmptyKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "# nothing\n"))
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.PackCompression != def.PackCompression || !cfg.PackDedup || cfg.Palette != nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.DefaultPalette()) != ilda.DefaultPaletteSize {
		t.Fatalf("expected default palette")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	for _, body := range []string{
		`pack_compression = "lz4"`,
		`glb_scale = 0.0`,
		`render_size = 4`,
		`palette = ["red"]`,
		`render_line_width = -1.0`,
	} {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
