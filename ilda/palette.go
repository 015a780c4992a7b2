package ilda

import (
	"fmt"
	"strconv"
)

// DefaultPaletteSize is the number of entries of the default palette.
const DefaultPaletteSize = 64

// defaultPalette is the table recommended by the IDTF appendix for indexed
// frames that are not preceded by a palette section.
var defaultPalette = [DefaultPaletteSize]Color{
	{255, 0, 0}, {255, 16, 0}, {255, 32, 0}, {255, 48, 0},
	{255, 64, 0}, {255, 80, 0}, {255, 96, 0}, {255, 112, 0},
	{255, 128, 0}, {255, 144, 0}, {255, 160, 0}, {255, 176, 0},
	{255, 192, 0}, {255, 208, 0}, {255, 224, 0}, {255, 240, 0},
	{255, 255, 0}, {224, 255, 0}, {192, 255, 0}, {160, 255, 0},
	{128, 255, 0}, {96, 255, 0}, {64, 255, 0}, {32, 255, 0},
	{0, 255, 0}, {0, 255, 36}, {0, 255, 73}, {0, 255, 109},
	{0, 255, 146}, {0, 255, 182}, {0, 255, 219}, {0, 255, 255},
	{0, 227, 255}, {0, 198, 255}, {0, 170, 255}, {0, 142, 255},
	{0, 113, 255}, {0, 85, 255}, {0, 56, 255}, {0, 28, 255},
	{0, 0, 255}, {32, 0, 255}, {64, 0, 255}, {96, 0, 255},
	{128, 0, 255}, {160, 0, 255}, {192, 0, 255}, {224, 0, 255},
	{255, 0, 255}, {255, 32, 255}, {255, 64, 255}, {255, 96, 255},
	{255, 128, 255}, {255, 160, 255}, {255, 192, 255}, {255, 224, 255},
	{255, 255, 255}, {255, 224, 224}, {255, 192, 192}, {255, 160, 160},
	{255, 128, 128}, {255, 96, 96}, {255, 64, 64}, {255, 32, 32},
}

// DefaultColor returns entry index of the default palette.
func DefaultColor(index int) (Color, error) {
	if index < 0 || index >= DefaultPaletteSize {
		return Color{}, fmt.Errorf("%w: %d not in [0,%d)", ErrPaletteIndex, index, DefaultPaletteSize)
	}
	return defaultPalette[index], nil
}

// DefaultPalette returns a copy of the default palette.
func DefaultPalette() Palette {
	p := make(Palette, DefaultPaletteSize)
	copy(p, defaultPalette[:])
	return p
}

// Palette is an indexed colour table. Palette sections hold between 2 and
// 256 entries, but any size is accepted.
type Palette []Color

// Get returns entry index, failing when it is outside the palette.
func (p Palette) Get(index int) (Color, error) {
	if index < 0 || index >= len(p) {
		return Color{}, fmt.Errorf("%w: %d not in [0,%d)", ErrPaletteIndex, index, len(p))
	}
	return p[index], nil
}

// Nearest returns the index of the entry closest to c in RGB space. Ties
// go to the lower index. p must not be empty.
func (p Palette) Nearest(c Color) uint8 {
	best, bestDist := 0, -1
	for i, e := range p {
		dr := int(e.Red) - int(c.Red)
		dg := int(e.Green) - int(c.Green)
		db := int(e.Blue) - int(c.Blue)
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
		if d == 0 {
			break
		}
	}
	return uint8(best)
}

// Entries returns the palette as format 2 records.
func (p Palette) Entries() []PaletteEntry {
	out := make([]PaletteEntry, len(p))
	for i, c := range p {
		out[i] = PaletteEntry{Color: c}
	}
	return out
}

// ParseHexColor parses "#rrggbb".
func ParseHexColor(hex string) (Color, error) {
	if len(hex) != 7 || hex[0] != '#' {
		return Color{}, fmt.Errorf("ilda: invalid hex colour %q", hex)
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("ilda: invalid hex colour %q: %w", hex, err)
	}
	return Color{Red: uint8(v >> 16), Green: uint8(v >> 8), Blue: uint8(v)}, nil
}

// ParsePalette parses a list of "#rrggbb" strings.
func ParsePalette(hexes []string) (Palette, error) {
	p := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		c, err := ParseHexColor(h)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	return p, nil
}
