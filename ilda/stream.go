package ilda

import (
	"fmt"
	"io"
)

// Point is a point record with its colour resolved. Indexed is set when
// the point came from an indexed-colour section, in which case ColorIndex
// is the value stored in the file and Color the palette entry it names.
type Point struct {
	X, Y, Z    int16
	Status     Status
	Color      Color
	ColorIndex uint8
	Indexed    bool
}

// Frame is a decoded point section.
type Frame struct {
	Header Header
	Points []Point
	// Palette indexes Stream.Palettes for the palette in effect when the
	// frame was read, or is -1 when none was.
	Palette int
}

// PaletteSection is a decoded format 2 section.
type PaletteSection struct {
	Header Header
	Colors Palette
}

// Stream is a fully decoded IDTF stream.
type Stream struct {
	Frames   []Frame
	Palettes []PaletteSection
}

// PaletteFor returns the palette that applies to frame i, falling back to
// def when the frame was not preceded by a palette section.
func (s *Stream) PaletteFor(i int, def Palette) Palette {
	if p := s.Frames[i].Palette; p >= 0 && p < len(s.Palettes) {
		return s.Palettes[p].Colors
	}
	return def
}

// Decode reads every section of r. Indexed colours are resolved against
// the most recent palette section, or the default palette (see WithPalette)
// when there is none. An index outside that palette is an error unless
// WithLenientPalette is given. On error the stream decoded so far is
// returned too.
func Decode(r io.Reader, opts ...Option) (*Stream, error) {
	o := newOptions(opts)
	fallback := o.fallbackPalette()
	sr := NewSectionReader(r, opts...)
	s := &Stream{}
	active := -1
	for {
		sec, err := sr.Next()
		if err == io.EOF {
			return s, nil
		}
		if err != nil {
			return s, err
		}
		pal := fallback
		if active >= 0 {
			pal = s.Palettes[active].Colors
		}

		var points []Point
		switch rr := sec.Records.(type) {
		case *PaletteReader:
			entries, err := rr.ReadAll()
			if err != nil {
				return s, err
			}
			colors := make(Palette, len(entries))
			for i, e := range entries {
				colors[i] = e.Color
			}
			s.Palettes = append(s.Palettes, PaletteSection{Header: sec.Header, Colors: colors})
			active = len(s.Palettes) - 1
			continue
		case *Point3dIndexedReader:
			recs, err := rr.ReadAll()
			if err != nil {
				return s, err
			}
			points = make([]Point, len(recs))
			for i, p := range recs {
				points[i] = Point{X: p.X, Y: p.Y, Z: p.Z, Status: p.Status, ColorIndex: p.ColorIndex, Indexed: true}
			}
		case *Point2dIndexedReader:
			recs, err := rr.ReadAll()
			if err != nil {
				return s, err
			}
			points = make([]Point, len(recs))
			for i, p := range recs {
				points[i] = Point{X: p.X, Y: p.Y, Status: p.Status, ColorIndex: p.ColorIndex, Indexed: true}
			}
		case *Point3dTrueReader:
			recs, err := rr.ReadAll()
			if err != nil {
				return s, err
			}
			points = make([]Point, len(recs))
			for i, p := range recs {
				points[i] = Point{X: p.X, Y: p.Y, Z: p.Z, Status: p.Status, Color: p.Color}
			}
		case *Point2dTrueReader:
			recs, err := rr.ReadAll()
			if err != nil {
				return s, err
			}
			points = make([]Point, len(recs))
			for i, p := range recs {
				points[i] = Point{X: p.X, Y: p.Y, Status: p.Status, Color: p.Color}
			}
		}

		missing := 0
		for i := range points {
			if !points[i].Indexed {
				continue
			}
			c, err := pal.Get(int(points[i].ColorIndex))
			if err != nil {
				if !o.lenient {
					return s, fmt.Errorf("frame %d (%q) point %d: %w", len(s.Frames), sec.Header.Name.Text(), i, err)
				}
				missing++
				continue
			}
			points[i].Color = c
		}
		if missing > 0 {
			o.log.Warn().
				Int("frame", len(s.Frames)).
				Str("name", sec.Header.Name.Text()).
				Int("points", missing).
				Int("palette_size", len(pal)).
				Msg("palette index out of range")
		}
		s.Frames = append(s.Frames, Frame{Header: sec.Header, Points: points, Palette: active})
	}
}

// Encode writes s as an IDTF stream terminated by an end-of-stream header.
// Each palette section is written right before the first frame that uses
// it. An indexed frame without a palette that follows one gets the
// fallback palette (see WithPalette) written again in front of it.
// Palettes no frame refers to are written after the last frame.
func Encode(w io.Writer, s *Stream, opts ...Option) error {
	fallback := newOptions(opts).fallbackPalette()
	sw := NewSectionWriter(w)
	used := make([]bool, len(s.Palettes))

	// palette in effect for a reader of what has been written so far
	written := -1
	for i, f := range s.Frames {
		pal := fallback
		switch {
		case f.Palette >= 0 && f.Palette < len(s.Palettes):
			if f.Palette != written {
				if err := writePalette(sw, s.Palettes[f.Palette]); err != nil {
					return err
				}
				written = f.Palette
			}
			used[f.Palette] = true
			pal = s.Palettes[f.Palette].Colors
		case written != -1 && f.Header.Format.IsIndexed():
			if err := writePalette(sw, PaletteSection{Colors: pal}); err != nil {
				return err
			}
			written = -1
		}
		if err := WriteFrame(sw, f, f.Header.Format, pal); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	for i, p := range s.Palettes {
		if !used[i] {
			if err := writePalette(sw, p); err != nil {
				return err
			}
		}
	}
	return sw.WriteEnd()
}

func writePalette(sw *SectionWriter, p PaletteSection) error {
	h := p.Header
	h.Format = ColorPalette
	if len(p.Colors) == 0 || len(p.Colors) > 0xFFFF {
		return fmt.Errorf("%w: palette has %d colours", ErrCountMismatch, len(p.Colors))
	}
	h.Records = uint16(len(p.Colors))
	return WriteRecords(sw, h, p.Colors.Entries())
}

// WriteFrame writes the points of f as a section of point format target.
// Indexed targets keep the stored index of indexed points and map true
// colour points to the nearest entry of pal; 2D targets drop z.
func WriteFrame(sw *SectionWriter, f Frame, target Format, pal Palette) error {
	if !target.IsPoints() {
		return fmt.Errorf("ilda: %v is not a point format", target)
	}
	// a zero-count header would read back as the end of the stream
	if len(f.Points) == 0 || len(f.Points) > 0xFFFF {
		return fmt.Errorf("%w: frame has %d points", ErrCountMismatch, len(f.Points))
	}
	recs := make([]Record, len(f.Points))
	for i, p := range f.Points {
		recs[i] = PointRecord(p, target, pal)
	}
	h := f.Header
	h.Format = target
	h.Records = uint16(len(recs))
	return sw.WriteSection(h, recs)
}

// PointRecord converts p into a record of point format target.
func PointRecord(p Point, target Format, pal Palette) Record {
	idx := p.ColorIndex
	if target.IsIndexed() && !p.Indexed && len(pal) > 0 {
		idx = pal.Nearest(p.Color)
	}
	switch target {
	case Coords3dIndexedColor:
		return Point3dIndexed{X: p.X, Y: p.Y, Z: p.Z, Status: p.Status, ColorIndex: idx}
	case Coords2dIndexedColor:
		return Point2dIndexed{X: p.X, Y: p.Y, Status: p.Status, ColorIndex: idx}
	case Coords3dTrueColor:
		return Point3dTrue{X: p.X, Y: p.Y, Z: p.Z, Status: p.Status, Color: p.Color}
	default:
		return Point2dTrue{X: p.X, Y: p.Y, Status: p.Status, Color: p.Color}
	}
}
