package ilda

import (
	"bytes"
	"errors"
	"testing"
)

func sampleStream() *Stream {
	return &Stream{
		Palettes: []PaletteSection{{
			Header: Header{Format: ColorPalette, Name: MustName("pal")},
			Colors: Palette{{0, 0, 0}, {255, 0, 0}, {0, 255, 0}},
		}},
		Frames: []Frame{
			{
				Header:  Header{Format: Coords2dIndexedColor, Name: MustName("idx"), TotalFrames: 2},
				Palette: -1,
				Points: []Point{
					{X: 0, Y: 0, Status: StatusBlanked, ColorIndex: 0, Indexed: true, Color: Color{255, 0, 0}},
					{X: 100, Y: 100, Status: StatusLastPoint, ColorIndex: 24, Indexed: true, Color: Color{0, 255, 0}},
				},
			},
			{
				Header:  Header{Format: Coords3dIndexedColor, Name: MustName("pal'd"), Number: 1, TotalFrames: 2},
				Palette: 0,
				Points: []Point{
					{X: -1, Y: 1, Z: 5, ColorIndex: 2, Indexed: true, Color: Color{0, 255, 0}},
					{X: 1, Y: -1, Z: -5, Status: StatusLastPoint, ColorIndex: 1, Indexed: true, Color: Color{255, 0, 0}},
				},
			},
			{
				Header:  Header{Format: Coords3dTrueColor, Name: MustName("true")},
				Palette: 0,
				Points: []Point{
					{X: 7, Y: 8, Z: 9, Status: StatusLastPoint, Color: Color{1, 2, 3}},
				},
			},
		},
	}
}

func TestEncodeDecodeStream(t *testing.T) {
	in := sampleStream()
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Palettes) != 1 || len(out.Frames) != 3 {
		t.Fatalf("got %d palettes, %d frames", len(out.Palettes), len(out.Frames))
	}
	for i, f := range out.Frames {
		want := in.Frames[i]
		if f.Header.Format != want.Header.Format || f.Header.Name != want.Header.Name || f.Palette != want.Palette {
			t.Fatalf("frame %d header %+v palette %d", i, f.Header, f.Palette)
		}
		if int(f.Header.Records) != len(want.Points) {
			t.Fatalf("frame %d records %d", i, f.Header.Records)
		}
		for j, p := range f.Points {
			if p != want.Points[j] {
				t.Fatalf("frame %d point %d: got %+v want %+v", i, j, p, want.Points[j])
			}
		}
	}
}

func TestDecodeUsesConfiguredPalette(t *testing.T) {
	var buf bytes.Buffer
	sw := NewSectionWriter(&buf)
	if err := WriteRecords(sw, Header{Format: Coords2dIndexedColor, Records: 1}, []Point2dIndexed{{ColorIndex: 1}}); err != nil {
		t.Fatal(err)
	}
	s, err := Decode(bytes.NewReader(buf.Bytes()), WithPalette(Palette{{1, 1, 1}, {9, 9, 9}}))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Frames[0].Points[0].Color; got != (Color{9, 9, 9}) {
		t.Fatalf("got %v", got)
	}
	if got := s.PaletteFor(0, DefaultPalette()); got[0] != (Color{255, 0, 0}) {
		t.Fatalf("PaletteFor fallback %v", got[0])
	}
}

func TestDecodePaletteIndexOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	sw := NewSectionWriter(&buf)
	if err := WriteRecords(sw, Header{Format: ColorPalette, Records: 2}, []PaletteEntry{{}, {}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteRecords(sw, Header{Format: Coords3dIndexedColor, Records: 1}, []Point3dIndexed{{ColorIndex: 2}}); err != nil {
		t.Fatal(err)
	}
	s, err := Decode(&buf)
	if !errors.Is(err, ErrPaletteIndex) {
		t.Fatalf("expected ErrPaletteIndex, got %v", err)
	}
	if len(s.Palettes) != 1 {
		t.Fatalf("partial stream should keep the palette")
	}
}

func TestDecodeLenientPalette(t *testing.T) {
	var buf bytes.Buffer
	sw := NewSectionWriter(&buf)
	recs := []Point2dIndexed{{X: 1, ColorIndex: 200}, {X: 2, ColorIndex: 1, Status: StatusLastPoint}}
	if err := WriteRecords(sw, Header{Format: Coords2dIndexedColor, Name: MustName("wide"), Records: 2}, recs); err != nil {
		t.Fatal(err)
	}
	if err := sw.WriteEnd(); err != nil {
		t.Fatal(err)
	}

	if _, err := Decode(bytes.NewReader(buf.Bytes())); !errors.Is(err, ErrPaletteIndex) {
		t.Fatalf("strict decode: expected ErrPaletteIndex, got %v", err)
	}

	s, err := Decode(bytes.NewReader(buf.Bytes()), WithLenientPalette())
	if err != nil {
		t.Fatalf("lenient decode: %v", err)
	}
	pts := s.Frames[0].Points
	if len(pts) != 2 || pts[0].ColorIndex != 200 || !pts[0].Indexed || pts[0].Color != (Color{}) {
		t.Fatalf("out of range point not kept as is: %+v", pts)
	}
	if pts[1].Color != DefaultPalette()[1] {
		t.Fatalf("in range point should still resolve, got %v", pts[1].Color)
	}
}

func TestEncodeRestoresConfiguredPalette(t *testing.T) {
	fallback := Palette{{255, 0, 0}, {0, 0, 255}}
	in := &Stream{
		Palettes: []PaletteSection{{
			Header: Header{Format: ColorPalette, Name: MustName("other")},
			Colors: Palette{{1, 1, 1}},
		}},
		Frames: []Frame{
			{
				Header:  Header{Format: Coords3dIndexedColor, Name: MustName("a")},
				Palette: 0,
				Points:  []Point{{Status: StatusLastPoint, Indexed: true}},
			},
			{
				Header:  Header{Format: Coords3dIndexedColor, Name: MustName("b")},
				Palette: -1,
				Points:  []Point{{Status: StatusLastPoint, ColorIndex: 1, Indexed: true}},
			},
		},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, in, WithPalette(fallback)); err != nil {
		t.Fatal(err)
	}
	out, err := Decode(&buf, WithPalette(fallback))
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Frames[1].Points[0].Color; got != (Color{0, 0, 255}) {
		t.Fatalf("frame after a palette switch: got %v, want #0000ff", got)
	}
	if len(out.Palettes) != 2 || len(out.Palettes[1].Colors) != len(fallback) {
		t.Fatalf("expected the configured palette to be written back, got %d palettes", len(out.Palettes))
	}
}

func TestWriteFrameConvertsPoints(t *testing.T) {
	f := Frame{
		Header: Header{Format: Coords3dTrueColor},
		Points: []Point{{X: 1, Y: 2, Z: 3, Color: Color{0, 0, 255}}},
	}
	var buf bytes.Buffer
	sw := NewSectionWriter(&buf)
	if err := WriteFrame(sw, f, Coords2dIndexedColor, DefaultPalette()); err != nil {
		t.Fatal(err)
	}
	s, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	p := s.Frames[0].Points[0]
	if s.Frames[0].Header.Format != Coords2dIndexedColor || p.Z != 0 || p.ColorIndex != 40 {
		t.Fatalf("converted point %+v in %v", p, s.Frames[0].Header.Format)
	}
	if err := WriteFrame(sw, f, ColorPalette, nil); err == nil {
		t.Fatalf("expected error for palette target")
	}
	if err := WriteFrame(sw, Frame{}, Coords2dTrueColor, nil); !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("empty frame: got %v", err)
	}
}
