package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/voxelsplace/ilda/go/ilda"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RenderSize = 64
	cfg.RenderLineWidth = 4
	return cfg
}

func TestGenerateTestPatternIsDeterministic(t *testing.T) {
	a, err := GenerateTestPattern(4, 20, 7)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateTestPattern(4, 20, 7)
	if len(a.Frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(a.Frames))
	}
	for i, f := range a.Frames {
		if len(f.Points) != 20 || f.Header.Number != uint16(i) || f.Header.TotalFrames != 4 {
			t.Fatalf("frame %d: %d points, header %+v", i, len(f.Points), f.Header)
		}
		if !f.Points[0].Status.IsBlanked() || !f.Points[19].Status.IsLastPoint() {
			t.Fatalf("frame %d: expected blanked move-in and last point flag", i)
		}
		for j, p := range f.Points {
			if p != b.Frames[i].Points[j] {
				t.Fatalf("frame %d point %d differs between runs", i, j)
			}
		}
	}
	if a.Frames[0].Points[5] == a.Frames[1].Points[5] {
		t.Fatalf("pattern should move between frames")
	}
}

func TestGenerateTestPatternRejectsBadCounts(t *testing.T) {
	for _, c := range [][2]int{{0, 10}, {70000, 10}, {1, 2}, {1, 70000}} {
		if _, err := GenerateTestPattern(c[0], c[1], 1); err == nil {
			t.Fatalf("expected error for %v", c)
		}
	}
}

func TestGentestInfoAndConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "pattern.ild")
	if err := RunGenerateTestPattern(3, 12, 1, in); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := RunInfo(in, &out, testConfig()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "3 frames") || !strings.Contains(out.String(), "tp00002") {
		t.Fatalf("unexpected info output:\n%s", out.String())
	}

	conv := filepath.Join(dir, "flat.ild.zst")
	if err := RunConvert(in, uint8(ilda.Coords2dIndexedColor), conv, testConfig()); err != nil {
		t.Fatal(err)
	}
	s, err := ilda.ReadFile(conv)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Frames) != 3 || s.Frames[0].Header.Format != ilda.Coords2dIndexedColor {
		t.Fatalf("unexpected converted stream: %d frames", len(s.Frames))
	}
	if err := RunConvert(in, 3, conv, testConfig()); err == nil {
		t.Fatalf("expected error for unknown format code")
	}
}

func TestPackAndUnpackDir(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ild")
	b := filepath.Join(dir, "b.ild.zst")
	if err := RunGenerateTestPattern(2, 10, 1, a); err != nil {
		t.Fatal(err)
	}
	if err := RunGenerateTestPattern(2, 10, 2, b); err != nil {
		t.Fatal(err)
	}
	pack := filepath.Join(dir, "all.ildapack")
	if err := CreatePack([]string{a, b}, pack, testConfig()); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	if err := RunILDAPACK2ILD(pack, outDir); err != nil {
		t.Fatal(err)
	}
	orig, _ := os.ReadFile(a)
	got, err := os.ReadFile(filepath.Join(outDir, "a.ild"))
	if err != nil || !bytes.Equal(got, orig) {
		t.Fatalf("a.ild not restored: %v", err)
	}
	plainB, _ := ilda.ReadBytes(b)
	got, err = os.ReadFile(filepath.Join(outDir, "b.ild"))
	if err != nil || !bytes.Equal(got, plainB) {
		t.Fatalf("b.ild should be stored decompressed: %v", err)
	}

	if err := CreatePack(nil, pack, testConfig()); err == nil {
		t.Fatalf("expected error for no inputs")
	}
	if err := CreatePack([]string{a, a}, pack, testConfig()); err == nil {
		t.Fatalf("expected error for duplicate names")
	}
}

func TestGLBCommands(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p.ild")
	if err := RunGenerateTestPattern(2, 8, 3, in); err != nil {
		t.Fatal(err)
	}
	glb := filepath.Join(dir, "p.glb")
	if err := RunILD2GLB(in, glb, testConfig()); err != nil {
		t.Fatal(err)
	}
	pack := filepath.Join(dir, "p.ildapack")
	if err := CreatePack([]string{in}, pack, testConfig()); err != nil {
		t.Fatal(err)
	}
	packGLB := filepath.Join(dir, "pack.glb")
	if err := RunILDAPACK2GLB(pack, packGLB, testConfig()); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{glb, packGLB} {
		b, err := os.ReadFile(p)
		if err != nil || !bytes.HasPrefix(b, []byte("glTF")) {
			t.Fatalf("%s: expected binary glTF (%v)", p, err)
		}
	}

	doc, err := gltf.Open(packGLB)
	if err != nil {
		t.Fatalf("open pack glb: %v", err)
	}
	if len(doc.Nodes) != 3 || len(doc.Scenes[0].Nodes) != 1 {
		t.Fatalf("expected two frame nodes under one entry node, got %d nodes", len(doc.Nodes))
	}
	parent := doc.Nodes[doc.Scenes[0].Nodes[0]]
	if parent.Name != "p.ild" || len(parent.Children) != 2 || parent.Children[0] != 0 || parent.Children[1] != 1 {
		t.Fatalf("unexpected entry node %q children %v", parent.Name, parent.Children)
	}
}

func TestInfoToleratesPaletteOverflow(t *testing.T) {
	s := &ilda.Stream{Frames: []ilda.Frame{{
		Header:  ilda.Header{Format: ilda.Coords3dIndexedColor, Name: ilda.MustName("wide")},
		Palette: -1,
		Points:  []ilda.Point{{ColorIndex: 200, Indexed: true, Status: ilda.StatusLastPoint}},
	}}}
	in := filepath.Join(t.TempDir(), "wide.ild")
	if err := ilda.WriteFile(in, s); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := RunInfo(in, &out, testConfig()); err != nil {
		t.Fatalf("default config should read past a bad index: %v", err)
	}
	if !strings.Contains(out.String(), "wide") {
		t.Fatalf("unexpected info output:\n%s", out.String())
	}
	strict := testConfig()
	strict.StrictPalette = true
	if err := RunInfo(in, &out, strict); err == nil {
		t.Fatalf("strict config should reject the bad index")
	}
}

func TestRenderFrame(t *testing.T) {
	f := ilda.Frame{Points: []ilda.Point{
		{X: -16384, Status: ilda.StatusBlanked},
		{X: 16384, Color: ilda.Color{Red: 255}, Status: ilda.StatusLastPoint},
	}}
	img := RenderFrame(f, 64, 4)
	if c := img.RGBAAt(32, 31); c.R < 200 || c.G != 0 || c.B != 0 {
		t.Fatalf("expected red on the line, got %v", c)
	}
	if c := img.RGBAAt(2, 2); c.R != 0 || c.A != 0xff {
		t.Fatalf("expected black background, got %v", c)
	}
	// the blanked move-in leaves nothing left of the start point
	if c := img.RGBAAt(8, 31); c.R != 0 {
		t.Fatalf("blanked move should not draw, got %v", c)
	}
}

func TestRunRenderWritesPNG(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p.ild")
	if err := RunGenerateTestPattern(1, 8, 4, in); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "p.png")
	if err := RunRender(in, 0, out, testConfig()); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(out)
	if err != nil || !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("expected PNG output (%v)", err)
	}
	if err := RunRender(in, 5, out, testConfig()); err == nil {
		t.Fatalf("expected error for missing frame")
	}
}
