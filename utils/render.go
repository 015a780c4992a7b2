package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/voxelsplace/ilda/go/ilda"
	"golang.org/x/image/vector"
)

// RenderFrame rasterises the lit segments of f, viewed from the front,
// onto a size x size black image. The full coordinate range spans the
// image and y points up.
func RenderFrame(f ilda.Frame, size int, lineWidth float32) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	mesh := ilda.BuildLines(f, 1)
	half := float32(size) / 2
	toPixel := func(p [3]float32) (float32, float32) {
		return (p[0] + 1) * half, (1 - p[1]) * half
	}
	z := vector.NewRasterizer(size, size)
	for i := 0; i+1 < len(mesh.Indices); i += 2 {
		a := mesh.Vertices[mesh.Indices[i]]
		b := mesh.Vertices[mesh.Indices[i+1]]
		x0, y0 := toPixel(a.Position)
		x1, y1 := toPixel(b.Position)

		z.Reset(size, size)
		strokeSegment(z, x0, y0, x1, y1, lineWidth/2)
		c := b.Color
		z.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{c.Red, c.Green, c.Blue, 0xff}), image.Point{})
	}
	return dst
}

// strokeSegment adds a rectangle of half-width w around the segment,
// extended by w at both ends so joints and single points stay visible.
func strokeSegment(z *vector.Rasterizer, x0, y0, x1, y1, w float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l < 1e-6 {
		dx, dy, l = 1, 0, 1
	}
	ux, uy := dx/l*w, dy/l*w
	nx, ny := -uy, ux
	z.MoveTo(x0-ux+nx, y0-uy+ny)
	z.LineTo(x1+ux+nx, y1+uy+ny)
	z.LineTo(x1+ux-nx, y1+uy-ny)
	z.LineTo(x0-ux-nx, y0-uy-ny)
	z.ClosePath()
}

// RunRender writes frame index of inPath as a PNG preview.
func RunRender(inPath string, index int, outPath string, cfg Config) error {
	s, err := ilda.ReadFile(inPath, cfg.ReadOptions()...)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(s.Frames) {
		return fmt.Errorf("frame %d out of range: stream has %d frames", index, len(s.Frames))
	}
	img := RenderFrame(s.Frames[index], cfg.RenderSize, cfg.RenderLineWidth)

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	log.Info().Str("in", inPath).Int("frame", index).Int("size", cfg.RenderSize).Msg("render")
	return out.Close()
}
